package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
	"github.com/example/askdrk-backend/internal/middleware"
)

// errorClass is the HTTP rendering of one core error class.
type errorClass struct {
	sentinel error
	status   int
	code     string
	message  string
}

var errorClasses = []errorClass{
	{core.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "Authentication required"},
	{core.ErrInvalidArgument, http.StatusBadRequest, "invalid-argument", "Invalid request"},
	{core.ErrInvalidConfig, http.StatusInternalServerError, "invalid-config", "Service is not configured"},
	{core.ErrPermissionDenied, http.StatusForbidden, "permission-denied", "Permission denied"},
	{core.ErrNotFound, http.StatusNotFound, "not-found", "Resource not found"},
	{core.ErrPreconditionFailed, http.StatusPreconditionFailed, "failed-precondition", "Precondition failed"},
	{core.ErrUpstream, http.StatusBadGateway, "upstream-error", "Upstream service error"},
}

// classify returns the status, code and fixed message for err.
func classify(err error) (int, ErrorResponse) {
	for _, ec := range errorClasses {
		if errors.Is(err, ec.sentinel) {
			resp := ErrorResponse{Error: ec.message, Code: ec.code}
			if ec.sentinel == core.ErrInvalidArgument {
				resp.Details = err.Error()
			}
			return ec.status, resp
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "internal"}
}

// mapErrorToStatus logs err and writes the mapped error response.
func mapErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	status, resp := classify(err)
	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.String("code", resp.Code),
		zap.Int("status_code", status),
		zap.Error(err),
	}
	if uid := c.GetString(middleware.ContextUserIDKey); uid != "" {
		fields = append(fields, zap.String("uid", uid))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Warn("Request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, resp)
}

// currentUserID returns the UID set by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.ContextUserIDKey)
	return uid, uid != ""
}

func writeUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: "unauthenticated"})
}

func writeBadRequest(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Code: "invalid-argument", Details: details})
}
