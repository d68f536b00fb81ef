package api

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`             // fixed message for the error class
	Code    string `json:"code"`              // stable machine-readable class
	Details string `json:"details,omitempty"` // only for caller input errors
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
