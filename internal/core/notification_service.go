package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/db"
	"github.com/example/askdrk-backend/internal/models"
)

const (
	senderAssistant  = "assistant"
	chatChannelID    = "chat_channel"
	chatRoute        = "/chat"
	maxBodyRunes     = 160
	truncatedBodyLen = 157
)

// notificationService implements NotificationService.
type notificationService struct {
	users  db.UserRepository
	push   PushSender
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotificationService creates a new notificationService.
func NewNotificationService(users db.UserRepository, push PushSender, cfg *config.Config, logger *zap.Logger) NotificationService {
	return &notificationService{users: users, push: push, cfg: cfg, logger: logger}
}

// previewBody collapses whitespace and caps the text at 160 runes.
func previewBody(text string) string {
	preview := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(preview) <= maxBodyRunes {
		return preview
	}
	return string([]rune(preview)[:truncatedBodyLen]) + "…"
}

// shouldNotify is true only for an assistant message that just became approved.
func shouldNotify(before, after models.ChatMessage) bool {
	return after.Sender == senderAssistant && !before.Approved && after.Approved
}

// HandleChatMessageUpdate pushes the approved reply to every device of the chat owner.
func (s *notificationService) HandleChatMessageUpdate(ctx context.Context, evt models.DocumentEventData, documentHint string) (*ChatNotificationResult, error) {
	if evt.OldValue == nil || evt.Value == nil {
		return &ChatNotificationResult{Skipped: "not an update"}, nil
	}
	before := evt.OldValue.ChatMessage()
	after := evt.Value.ChatMessage()
	if !shouldNotify(before, after) {
		return &ChatNotificationResult{Skipped: "not an approval"}, nil
	}

	if after.ChatID == "" || after.MessageID == "" {
		after.ChatID, after.MessageID = models.ParseMessagePath(documentHint)
	}
	if after.ChatID == "" || after.MessageID == "" {
		return nil, fmt.Errorf("%w: event does not name a chat message", ErrInvalidArgument)
	}
	log := s.logger.With(zap.String("uid", after.ChatID), zap.String("messageId", after.MessageID))

	user, err := s.users.GetByID(ctx, after.ChatID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("load user %s: %w", after.ChatID, err)
	}
	tokens := user.Tokens()
	if len(tokens) == 0 {
		log.Warn("No FCM tokens for user")
		return &ChatNotificationResult{Skipped: "no tokens"}, nil
	}

	msg := PushMessage{
		Title: s.cfg.ChatNotificationTitle,
		Body:  previewBody(after.Text),
		Data: map[string]string{
			"route":     chatRoute,
			"chatId":    after.ChatID,
			"messageId": after.MessageID,
			"parentId":  after.ParentID,
		},
		AndroidChannelID: chatChannelID,
		HighPriority:     true,
	}
	res, err := s.push.SendMulticast(ctx, msg, tokens)
	if err != nil {
		log.Error("Chat notification send failed", zap.Int("tokens", len(tokens)), zap.Error(err))
		return nil, fmt.Errorf("send chat notification: %w", err)
	}

	var stale []string
	for _, r := range res.Responses {
		if r.Err == nil {
			continue
		}
		log.Warn("FCM send failed for token", zap.String("token", r.Token), zap.Bool("unregistered", r.Unregistered), zap.Error(r.Err))
		if r.Unregistered {
			stale = append(stale, r.Token)
		}
	}

	result := &ChatNotificationResult{Sent: res.SuccessCount, Failed: res.FailureCount}
	if len(stale) > 0 {
		if err := s.users.RemoveFCMTokens(ctx, after.ChatID, stale); err != nil {
			log.Warn("Failed to prune unregistered tokens", zap.Int("count", len(stale)), zap.Error(err))
		} else {
			result.Pruned = len(stale)
		}
	}
	log.Info("Chat notification sent", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed), zap.Int("pruned", result.Pruned))
	return result, nil
}
