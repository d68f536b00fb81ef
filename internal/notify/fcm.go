package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
)

const defaultSound = "default"

// fcmClient is satisfied by *messaging.Client.
type fcmClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender implements core.PushSender on Firebase Cloud Messaging.
type FCMSender struct {
	client fcmClient
	logger *zap.Logger
}

// NewFCMSender wraps a Firebase messaging client.
func NewFCMSender(client *messaging.Client, logger *zap.Logger) *FCMSender {
	return &FCMSender{client: client, logger: logger}
}

func androidConfig(msg core.PushMessage) *messaging.AndroidConfig {
	cfg := &messaging.AndroidConfig{
		Notification: &messaging.AndroidNotification{
			ChannelID: msg.AndroidChannelID,
			Sound:     defaultSound,
		},
	}
	if msg.HighPriority {
		cfg.Priority = "high"
		cfg.Notification.Priority = messaging.PriorityHigh
	}
	return cfg
}

func apnsConfig() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{Sound: defaultSound, ContentAvailable: false},
		},
	}
}

// SendMulticast sends msg to every token and reports per-token outcomes in token order.
func (s *FCMSender) SendMulticast(ctx context.Context, msg core.PushMessage, tokens []string) (*core.MulticastResult, error) {
	if len(tokens) == 0 {
		return &core.MulticastResult{}, nil
	}
	br, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Android:      androidConfig(msg),
		APNS:         apnsConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("fcm multicast to %d tokens: %w", len(tokens), err)
	}

	res := &core.MulticastResult{SuccessCount: br.SuccessCount, FailureCount: br.FailureCount}
	for i, r := range br.Responses {
		if i >= len(tokens) {
			break
		}
		tr := core.TokenResult{Token: tokens[i]}
		if r.Success {
			tr.MessageID = r.MessageID
		} else {
			tr.Err = r.Error
			tr.Unregistered = r.Error != nil && messaging.IsUnregistered(r.Error)
		}
		res.Responses = append(res.Responses, tr)
	}
	return res, nil
}

// SendTopic publishes msg to every device subscribed to topic.
func (s *FCMSender) SendTopic(ctx context.Context, topic string, msg core.PushMessage) (string, error) {
	id, err := s.client.Send(ctx, &messaging.Message{
		Topic:        topic,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Android:      androidConfig(msg),
		APNS:         apnsConfig(),
	})
	if err != nil {
		return "", fmt.Errorf("fcm send to topic %s: %w", topic, err)
	}
	s.logger.Debug("FCM topic message sent", zap.String("topic", topic), zap.String("messageId", id))
	return id, nil
}
