package models

import (
	"strconv"
	"strings"
)

// ChatMessage is the part of chats/{chatId}/messages/{messageId} the notifier reads.
type ChatMessage struct {
	ChatID    string
	MessageID string
	Sender    string
	Text      string
	Approved  bool
	ParentID  string
}

// DocumentEventData is the JSON form of a Firestore document update event delivered by Eventarc.
type DocumentEventData struct {
	Value    *EventDocument `json:"value,omitempty"`
	OldValue *EventDocument `json:"oldValue,omitempty"`
}

// EventDocument is a Firestore document in REST representation.
type EventDocument struct {
	Name   string                `json:"name"`
	Fields map[string]EventValue `json:"fields"`
}

// EventValue is a typed Firestore value. Only the kinds chat messages use are decoded.
type EventValue struct {
	StringValue    *string `json:"stringValue,omitempty"`
	BooleanValue   *bool   `json:"booleanValue,omitempty"`
	IntegerValue   *string `json:"integerValue,omitempty"` // int64 values are JSON strings
	TimestampValue *string `json:"timestampValue,omitempty"`
	NullValue      *string `json:"nullValue,omitempty"`
}

// String returns the value rendered as text, or "" for null and unsupported kinds.
func (v EventValue) String() string {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		return *v.IntegerValue
	case v.BooleanValue != nil:
		return strconv.FormatBool(*v.BooleanValue)
	case v.TimestampValue != nil:
		return *v.TimestampValue
	}
	return ""
}

// Bool is true only for an explicit boolean true.
func (v EventValue) Bool() bool {
	return v.BooleanValue != nil && *v.BooleanValue
}

// ChatMessage decodes the document. A nil document yields a zero message.
func (d *EventDocument) ChatMessage() ChatMessage {
	if d == nil {
		return ChatMessage{}
	}
	chatID, messageID := ParseMessagePath(d.Name)
	return ChatMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Sender:    d.Fields["sender"].String(),
		Text:      d.Fields["text"].String(),
		Approved:  d.Fields["approved"].Bool(),
		ParentID:  d.Fields["parentId"].String(),
	}
}

// ParseMessagePath extracts chatId and messageId from a resource name ending in
// chats/{chatId}/messages/{messageId}. Both are empty when the name does not match.
func ParseMessagePath(name string) (chatID, messageID string) {
	parts := strings.Split(strings.Trim(name, "/"), "/")
	for i := len(parts) - 4; i >= 0; i-- {
		if parts[i] == "chats" && parts[i+2] == "messages" && parts[i+1] != "" && parts[i+3] != "" {
			return parts[i+1], parts[i+3]
		}
	}
	return "", ""
}
