package models

// User is the users/{uid} document as far as this service reads it.
type User struct {
	ID           string                 `json:"id" firestore:"-"` // Firebase Auth UID, also the document ID
	Subscription *SubscriptionSnapshot  `json:"subscription,omitempty" firestore:"subscription,omitempty"`
	FCMTokens    map[string]interface{} `json:"-" firestore:"fcmTokens,omitempty"`
}

// Tokens returns the non-empty device tokens registered for the user.
func (u *User) Tokens() []string {
	if u == nil {
		return nil
	}
	tokens := make([]string, 0, len(u.FCMTokens))
	for token := range u.FCMTokens {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
