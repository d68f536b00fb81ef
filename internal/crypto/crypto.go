package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrSignatureMismatch is returned when a provided signature does not match the expected one.
var ErrSignatureMismatch = errors.New("signature mismatch")

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("signing secret is empty")

// Sign returns the lowercase hex HMAC-SHA256 of payload keyed by secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a hex HMAC-SHA256 signature over payload in constant time.
// Signature hex is compared case-insensitively.
func Verify(secret string, payload []byte, signature string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	expected := Sign(secret, payload)
	given := strings.ToLower(strings.TrimSpace(signature))
	if !hmac.Equal([]byte(expected), []byte(given)) {
		return ErrSignatureMismatch
	}
	return nil
}

// CheckoutPayload builds the string Razorpay signs after a subscription checkout:
// "{paymentId}|{subscriptionId}".
func CheckoutPayload(paymentID, subscriptionID string) []byte {
	return []byte(paymentID + "|" + subscriptionID)
}

// VerifyCheckout verifies the signature returned to the client by a subscription checkout.
func VerifyCheckout(keySecret, paymentID, subscriptionID, signature string) error {
	return Verify(keySecret, CheckoutPayload(paymentID, subscriptionID), signature)
}

// VerifyWebhook verifies the X-Razorpay-Signature header against the raw request body.
func VerifyWebhook(webhookSecret string, body []byte, signature string) error {
	return Verify(webhookSecret, body, signature)
}
