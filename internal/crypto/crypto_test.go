package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestSignKnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := Sign("Jefe", []byte("what do ya want for nothing?"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Fatalf("Sign() = %s, want %s", got, want)
	}
}

func TestVerifyCheckout(t *testing.T) {
	sig := Sign("key_secret", []byte("pay_1|sub_1"))

	if err := VerifyCheckout("key_secret", "pay_1", "sub_1", sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifyCheckout("key_secret", "pay_1", "sub_1", strings.ToUpper(sig)); err != nil {
		t.Fatalf("uppercase hex rejected: %v", err)
	}
	if err := VerifyCheckout("key_secret", "pay_2", "sub_1", sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("tampered payment id: got %v, want ErrSignatureMismatch", err)
	}
	if err := VerifyCheckout("other", "pay_1", "sub_1", sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("wrong secret: got %v, want ErrSignatureMismatch", err)
	}
	if err := VerifyCheckout("", "pay_1", "sub_1", sig); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("empty secret: got %v, want ErrEmptySecret", err)
	}
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"event":"subscription.activated"}`)
	sig := Sign("whsec", body)

	if err := VerifyWebhook("whsec", body, sig); err != nil {
		t.Fatalf("valid webhook rejected: %v", err)
	}
	if err := VerifyWebhook("whsec", append(body, ' '), sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("modified body: got %v, want ErrSignatureMismatch", err)
	}
	if err := VerifyWebhook("whsec", body, ""); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("empty signature: got %v, want ErrSignatureMismatch", err)
	}
}
