package hs256

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestValidator(t *testing.T, cfg string) *validator {
	t.Helper()
	v, err := NewValidatorFromJSON(json.RawMessage(cfg))
	if err != nil {
		t.Fatalf("NewValidatorFromJSON: %v", err)
	}
	return v.(*validator)
}

func TestValidToken(t *testing.T) {
	v := newTestValidator(t, `{"secret":"`+testSecret+`"}`)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.org",
		"scope": "scan jobs",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})

	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "user@example.org" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.HasScope("jobs") {
		t.Error("scope jobs missing")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	v := newTestValidator(t, `{"secret":"`+testSecret+`"}`)
	token := signToken(t, "other-secret-other-secret-other!", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Validate(token); err == nil {
		t.Error("token signed with a different secret should fail")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	v := newTestValidator(t, `{"secret":"`+testSecret+`","leewaySeconds":1}`)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := v.Validate(token); err == nil {
		t.Error("expired token should fail")
	}
}

func TestIssuerAndAudienceEnforced(t *testing.T) {
	v := newTestValidator(t, `{"secret":"`+testSecret+`","issuer":"scanq-idp","audience":"scanq"}`)

	good := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"iss": "scanq-idp",
		"aud": "scanq",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Validate(good); err != nil {
		t.Errorf("good token rejected: %v", err)
	}

	badIss := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"iss": "someone-else",
		"aud": "scanq",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Validate(badIss); err == nil {
		t.Error("wrong issuer should fail")
	}
}

func TestNoneAlgorithmRejected(t *testing.T) {
	v := newTestValidator(t, `{"secret":"`+testSecret+`"}`)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Validate(s); err == nil {
		t.Error("alg=none must be rejected")
	}
}

func TestMissingSecretRejected(t *testing.T) {
	if _, err := NewValidatorFromJSON(json.RawMessage(`{}`)); err == nil {
		t.Error("missing secret should be rejected at construction")
	}
}
