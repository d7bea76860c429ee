package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager() *JWTManager {
	return NewJWTManager(JWTConfig{SecretKey: "test-secret-key", TTL: 15 * time.Minute, Issuer: "test-issuer"})
}

func TestJWTManager_IssueAndVerify(t *testing.T) {
	m := newTestManager()

	token, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	username, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if username != "alice" {
		t.Errorf("Verify() = %q, want %q", username, "alice")
	}
}

func TestJWTManager_Verify(t *testing.T) {
	m := newTestManager()

	expired := newTestManager()
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, _ := expired.Issue("alice")

	otherSecret := NewJWTManager(JWTConfig{SecretKey: "other", Issuer: "test-issuer"})
	foreignToken, _ := otherSecret.Issue("alice")

	otherIssuer := NewJWTManager(JWTConfig{SecretKey: "test-secret-key", Issuer: "someone-else"})
	wrongIssuerToken, _ := otherIssuer.Issue("alice")

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  "test-issuer",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not.a.token", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
		{"expired", expiredToken, ErrExpiredToken},
		{"wrong secret", foreignToken, ErrInvalidToken},
		{"wrong issuer", wrongIssuerToken, ErrInvalidToken},
		{"alg none", noneToken, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			if err != tt.wantErr {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewJWTManager_DefaultTTL(t *testing.T) {
	m := NewJWTManager(JWTConfig{SecretKey: "s"})
	if m.config.TTL != 15*time.Minute {
		t.Errorf("TTL = %v, want 15m", m.config.TTL)
	}
}
