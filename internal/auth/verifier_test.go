package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// --- テスト用のトークン発行 ---

type tokenParams struct {
	issuer   string
	audience string
	sub      string
	email    string
	name     string
	expires  time.Time
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, params tokenParams) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, googleIDTokenClaims{
		Email: params.email,
		Name:  params.name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    params.issuer,
			Subject:   params.sub,
			Audience:  jwt.ClaimStrings{params.audience},
			ExpiresAt: jwt.NewNumericDate(params.expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func newTestVerifier(t *testing.T) (*GoogleVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}
	v := &GoogleVerifier{
		audience: "test-client-id",
		keyFunc: func(token *jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		},
	}
	return v, key
}

func TestVerify_ValidToken(t *testing.T) {
	v, key := newTestVerifier(t)

	raw := signTestToken(t, key, tokenParams{
		issuer:   "https://accounts.google.com",
		audience: "test-client-id",
		sub:      "google-sub-1",
		email:    "taro@example.com",
		name:     "Taro",
		expires:  time.Now().Add(time.Hour),
	})

	claims, err := v.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Sub != "google-sub-1" {
		t.Errorf("Sub = %q, want %q", claims.Sub, "google-sub-1")
	}
	if claims.Email != "taro@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "taro@example.com")
	}
	if claims.Name != "Taro" {
		t.Errorf("Name = %q, want %q", claims.Name, "Taro")
	}
}

func TestVerify_LegacyIssuerWithoutScheme(t *testing.T) {
	v, key := newTestVerifier(t)

	raw := signTestToken(t, key, tokenParams{
		issuer:   "accounts.google.com",
		audience: "test-client-id",
		sub:      "google-sub-1",
		expires:  time.Now().Add(time.Hour),
	})

	if _, err := v.Verify(context.Background(), raw); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerify_RejectsInvalidTokens(t *testing.T) {
	v, key := newTestVerifier(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}

	valid := tokenParams{
		issuer:   "https://accounts.google.com",
		audience: "test-client-id",
		sub:      "google-sub-1",
		expires:  time.Now().Add(time.Hour),
	}

	tests := []struct {
		testName string
		raw      string
	}{
		{
			testName: "garbage token",
			raw:      "not.a.jwt",
		},
		{
			testName: "wrong signing key",
			raw:      signTestToken(t, otherKey, valid),
		},
		{
			testName: "expired token",
			raw: signTestToken(t, key, tokenParams{
				issuer:   valid.issuer,
				audience: valid.audience,
				sub:      valid.sub,
				expires:  time.Now().Add(-time.Hour),
			}),
		},
		{
			testName: "wrong audience",
			raw: signTestToken(t, key, tokenParams{
				issuer:   valid.issuer,
				audience: "another-client-id",
				sub:      valid.sub,
				expires:  valid.expires,
			}),
		},
		{
			testName: "unexpected issuer",
			raw: signTestToken(t, key, tokenParams{
				issuer:   "https://evil.example.com",
				audience: valid.audience,
				sub:      valid.sub,
				expires:  valid.expires,
			}),
		},
		{
			testName: "empty sub",
			raw: signTestToken(t, key, tokenParams{
				issuer:   valid.issuer,
				audience: valid.audience,
				sub:      "",
				expires:  valid.expires,
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tt.raw); err == nil {
				t.Error("Verify() error = nil, want error")
			}
		})
	}
}

func TestVerify_RejectsSymmetricAlgorithm(t *testing.T) {
	// alg confusion対策: RS256以外は公開鍵があっても受理しない
	v, _ := newTestVerifier(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, googleIDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "google-sub-1",
			Audience:  jwt.ClaimStrings{"test-client-id"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := token.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}

	if _, err := v.Verify(context.Background(), raw); err == nil {
		t.Error("Verify() error = nil, want error")
	}
}
