// Package auth はGoogle IDトークンによるログインとセッション解決を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// googleJWKSURL はGoogleの署名鍵（JWK Set）の配布URL。
const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// googleIssuers はGoogleが発行するIDトークンのiss値。歴史的に2形式ある。
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Claims はIDトークンから取り出す本人性の主張。
type Claims struct {
	Sub   string
	Email string
	Name  string
}

// TokenVerifier は外部発行のIDトークンを検証するインターフェース。
type TokenVerifier interface {
	// Verify はトークンの署名・有効期限・発行者・対象者を検証し、
	// 主張された本人性を返す。検証失敗の種別は区別しない。
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// googleIDTokenClaims はGoogle IDトークンのクレーム構造。
type googleIDTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// GoogleVerifier はGoogleのJWK Setで署名検証を行うTokenVerifierの実装。
type GoogleVerifier struct {
	audience string
	keyFunc  jwt.Keyfunc
}

// NewGoogleVerifier はGoogleVerifierを生成する。
// JWK Setはバックグラウンドで定期更新され、ctxのキャンセルで停止する。
// clientIDはトークンのaud検証に使用する。
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	jwks, err := keyfunc.Get(googleJWKSURL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			slog.Warn("failed to refresh google jwks", slog.String("error", err.Error()))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google jwks: %w", err)
	}

	return &GoogleVerifier{
		audience: clientID,
		keyFunc:  jwks.Keyfunc,
	}, nil
}

// Verify はGoogle IDトークンを検証し、sub/email/nameを取り出す。
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	claims := &googleIDTokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, v.keyFunc,
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("id token is not valid")
	}

	if !validIssuer(claims.Issuer) {
		return nil, fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("empty sub in id token")
	}

	return &Claims{
		Sub:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// validIssuer はissがGoogleの発行者のいずれかであるかを返す。
func validIssuer(iss string) bool {
	for _, want := range googleIssuers {
		if iss == want {
			return true
		}
	}
	return false
}

// compile-time interface check
var _ TokenVerifier = (*GoogleVerifier)(nil)
