package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/takumi/wearlog/internal/middleware"
	"github.com/takumi/wearlog/internal/model"
	"github.com/takumi/wearlog/internal/session"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はGoogle IDトークンを検証してセッションを発行し、
	// Cookieに格納する封緘済みトークンを返す。
	Login(ctx context.Context, rawToken string) (string, *model.User, error)
}

// LoginMetrics はログイン結果の記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type LoginMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// SecureCookie はセッションCookieにSecure属性を付けるかどうか。
	// ローカル開発（http）でのみfalseにする。
	SecureCookie bool
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginMetrics
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics LoginMetrics, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID       string `json:"id"`
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Sub:      user.Sub,
		Username: user.Username,
		Email:    user.Email,
	}
}

// Login はGoogle IDトークンによるログインを処理する。
// リクエストボディはIDトークンそのもの（JSONではない）。
// POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		middleware.WriteError(w, model.NewValidationError("リクエストボディを読み取れませんでした"))
		return
	}

	rawToken := strings.TrimSpace(string(body))
	if rawToken == "" {
		middleware.WriteError(w, model.NewValidationError("IDトークンを指定してください"))
		return
	}

	cookieValue, user, err := h.service.Login(r.Context(), rawToken)
	if err != nil {
		h.metrics.RecordLoginFailure()
		slog.Warn("login failed",
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    cookieValue,
		Path:     "/",
		MaxAge:   int(session.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.metrics.RecordLoginSuccess()
	slog.Info("login succeeded",
		slog.String("user_id", user.ID),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Success"))
}

// CheckLogin は認証済みユーザー自身の情報を返す。
// GET /api/v1/check_login
func (h *AuthHandler) CheckLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
