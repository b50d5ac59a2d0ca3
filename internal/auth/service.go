package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/takumi/wearlog/internal/model"
	"github.com/takumi/wearlog/internal/repository"
	"github.com/takumi/wearlog/internal/session"
)

// Service はログインとセッション解決のビジネスロジックを提供する。
type Service struct {
	verifier TokenVerifier
	users    repository.UserRepository
	store    *session.Store
	codec    *session.Codec

	// now は現在時刻の取得関数。テストで差し替える。
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	verifier TokenVerifier,
	users repository.UserRepository,
	store *session.Store,
	codec *session.Codec,
) *Service {
	return &Service{
		verifier: verifier,
		users:    users,
		store:    store,
		codec:    codec,
		now:      time.Now,
	}
}

// Login は外部発行のIDトークンをローカルセッションへ変換する。
//
//  1. トークンをissuer/audienceに対して検証する
//  2. subをキーにユーザー行をアトミックにUPSERTする
//  3. 新しいセッションキーを生成しStoreへ登録する
//  4. {session_key, creation_time}を封緘したCookie値を返す
//
// 途中で失敗した場合のロールバックは行わない。UPSERT成功後にCookieを
// 返せなくてもユーザー行は冪等であり、次回ログインで再試行されるだけで済む。
func (s *Service) Login(ctx context.Context, rawToken string) (string, *model.User, error) {
	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		slog.Warn("id token verification failed", slog.String("error", err.Error()))
		return "", nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.Upsert(ctx, claims.Sub, claims.Name, claims.Email)
	if err != nil {
		slog.Error("failed to upsert user", slog.String("error", err.Error()))
		return "", nil, model.NewStorageError("ユーザー情報の更新")
	}

	key, err := session.GenerateKey()
	if err != nil {
		slog.Error("failed to generate session key", slog.String("error", err.Error()))
		return "", nil, model.NewStorageError("セッションの作成")
	}

	s.store.Put(key, claims.Sub)

	cookieValue, err := s.codec.Encode(session.Payload{
		SessionKey:   key,
		CreationTime: s.now(),
	})
	if err != nil {
		slog.Error("failed to encode session cookie", slog.String("error", err.Error()))
		return "", nil, model.NewStorageError("セッションCookieの作成")
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("sub", user.Sub),
	)

	return cookieValue, user, nil
}

// Authenticate はCookie値を完全なユーザーレコードへ解決する。
// 以下の順で検査し、最初の失敗で打ち切る。失敗はすべて「未認証」であり、
// データベース接続障害のみKindStorageとして区別される。
//
//  1. Cookie値が空 → 未認証
//  2. 復号失敗（改ざん・形式不正） → 未認証
//  3. creation_timeから30日超過 → 未認証（Storeのエントリは消さない。
//     Cookieが期限切れと扱われた時点で到達不能になるだけ）
//  4. Storeにキーが無い → 未認証（プロセス再起動後のケースを含む）
//  5. subがユーザーディレクトリに無い → 未認証
func (s *Service) Authenticate(ctx context.Context, cookieValue string) (*model.User, error) {
	if cookieValue == "" {
		return nil, model.NewUnauthenticatedError()
	}

	payload, err := s.codec.Decode(cookieValue)
	if err != nil {
		return nil, model.NewUnauthenticatedError()
	}

	if payload.Expired(s.now()) {
		return nil, model.NewUnauthenticatedError()
	}

	sub, ok := s.store.Get(payload.SessionKey)
	if !ok {
		return nil, model.NewUnauthenticatedError()
	}

	user, err := s.users.FindBySub(ctx, sub)
	if err != nil {
		slog.Error("failed to load user for session", slog.String("error", err.Error()))
		return nil, model.NewStorageError("ユーザー情報の取得")
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}

	return user, nil
}
