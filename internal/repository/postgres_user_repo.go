package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/takumi/wearlog/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Upsert はsubをキーにユーザーを作成または更新する。
// 読み取り後書き込みではなく単一のINSERT .. ON CONFLICTで行い、
// 同一subの同時ログインでも行が分裂しないことを保証する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, sub, username, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, sub, username, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (sub) DO UPDATE
		   SET username = EXCLUDED.username,
		       email = EXCLUDED.email,
		       updated_at = now()
		 RETURNING id, sub, username, email, created_at, updated_at`,
		uuid.New().String(), sub, username, email,
	).Scan(&user.ID, &user.Sub, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// FindBySub はsubの完全一致でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindBySub(ctx context.Context, sub string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sub, username, email, created_at, updated_at
		 FROM users WHERE sub = $1 LIMIT 1`,
		sub,
	).Scan(&user.ID, &user.Sub, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by sub: %w", err)
	}

	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
