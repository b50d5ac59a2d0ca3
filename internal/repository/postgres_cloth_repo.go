package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/takumi/wearlog/internal/model"
)

// PostgresClothRepo はPostgreSQLを使用した服リポジトリ。
type PostgresClothRepo struct {
	db *sql.DB
}

// NewPostgresClothRepo はPostgresClothRepoを生成する。
func NewPostgresClothRepo(db *sql.DB) *PostgresClothRepo {
	return &PostgresClothRepo{db: db}
}

// Create は服の行を作成する。
func (r *PostgresClothRepo) Create(ctx context.Context, cloth *model.Cloth) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clothes (id, user_id, cloth_name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		cloth.ID, cloth.UserID, cloth.ClothName, cloth.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cloth: %w", err)
	}
	return nil
}

// Delete は服の行のみを削除する。作成フローの補償用。
func (r *PostgresClothRepo) Delete(ctx context.Context, clothID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM clothes WHERE id = $1`,
		clothID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cloth: %w", err)
	}
	return nil
}

// FindByIDAndUser はIDと所有者の両方で服を検索する。見つからない場合はnilを返す。
func (r *PostgresClothRepo) FindByIDAndUser(ctx context.Context, clothID, userID string) (*model.Cloth, error) {
	cloth := &model.Cloth{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, cloth_name, created_at
		 FROM clothes
		 WHERE id = $1 AND user_id = $2`,
		clothID, userID,
	).Scan(&cloth.ID, &cloth.UserID, &cloth.ClothName, &cloth.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cloth: %w", err)
	}

	return cloth, nil
}

// ListByUser は所有者の服一覧を作成順で返す。
func (r *PostgresClothRepo) ListByUser(ctx context.Context, userID string) ([]*model.Cloth, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, cloth_name, created_at
		 FROM clothes
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clothes: %w", err)
	}
	defer rows.Close()

	var clothes []*model.Cloth
	for rows.Next() {
		cloth := &model.Cloth{}
		if err := rows.Scan(&cloth.ID, &cloth.UserID, &cloth.ClothName, &cloth.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cloth: %w", err)
		}
		clothes = append(clothes, cloth)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clothes: %w", err)
	}

	return clothes, nil
}

// UpdateName は服の名前を更新する。
func (r *PostgresClothRepo) UpdateName(ctx context.Context, clothID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE clothes SET cloth_name = $2 WHERE id = $1`,
		clothID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to update cloth name: %w", err)
	}
	return nil
}

// DeleteWithWears は着用記録と服の行を同一トランザクションで削除する。
func (r *PostgresClothRepo) DeleteWithWears(ctx context.Context, clothID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM wears WHERE cloth_id = $1`, clothID,
	); err != nil {
		return fmt.Errorf("failed to delete wears: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM clothes WHERE id = $1`, clothID,
	); err != nil {
		return fmt.Errorf("failed to delete cloth: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CountWears は服の着用回数を返す。
func (r *PostgresClothRepo) CountWears(ctx context.Context, clothID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM wears WHERE cloth_id = $1`,
		clothID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count wears: %w", err)
	}
	return count, nil
}

// AddWear は着用記録を1件追加する。着用日はDB側のデフォルト（当日）。
func (r *PostgresClothRepo) AddWear(ctx context.Context, clothID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wears (id, cloth_id) VALUES ($1, $2)`,
		uuid.New().String(), clothID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wear: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ClothRepository = (*PostgresClothRepo)(nil)
