package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/takumi/wearlog/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// Create はタグを作成する。
func (r *PostgresTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, tag_name) VALUES ($1, $2, $3)`,
		tag.ID, tag.UserID, tag.TagName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// ListNamesByUser は所有者のタグ名一覧を返す。
func (r *PostgresTagRepo) ListNamesByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag_name FROM tags WHERE user_id = $1 ORDER BY tag_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return names, nil
}

// DeleteOwned は所有チェックの後、タグ付けとタグの行を同一トランザクションで削除する。
// 所有していない（または存在しない）場合はfalseを返し、何も削除しない。
func (r *PostgresTagRepo) DeleteOwned(ctx context.Context, tagID, userID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owned string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE id = $1 AND user_id = $2`,
		tagID, userID,
	).Scan(&owned)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag ownership: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_tags WHERE tag_id = $1`, tagID,
	); err != nil {
		return false, fmt.Errorf("failed to delete item tags: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tags WHERE id = $1`, tagID,
	); err != nil {
		return false, fmt.Errorf("failed to delete tag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// AddItemTag は持ち物とタグの両方を所有している場合のみタグ付けを挿入する。
// 所有チェックはINSERT..SELECTのJOINで行い、条件を満たさなければ何も挿入しない。
func (r *PostgresTagRepo) AddItemTag(ctx context.Context, userID, itemID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO item_tags (item_id, tag_id)
		 SELECT i.id, t.id
		 FROM items i
		 JOIN tags t ON t.user_id = i.user_id
		 WHERE i.id = $1 AND t.id = $2 AND i.user_id = $3
		 ON CONFLICT DO NOTHING`,
		itemID, tagID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add item tag: %w", err)
	}
	return nil
}

// RemoveItemTag は所有するタグのタグ付けを削除する。
func (r *PostgresTagRepo) RemoveItemTag(ctx context.Context, userID, itemID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM item_tags
		 WHERE item_id = $1
		   AND tag_id IN (
		     SELECT id FROM tags WHERE id = $2 AND user_id = $3
		   )`,
		itemID, tagID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove item tag: %w", err)
	}
	return nil
}

// ListNamesByItem は所有する持ち物に付いたタグ名一覧を返す。
func (r *PostgresTagRepo) ListNamesByItem(ctx context.Context, userID, itemID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.tag_name
		 FROM items i
		 JOIN item_tags it ON it.item_id = i.id
		 JOIN tags t ON t.id = it.tag_id
		 WHERE i.id = $1 AND i.user_id = $2
		 ORDER BY t.tag_name`,
		itemID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list item tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item tags: %w", err)
	}

	return names, nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)
