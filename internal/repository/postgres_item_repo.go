package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/takumi/wearlog/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した持ち物リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// CreateWithInventory は持ち物の行と初期在庫移動を同一トランザクションで作成する。
func (r *PostgresItemRepo) CreateWithInventory(ctx context.Context, item *model.Item, movement int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, user_id, item_name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		item.ID, item.UserID, item.ItemName, item.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO item_inventory (id, item_id, movement, recorded_at)
		 VALUES ($1, $2, $3, now())`,
		uuid.New().String(), item.ID, movement,
	); err != nil {
		return fmt.Errorf("failed to insert inventory movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteWithInventory は在庫移動と持ち物の行を削除する。作成フローの補償用。
func (r *PostgresItemRepo) DeleteWithInventory(ctx context.Context, itemID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_inventory WHERE item_id = $1`, itemID,
	); err != nil {
		return fmt.Errorf("failed to delete inventory movements: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE id = $1`, itemID,
	); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByIDAndUser はIDと所有者の両方で持ち物を検索する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByIDAndUser(ctx context.Context, itemID, userID string) (*model.Item, error) {
	item := &model.Item{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, item_name, created_at
		 FROM items
		 WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	).Scan(&item.ID, &item.UserID, &item.ItemName, &item.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	return item, nil
}

// ListByUser は所有者の持ち物一覧を作成順で返す。
func (r *PostgresItemRepo) ListByUser(ctx context.Context, userID string) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, item_name, created_at
		 FROM items
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item := &model.Item{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.ItemName, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// UpdateName は持ち物の名前を更新する。
func (r *PostgresItemRepo) UpdateName(ctx context.Context, itemID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET item_name = $2 WHERE id = $1`,
		itemID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to update item name: %w", err)
	}
	return nil
}

// DeleteCascade は使用記録・在庫移動・タグ付け・持ち物の行を
// 同一トランザクションで削除する。
func (r *PostgresItemRepo) DeleteCascade(ctx context.Context, itemID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM uses WHERE item_id = $1`, itemID,
	); err != nil {
		return fmt.Errorf("failed to delete uses: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_inventory WHERE item_id = $1`, itemID,
	); err != nil {
		return fmt.Errorf("failed to delete inventory movements: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_tags WHERE item_id = $1`, itemID,
	); err != nil {
		return fmt.Errorf("failed to delete item tags: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE id = $1`, itemID,
	); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CountUses は持ち物の使用回数を返す。
func (r *PostgresItemRepo) CountUses(ctx context.Context, itemID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM uses WHERE item_id = $1`,
		itemID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count uses: %w", err)
	}
	return count, nil
}

// AddUse は使用記録を1件追加する。使用日はDB側のデフォルト（当日）。
func (r *PostgresItemRepo) AddUse(ctx context.Context, itemID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO uses (id, item_id) VALUES ($1, $2)`,
		uuid.New().String(), itemID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert use: %w", err)
	}
	return nil
}

// InsertMovement は所有チェックをINSERT..SELECTに織り込んで在庫移動を記録する。
// 所有していない持ち物に対しては1行も挿入されない。
func (r *PostgresItemRepo) InsertMovement(ctx context.Context, userID, itemID string, movement int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO item_inventory (id, item_id, movement, recorded_at)
		 SELECT $1, id, $2, now()
		 FROM items
		 WHERE id = $3 AND user_id = $4`,
		uuid.New().String(), movement, itemID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert inventory movement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
