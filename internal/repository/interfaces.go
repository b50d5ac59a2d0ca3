// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/takumi/wearlog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Upsert はsubをキーにユーザーを作成または更新する。
	// 既存行がある場合はusername/emailを最新の値で上書きする。
	// 同一subの同時ログインが競合しないよう、単一のアトミックなUPSERTで行う。
	Upsert(ctx context.Context, sub, username, email string) (*model.User, error)

	// FindBySub はsubの完全一致でユーザーを検索する。見つからない場合はnilを返す。
	// 複数行が一致した場合は最初の1件を返す（重複は特別扱いしない）。
	FindBySub(ctx context.Context, sub string) (*model.User, error)
}

// ClothRepository は服データの永続化インターフェース。
type ClothRepository interface {
	// Create は服の行を作成する。
	Create(ctx context.Context, cloth *model.Cloth) error

	// Delete は服の行のみを削除する。作成フローの補償用。
	Delete(ctx context.Context, clothID string) error

	// FindByIDAndUser はIDと所有者の両方で服を検索する。見つからない場合はnilを返す。
	// 所有者フィルタを欠いた検索は提供しない。
	FindByIDAndUser(ctx context.Context, clothID, userID string) (*model.Cloth, error)

	// ListByUser は所有者の服一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Cloth, error)

	// UpdateName は服の名前を更新する。
	UpdateName(ctx context.Context, clothID, name string) error

	// DeleteWithWears は着用記録と服の行を同一トランザクションで削除する。
	// 行の削除が先、ファイルの削除は呼び出し側が後で行う。
	DeleteWithWears(ctx context.Context, clothID string) error

	// CountWears は服の着用回数を返す。
	CountWears(ctx context.Context, clothID string) (int, error)

	// AddWear は着用記録を1件追加する。
	AddWear(ctx context.Context, clothID string) error
}

// ItemRepository は持ち物データの永続化インターフェース。
type ItemRepository interface {
	// CreateWithInventory は持ち物の行と初期在庫移動を同一トランザクションで作成する。
	CreateWithInventory(ctx context.Context, item *model.Item, movement int) error

	// DeleteWithInventory は在庫移動と持ち物の行を削除する。作成フローの補償用。
	DeleteWithInventory(ctx context.Context, itemID string) error

	// FindByIDAndUser はIDと所有者の両方で持ち物を検索する。見つからない場合はnilを返す。
	FindByIDAndUser(ctx context.Context, itemID, userID string) (*model.Item, error)

	// ListByUser は所有者の持ち物一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Item, error)

	// UpdateName は持ち物の名前を更新する。
	UpdateName(ctx context.Context, itemID, name string) error

	// DeleteCascade は使用記録・在庫移動・タグ付け・持ち物の行を
	// 同一トランザクションで削除する。ファイルの削除は呼び出し側が後で行う。
	DeleteCascade(ctx context.Context, itemID string) error

	// CountUses は持ち物の使用回数を返す。
	CountUses(ctx context.Context, itemID string) (int, error)

	// AddUse は使用記録を1件追加する。
	AddUse(ctx context.Context, itemID string) error

	// InsertMovement は所有チェックをINSERT..SELECTに織り込んで在庫移動を記録する。
	// 持ち物が存在しないか所有者が異なる場合は何も挿入されずfalseを返す。
	InsertMovement(ctx context.Context, userID, itemID string, movement int) (bool, error)
}

// TagRepository はタグデータの永続化インターフェース。
type TagRepository interface {
	// Create はタグを作成する。
	Create(ctx context.Context, tag *model.Tag) error

	// ListNamesByUser は所有者のタグ名一覧を返す。
	ListNamesByUser(ctx context.Context, userID string) ([]string, error)

	// DeleteOwned は所有チェックの後、タグ付けとタグの行を
	// 同一トランザクションで削除する。所有していない場合はfalseを返す。
	DeleteOwned(ctx context.Context, tagID, userID string) (bool, error)

	// AddItemTag は持ち物とタグの両方を所有している場合のみタグ付けを挿入する。
	// 所有チェックはINSERT..SELECTのJOINで行う。
	AddItemTag(ctx context.Context, userID, itemID, tagID string) error

	// RemoveItemTag は所有するタグのタグ付けを削除する。
	RemoveItemTag(ctx context.Context, userID, itemID, tagID string) error

	// ListNamesByItem は所有する持ち物に付いたタグ名一覧を返す。
	ListNamesByItem(ctx context.Context, userID, itemID string) ([]string, error)
}
