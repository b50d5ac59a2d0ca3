// Package item は持ち物・使用記録・在庫のユースケースを提供する。
package item

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/takumi/wearlog/internal/model"
	"github.com/takumi/wearlog/internal/repository"
	"github.com/takumi/wearlog/internal/saga"
	"github.com/takumi/wearlog/internal/security"
	"github.com/takumi/wearlog/internal/storage"
)

// Service は持ち物に関する操作を提供する。
// 持ち物は「DBの行 + 同じIDの画像ファイル」の対で1件をなし、
// 在庫は増減の履歴（movement）の合計として表現される。
type Service struct {
	items     repository.ItemRepository
	images    storage.ImageStore
	sanitizer security.NameSanitizer
	rollbacks RollbackRecorder
	logger    *slog.Logger
}

// RollbackRecorder は作成フローの補償削除を計測する。
type RollbackRecorder interface {
	RecordCreateRollback(entity string)
}

// NewService はServiceを生成する。rollbacksはnilでもよい。
func NewService(
	items repository.ItemRepository,
	images storage.ImageStore,
	sanitizer security.NameSanitizer,
	rollbacks RollbackRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		items:     items,
		images:    images,
		sanitizer: sanitizer,
		rollbacks: rollbacks,
		logger:    logger,
	}
}

// Create は持ち物を新規作成する。
//
// 持ち物の行と初期在庫（initialCount）を同一トランザクションで作成し、
// その後に画像ファイルを書き込む。画像の書き込みに失敗した場合は
// 作成済みの行をベストエフォートで削除する。
func (s *Service) Create(ctx context.Context, userID, name string, initialCount int, image io.Reader) (*model.Item, error) {
	name = s.sanitizer.SanitizeName(name)
	if name == "" {
		return nil, model.NewValidationError("持ち物の名前を指定してください")
	}

	item := &model.Item{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemName:  name,
		CreatedAt: time.Now(),
	}

	steps := []saga.Step{
		{
			Name: "insert item rows",
			Do: func(ctx context.Context) error {
				return s.items.CreateWithInventory(ctx, item, initialCount)
			},
			Undo: func(ctx context.Context) error {
				if s.rollbacks != nil {
					s.rollbacks.RecordCreateRollback("item")
				}
				return s.items.DeleteWithInventory(ctx, item.ID)
			},
		},
		{
			Name: "save item image",
			Do: func(ctx context.Context) error {
				return s.images.Save(item.ID, image)
			},
		},
	}

	if err := saga.Run(ctx, s.logger, steps); err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to create item: %v", err))
	}

	s.logger.Info("item created",
		slog.String("item_id", item.ID),
		slog.String("user_id", userID),
	)
	return item, nil
}

// List は所有する持ち物の一覧を使用回数つきで返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.ItemWithCount, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to list items: %v", err))
	}

	result := make([]*model.ItemWithCount, 0, len(items))
	for _, it := range items {
		count, err := s.items.CountUses(ctx, it.ID)
		if err != nil {
			return nil, model.NewStorageError(fmt.Sprintf("failed to count uses: %v", err))
		}
		result = append(result, &model.ItemWithCount{Item: *it, UseCount: count})
	}
	return result, nil
}

// Get は所有する持ち物1件を使用回数つきで返す。
// 存在しない持ち物と他人の持ち物は区別せず、どちらもNotFoundとして扱う。
func (s *Service) Get(ctx context.Context, userID, itemID string) (*model.ItemWithCount, error) {
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	count, err := s.items.CountUses(ctx, itemID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to count uses: %v", err))
	}
	return &model.ItemWithCount{Item: *item, UseCount: count}, nil
}

// Edit は持ち物の名前と画像を部分更新する。
// nameが空文字列の場合は名前を変更しない。imageがnilの場合は画像を変更しない。
func (s *Service) Edit(ctx context.Context, userID, itemID, name string, image io.Reader) error {
	if _, err := s.findOwned(ctx, userID, itemID); err != nil {
		return err
	}

	if name != "" {
		sanitized := s.sanitizer.SanitizeName(name)
		if sanitized == "" {
			return model.NewValidationError("持ち物の名前を指定してください")
		}
		if err := s.items.UpdateName(ctx, itemID, sanitized); err != nil {
			return model.NewStorageError(fmt.Sprintf("failed to update item name: %v", err))
		}
	}

	if image != nil {
		if err := s.images.Save(itemID, image); err != nil {
			return model.NewStorageError(fmt.Sprintf("failed to save item image: %v", err))
		}
	}

	return nil
}

// Delete は持ち物・使用記録・在庫移動・タグ付けをまとめて削除する。
// 行の削除を先に行い、その後に画像ファイルをベストエフォートで削除する。
func (s *Service) Delete(ctx context.Context, userID, itemID string) error {
	if _, err := s.findOwned(ctx, userID, itemID); err != nil {
		return err
	}

	if err := s.items.DeleteCascade(ctx, itemID); err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to delete item: %v", err))
	}

	if err := s.images.Remove(itemID); err != nil {
		s.logger.Warn("failed to remove item image",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("item deleted",
		slog.String("item_id", itemID),
		slog.String("user_id", userID),
	)
	return nil
}

// AddUse は持ち物の使用を1回分記録する。使用日はDB側で当日が入る。
func (s *Service) AddUse(ctx context.Context, userID, itemID string) error {
	if _, err := s.findOwned(ctx, userID, itemID); err != nil {
		return err
	}

	if err := s.items.AddUse(ctx, itemID); err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to add use: %v", err))
	}
	return nil
}

// ModifyInventory は在庫の増減を1件記録する。
// 所有チェックは挿入と同じ文に織り込まれており、
// 持ち物が存在しないか所有者が異なる場合はNotFoundを返す。
func (s *Service) ModifyInventory(ctx context.Context, userID, itemID string, movement int) error {
	inserted, err := s.items.InsertMovement(ctx, userID, itemID, movement)
	if err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to modify inventory: %v", err))
	}
	if !inserted {
		return model.NewItemNotFoundError(itemID)
	}
	return nil
}

// Image は所有する持ち物の画像を開く。クローズは呼び出し側の責任。
func (s *Service) Image(ctx context.Context, userID, itemID string) (io.ReadCloser, error) {
	if _, err := s.findOwned(ctx, userID, itemID); err != nil {
		return nil, err
	}

	rc, err := s.images.Open(itemID)
	if err != nil {
		return nil, model.NewItemNotFoundError(itemID)
	}
	return rc, nil
}

// findOwned はIDと所有者の両方で持ち物を解決する。
func (s *Service) findOwned(ctx context.Context, userID, itemID string) (*model.Item, error) {
	item, err := s.items.FindByIDAndUser(ctx, itemID, userID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to find item: %v", err))
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}
	return item, nil
}
