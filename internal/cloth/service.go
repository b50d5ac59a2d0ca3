// Package cloth は服と着用記録のユースケースを提供する。
package cloth

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

// RollbackRecorder は作成フローの補償削除を計測する。
type RollbackRecorder interface {
	RecordCreateRollback(entity string)
}

// Service は服に関する操作を提供する。
// 服は「DBの行 + 同じIDの画像ファイル」の対で1件をなす。
type Service struct {
	clothes   repository.ClothRepository
	images    storage.ImageStore
	sanitizer security.NameSanitizer
	rollbacks RollbackRecorder
	logger    *slog.Logger
}

// NewService はServiceを生成する。rollbacksはnilでもよい。
func NewService(
	clothes repository.ClothRepository,
	images storage.ImageStore,
	sanitizer security.NameSanitizer,
	rollbacks RollbackRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		clothes:   clothes,
		images:    images,
		sanitizer: sanitizer,
		rollbacks: rollbacks,
		logger:    logger,
	}
}

// Create は服を新規作成する。
//
// DBの行を先に作成し、その後に画像ファイルを書き込む。
// 画像の書き込みに失敗した場合は作成済みの行をベストエフォートで削除し、
// 「行だけあって画像がない」状態を残さないようにする。
func (s *Service) Create(ctx context.Context, userID, name string, image io.Reader) (*model.Cloth, error) {
	name = s.sanitizer.SanitizeName(name)
	if name == "" {
		return nil, model.NewValidationError("服の名前を指定してください")
	}

	cloth := &model.Cloth{
		ID:        uuid.New().String(),
		UserID:    userID,
		ClothName: name,
		CreatedAt: time.Now(),
	}

	steps := []saga.Step{
		{
			Name: "insert cloth row",
			Do: func(ctx context.Context) error {
				return s.clothes.Create(ctx, cloth)
			},
			Undo: func(ctx context.Context) error {
				if s.rollbacks != nil {
					s.rollbacks.RecordCreateRollback("cloth")
				}
				return s.clothes.Delete(ctx, cloth.ID)
			},
		},
		{
			Name: "save cloth image",
			Do: func(ctx context.Context) error {
				return s.images.Save(cloth.ID, image)
			},
		},
	}

	if err := saga.Run(ctx, s.logger, steps); err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to create cloth: %v", err))
	}

	s.logger.Info("cloth created",
		slog.String("cloth_id", cloth.ID),
		slog.String("user_id", userID),
	)
	return cloth, nil
}

// List は所有する服の一覧を着用回数つきで返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.ClothWithCount, error) {
	clothes, err := s.clothes.ListByUser(ctx, userID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to list clothes: %v", err))
	}

	result := make([]*model.ClothWithCount, 0, len(clothes))
	for _, c := range clothes {
		count, err := s.clothes.CountWears(ctx, c.ID)
		if err != nil {
			return nil, model.NewStorageError(fmt.Sprintf("failed to count wears: %v", err))
		}
		result = append(result, &model.ClothWithCount{Cloth: *c, WearCount: count})
	}
	return result, nil
}

// Get は所有する服1件を着用回数つきで返す。
// 存在しない服と他人の服は区別せず、どちらもNotFoundとして扱う。
func (s *Service) Get(ctx context.Context, userID, clothID string) (*model.ClothWithCount, error) {
	cloth, err := s.findOwned(ctx, userID, clothID)
	if err != nil {
		return nil, err
	}

	count, err := s.clothes.CountWears(ctx, clothID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to count wears: %v", err))
	}
	return &model.ClothWithCount{Cloth: *cloth, WearCount: count}, nil
}

// Edit は服の名前と画像を部分更新する。
// nameが空文字列の場合は名前を変更しない。imageがnilの場合は画像を変更しない。
func (s *Service) Edit(ctx context.Context, userID, clothID, name string, image io.Reader) error {
	if _, err := s.findOwned(ctx, userID, clothID); err != nil {
		return err
	}

	if name != "" {
		sanitized := s.sanitizer.SanitizeName(name)
		if sanitized == "" {
			return model.NewValidationError("服の名前を指定してください")
		}
		if err := s.clothes.UpdateName(ctx, clothID, sanitized); err != nil {
			return model.NewStorageError(fmt.Sprintf("failed to update cloth name: %v", err))
		}
	}

	if image != nil {
		if err := s.images.Save(clothID, image); err != nil {
			return model.NewStorageError(fmt.Sprintf("failed to save cloth image: %v", err))
		}
	}

	return nil
}

// Delete は服と着用記録をまとめて削除する。
// 行の削除を先に行い、その後に画像ファイルをベストエフォートで削除する。
// ファイルの削除失敗でエラーにはしない（孤立ファイルは許容する）。
func (s *Service) Delete(ctx context.Context, userID, clothID string) error {
	if _, err := s.findOwned(ctx, userID, clothID); err != nil {
		return err
	}

	if err := s.clothes.DeleteWithWears(ctx, clothID); err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to delete cloth: %v", err))
	}

	if err := s.images.Remove(clothID); err != nil {
		s.logger.Warn("failed to remove cloth image",
			slog.String("cloth_id", clothID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("cloth deleted",
		slog.String("cloth_id", clothID),
		slog.String("user_id", userID),
	)
	return nil
}

// AddWear は服の着用を1回分記録する。着用日はDB側で当日が入る。
func (s *Service) AddWear(ctx context.Context, userID, clothID string) error {
	if _, err := s.findOwned(ctx, userID, clothID); err != nil {
		return err
	}

	if err := s.clothes.AddWear(ctx, clothID); err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to add wear: %v", err))
	}
	return nil
}

// Image は所有する服の画像を開く。クローズは呼び出し側の責任。
func (s *Service) Image(ctx context.Context, userID, clothID string) (io.ReadCloser, error) {
	if _, err := s.findOwned(ctx, userID, clothID); err != nil {
		return nil, err
	}

	rc, err := s.images.Open(clothID)
	if err != nil {
		return nil, model.NewClothNotFoundError(clothID)
	}
	return rc, nil
}

// findOwned はIDと所有者の両方で服を解決する。
func (s *Service) findOwned(ctx context.Context, userID, clothID string) (*model.Cloth, error) {
	cloth, err := s.clothes.FindByIDAndUser(ctx, clothID, userID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to find cloth: %v", err))
	}
	if cloth == nil {
		return nil, model.NewClothNotFoundError(clothID)
	}
	return cloth, nil
}
