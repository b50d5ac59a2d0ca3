// Package tag は持ち物のタグ付けのユースケースを提供する。
package tag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/takumi/wearlog/internal/model"
	"github.com/takumi/wearlog/internal/repository"
	"github.com/takumi/wearlog/internal/security"
)

// Service はタグに関する操作を提供する。
type Service struct {
	tags      repository.TagRepository
	sanitizer security.NameSanitizer
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(tags repository.TagRepository, sanitizer security.NameSanitizer, logger *slog.Logger) *Service {
	return &Service{
		tags:      tags,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Create はタグを新規作成する。
func (s *Service) Create(ctx context.Context, userID, name string) (*model.Tag, error) {
	name = s.sanitizer.SanitizeName(name)
	if name == "" {
		return nil, model.NewValidationError("タグの名前を指定してください")
	}

	tag := &model.Tag{
		ID:      uuid.New().String(),
		UserID:  userID,
		TagName: name,
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to create tag: %v", err))
	}
	return tag, nil
}

// List は所有するタグ名の一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]string, error) {
	names, err := s.tags.ListNamesByUser(ctx, userID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to list tags: %v", err))
	}
	return names, nil
}

// Delete はタグとそのタグ付けをまとめて削除する。
// 存在しないタグと他人のタグは区別せず、どちらもNotFoundとして扱う。
func (s *Service) Delete(ctx context.Context, userID, tagID string) error {
	deleted, err := s.tags.DeleteOwned(ctx, tagID, userID)
	if err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to delete tag: %v", err))
	}
	if !deleted {
		return model.NewTagNotFoundError(tagID)
	}
	return nil
}

// AddItemTag は持ち物にタグを付ける。重複したタグ付けは黙って無視する。
// 所有チェックは挿入と同じ文に織り込まれている。
func (s *Service) AddItemTag(ctx context.Context, userID, itemID, tagID string) error {
	if err := s.tags.AddItemTag(ctx, userID, itemID, tagID); err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to add item tag: %v", err))
	}
	return nil
}

// RemoveItemTag は持ち物からタグを外す。付いていないタグを外してもエラーにしない。
func (s *Service) RemoveItemTag(ctx context.Context, userID, itemID, tagID string) error {
	if err := s.tags.RemoveItemTag(ctx, userID, itemID, tagID); err != nil {
		return model.NewStorageError(fmt.Sprintf("failed to remove item tag: %v", err))
	}
	return nil
}

// ListItemTags は所有する持ち物に付いたタグ名の一覧を返す。
func (s *Service) ListItemTags(ctx context.Context, userID, itemID string) ([]string, error) {
	names, err := s.tags.ListNamesByItem(ctx, userID, itemID)
	if err != nil {
		return nil, model.NewStorageError(fmt.Sprintf("failed to list item tags: %v", err))
	}
	return names, nil
}
