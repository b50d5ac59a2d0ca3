package cloth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/takumi/wearlog/internal/model"
	"github.com/takumi/wearlog/internal/repository"
	"github.com/takumi/wearlog/internal/security"
	"github.com/takumi/wearlog/internal/storage"
)

// --- モック定義 ---

type mockClothRepo struct {
	createFn          func(ctx context.Context, cloth *model.Cloth) error
	deleteFn          func(ctx context.Context, clothID string) error
	findByIDAndUserFn func(ctx context.Context, clothID, userID string) (*model.Cloth, error)
	listByUserFn      func(ctx context.Context, userID string) ([]*model.Cloth, error)
	updateNameFn      func(ctx context.Context, clothID, name string) error
	deleteWithWearsFn func(ctx context.Context, clothID string) error
	countWearsFn      func(ctx context.Context, clothID string) (int, error)
	addWearFn         func(ctx context.Context, clothID string) error
}

func (m *mockClothRepo) Create(ctx context.Context, cloth *model.Cloth) error {
	if m.createFn != nil {
		return m.createFn(ctx, cloth)
	}
	return nil
}

func (m *mockClothRepo) Delete(ctx context.Context, clothID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, clothID)
	}
	return nil
}

func (m *mockClothRepo) FindByIDAndUser(ctx context.Context, clothID, userID string) (*model.Cloth, error) {
	if m.findByIDAndUserFn != nil {
		return m.findByIDAndUserFn(ctx, clothID, userID)
	}
	return &model.Cloth{ID: clothID, UserID: userID, ClothName: "シャツ"}, nil
}

func (m *mockClothRepo) ListByUser(ctx context.Context, userID string) ([]*model.Cloth, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockClothRepo) UpdateName(ctx context.Context, clothID, name string) error {
	if m.updateNameFn != nil {
		return m.updateNameFn(ctx, clothID, name)
	}
	return nil
}

func (m *mockClothRepo) DeleteWithWears(ctx context.Context, clothID string) error {
	if m.deleteWithWearsFn != nil {
		return m.deleteWithWearsFn(ctx, clothID)
	}
	return nil
}

func (m *mockClothRepo) CountWears(ctx context.Context, clothID string) (int, error) {
	if m.countWearsFn != nil {
		return m.countWearsFn(ctx, clothID)
	}
	return 0, nil
}

func (m *mockClothRepo) AddWear(ctx context.Context, clothID string) error {
	if m.addWearFn != nil {
		return m.addWearFn(ctx, clothID)
	}
	return nil
}

type mockImageStore struct {
	saveFn   func(id string, r io.Reader) error
	openFn   func(id string) (io.ReadCloser, error)
	removeFn func(id string) error
}

func (m *mockImageStore) Save(id string, r io.Reader) error {
	if m.saveFn != nil {
		return m.saveFn(id, r)
	}
	return nil
}

func (m *mockImageStore) Open(id string) (io.ReadCloser, error) {
	if m.openFn != nil {
		return m.openFn(id)
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (m *mockImageStore) Remove(id string) error {
	if m.removeFn != nil {
		return m.removeFn(id)
	}
	return nil
}

// --- compile-time interface checks ---
var _ repository.ClothRepository = (*mockClothRepo)(nil)
var _ storage.ImageStore = (*mockImageStore)(nil)

func newTestService(repo *mockClothRepo, images *mockImageStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, images, security.NewNameSanitizer(), nil, logger)
}

func errKind(t *testing.T, err error) model.Kind {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	return apiErr.Kind
}

// --- 作成フローのテスト ---

func TestCreate_Success(t *testing.T) {
	var createdRow *model.Cloth
	var savedImageID string

	repo := &mockClothRepo{
		createFn: func(ctx context.Context, cloth *model.Cloth) error {
			createdRow = cloth
			return nil
		},
	}
	images := &mockImageStore{
		saveFn: func(id string, r io.Reader) error {
			savedImageID = id
			return nil
		},
	}

	svc := newTestService(repo, images)

	cloth, err := svc.Create(context.Background(), "user-1", "  白いシャツ  ", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if cloth.ClothName != "白いシャツ" {
		t.Errorf("ClothName = %q, want sanitized %q", cloth.ClothName, "白いシャツ")
	}
	if cloth.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", cloth.UserID, "user-1")
	}
	if createdRow == nil {
		t.Fatal("row was not inserted")
	}
	if savedImageID != createdRow.ID {
		t.Errorf("image id = %q, want row id %q", savedImageID, createdRow.ID)
	}
}

func TestCreate_ImageFailure_CompensatesRow(t *testing.T) {
	var deletedID string

	repo := &mockClothRepo{
		deleteFn: func(ctx context.Context, clothID string) error {
			deletedID = clothID
			return nil
		},
	}
	images := &mockImageStore{
		saveFn: func(id string, r io.Reader) error {
			return errors.New("disk full")
		},
	}

	svc := newTestService(repo, images)

	_, err := svc.Create(context.Background(), "user-1", "シャツ", strings.NewReader("x"))
	if kind := errKind(t, err); kind != model.KindStorage {
		t.Errorf("Kind = %q, want %q", kind, model.KindStorage)
	}
	if deletedID == "" {
		t.Error("row was not compensated after image failure")
	}
}

// rollbackCounter はRollbackRecorderのテスト用実装。
type rollbackCounter struct {
	entities []string
}

func (r *rollbackCounter) RecordCreateRollback(entity string) {
	r.entities = append(r.entities, entity)
}

func TestCreate_Compensation_IsRecorded(t *testing.T) {
	recorder := &rollbackCounter{}
	repo := &mockClothRepo{}
	images := &mockImageStore{
		saveFn: func(id string, r io.Reader) error {
			return errors.New("disk full")
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, images, security.NewNameSanitizer(), recorder, logger)

	_, err := svc.Create(context.Background(), "user-1", "シャツ", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Create() should fail when image save fails")
	}
	if len(recorder.entities) != 1 || recorder.entities[0] != "cloth" {
		t.Errorf("recorded rollbacks = %v, want [cloth]", recorder.entities)
	}
}

func TestCreate_RowFailure_DoesNotWriteImage(t *testing.T) {
	imageSaved := false

	repo := &mockClothRepo{
		createFn: func(ctx context.Context, cloth *model.Cloth) error {
			return errors.New("unique violation")
		},
	}
	images := &mockImageStore{
		saveFn: func(id string, r io.Reader) error {
			imageSaved = true
			return nil
		},
	}

	svc := newTestService(repo, images)

	_, err := svc.Create(context.Background(), "user-1", "シャツ", strings.NewReader("x"))
	if kind := errKind(t, err); kind != model.KindStorage {
		t.Errorf("Kind = %q, want %q", kind, model.KindStorage)
	}
	if imageSaved {
		t.Error("image must not be written when row insertion fails")
	}
}

func TestCreate_EmptyNameAfterSanitize_IsValidationError(t *testing.T) {
	svc := newTestService(&mockClothRepo{}, &mockImageStore{})

	_, err := svc.Create(context.Background(), "user-1", "<script>alert(1)</script>", strings.NewReader("x"))
	if kind := errKind(t, err); kind != model.KindValidation {
		t.Errorf("Kind = %q, want %q", kind, model.KindValidation)
	}
}

// --- 参照のテスト ---

func TestGet_ReturnsWearCount(t *testing.T) {
	repo := &mockClothRepo{
		countWearsFn: func(ctx context.Context, clothID string) (int, error) {
			return 7, nil
		},
	}

	svc := newTestService(repo, &mockImageStore{})

	got, err := svc.Get(context.Background(), "user-1", "cloth-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.WearCount != 7 {
		t.Errorf("WearCount = %d, want 7", got.WearCount)
	}
}

func TestGet_UnownedCloth_IsNotFound(t *testing.T) {
	repo := &mockClothRepo{
		findByIDAndUserFn: func(ctx context.Context, clothID, userID string) (*model.Cloth, error) {
			return nil, nil
		},
	}

	svc := newTestService(repo, &mockImageStore{})

	_, err := svc.Get(context.Background(), "user-1", "cloth-owned-by-other")
	if kind := errKind(t, err); kind != model.KindNotFound {
		t.Errorf("Kind = %q, want %q", kind, model.KindNotFound)
	}
}

func TestList_ReturnsCounts(t *testing.T) {
	repo := &mockClothRepo{
		listByUserFn: func(ctx context.Context, userID string) ([]*model.Cloth, error) {
			return []*model.Cloth{
				{ID: "cloth-1", UserID: userID, ClothName: "シャツ"},
				{ID: "cloth-2", UserID: userID, ClothName: "ズボン"},
			}, nil
		},
		countWearsFn: func(ctx context.Context, clothID string) (int, error) {
			if clothID == "cloth-1" {
				return 3, nil
			}
			return 0, nil
		},
	}

	svc := newTestService(repo, &mockImageStore{})

	got, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].WearCount != 3 || got[1].WearCount != 0 {
		t.Errorf("counts = %d, %d, want 3, 0", got[0].WearCount, got[1].WearCount)
	}
}

// --- 更新・削除のテスト ---

func TestEdit_UpdatesNameOnly(t *testing.T) {
	var updatedName string
	imageSaved := false

	repo := &mockClothRepo{
		updateNameFn: func(ctx context.Context, clothID, name string) error {
			updatedName = name
			return nil
		},
	}
	images := &mockImageStore{
		saveFn: func(id string, r io.Reader) error {
			imageSaved = true
			return nil
		},
	}

	svc := newTestService(repo, images)

	if err := svc.Edit(context.Background(), "user-1", "cloth-1", " 新しい名前 ", nil); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if updatedName != "新しい名前" {
		t.Errorf("updated name = %q, want %q", updatedName, "新しい名前")
	}
	if imageSaved {
		t.Error("image must not be touched when image is nil")
	}
}

func TestEdit_UpdatesImageOnly(t *testing.T) {
	nameUpdated := false
	imageSaved := false

	repo := &mockClothRepo{
		updateNameFn: func(ctx context.Context, clothID, name string) error {
			nameUpdated = true
			return nil
		},
	}
	images := &mockImageStore{
		saveFn: func(id string, r io.Reader) error {
			imageSaved = true
			return nil
		},
	}

	svc := newTestService(repo, images)

	if err := svc.Edit(context.Background(), "user-1", "cloth-1", "", strings.NewReader("new-image")); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if nameUpdated {
		t.Error("name must not be touched when name is empty")
	}
	if !imageSaved {
		t.Error("image was not saved")
	}
}

func TestDelete_RemovesRowsThenImage(t *testing.T) {
	var order []string

	repo := &mockClothRepo{
		deleteWithWearsFn: func(ctx context.Context, clothID string) error {
			order = append(order, "rows")
			return nil
		},
	}
	images := &mockImageStore{
		removeFn: func(id string) error {
			order = append(order, "image")
			return nil
		},
	}

	svc := newTestService(repo, images)

	if err := svc.Delete(context.Background(), "user-1", "cloth-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(order) != 2 || order[0] != "rows" || order[1] != "image" {
		t.Errorf("order = %v, want [rows image]", order)
	}
}

func TestDelete_ImageRemovalFailure_IsNotAnError(t *testing.T) {
	images := &mockImageStore{
		removeFn: func(id string) error {
			return errors.New("permission denied")
		},
	}

	svc := newTestService(&mockClothRepo{}, images)

	if err := svc.Delete(context.Background(), "user-1", "cloth-1"); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}
}

func TestDelete_RowFailure_KeepsImage(t *testing.T) {
	imageRemoved := false

	repo := &mockClothRepo{
		deleteWithWearsFn: func(ctx context.Context, clothID string) error {
			return errors.New("deadlock detected")
		},
	}
	images := &mockImageStore{
		removeFn: func(id string) error {
			imageRemoved = true
			return nil
		},
	}

	svc := newTestService(repo, images)

	err := svc.Delete(context.Background(), "user-1", "cloth-1")
	if kind := errKind(t, err); kind != model.KindStorage {
		t.Errorf("Kind = %q, want %q", kind, model.KindStorage)
	}
	if imageRemoved {
		t.Error("image must not be removed when row deletion fails")
	}
}

func TestAddWear_UnownedCloth_IsNotFound(t *testing.T) {
	repo := &mockClothRepo{
		findByIDAndUserFn: func(ctx context.Context, clothID, userID string) (*model.Cloth, error) {
			return nil, nil
		},
	}

	svc := newTestService(repo, &mockImageStore{})

	err := svc.AddWear(context.Background(), "user-1", "cloth-1")
	if kind := errKind(t, err); kind != model.KindNotFound {
		t.Errorf("Kind = %q, want %q", kind, model.KindNotFound)
	}
}

func TestImage_OpensOwnedImage(t *testing.T) {
	images := &mockImageStore{
		openFn: func(id string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("png-bytes")), nil
		},
	}

	svc := newTestService(&mockClothRepo{}, images)

	rc, err := svc.Image(context.Background(), "user-1", "cloth-1")
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("data = %q, want %q", data, "png-bytes")
	}
}
