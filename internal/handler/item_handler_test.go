package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/takumi/wearlog/internal/model"
)

// --- モック定義 ---

type mockItemService struct {
	createFn          func(ctx context.Context, userID, name string, initialCount int, image io.Reader) (*model.Item, error)
	listFn            func(ctx context.Context, userID string) ([]*model.ItemWithCount, error)
	getFn             func(ctx context.Context, userID, itemID string) (*model.ItemWithCount, error)
	editFn            func(ctx context.Context, userID, itemID, name string, image io.Reader) error
	deleteFn          func(ctx context.Context, userID, itemID string) error
	addUseFn          func(ctx context.Context, userID, itemID string) error
	modifyInventoryFn func(ctx context.Context, userID, itemID string, movement int) error
	imageFn           func(ctx context.Context, userID, itemID string) (io.ReadCloser, error)
}

func (m *mockItemService) Create(ctx context.Context, userID, name string, initialCount int, image io.Reader) (*model.Item, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, name, initialCount, image)
	}
	return &model.Item{ID: "item-1", UserID: userID, ItemName: name}, nil
}

func (m *mockItemService) List(ctx context.Context, userID string) ([]*model.ItemWithCount, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockItemService) Get(ctx context.Context, userID, itemID string) (*model.ItemWithCount, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, itemID)
	}
	return &model.ItemWithCount{Item: model.Item{ID: itemID, UserID: userID}}, nil
}

func (m *mockItemService) Edit(ctx context.Context, userID, itemID, name string, image io.Reader) error {
	if m.editFn != nil {
		return m.editFn(ctx, userID, itemID, name, image)
	}
	return nil
}

func (m *mockItemService) Delete(ctx context.Context, userID, itemID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, itemID)
	}
	return nil
}

func (m *mockItemService) AddUse(ctx context.Context, userID, itemID string) error {
	if m.addUseFn != nil {
		return m.addUseFn(ctx, userID, itemID)
	}
	return nil
}

func (m *mockItemService) ModifyInventory(ctx context.Context, userID, itemID string, movement int) error {
	if m.modifyInventoryFn != nil {
		return m.modifyInventoryFn(ctx, userID, itemID, movement)
	}
	return nil
}

func (m *mockItemService) Image(ctx context.Context, userID, itemID string) (io.ReadCloser, error) {
	if m.imageFn != nil {
		return m.imageFn(ctx, userID, itemID)
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}

var _ ItemServiceInterface = (*mockItemService)(nil)

func itemTestRouter(h *ItemHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/create_item", h.Create)
	r.Get("/items", h.List)
	r.Route("/item/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/edit", h.Edit)
		r.Post("/add_use", h.AddUse)
		r.Post("/modify_inventory", h.ModifyInventory)
		r.Get("/image", h.Image)
	})
	return r
}

func TestItemCreate_Multipart(t *testing.T) {
	var gotName string
	var gotCount int

	svc := &mockItemService{
		createFn: func(ctx context.Context, userID, name string, initialCount int, image io.Reader) (*model.Item, error) {
			gotName = name
			gotCount = initialCount
			return &model.Item{ID: "item-1", UserID: userID, ItemName: name}, nil
		},
	}
	router := itemTestRouter(NewItemHandler(svc))

	body, contentType := multipartBody(t, "折りたたみ傘", []byte("png"))
	req := authedReq(httptest.NewRequest(http.MethodPost, "/create_item", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if gotName != "折りたたみ傘" {
		t.Errorf("name = %q", gotName)
	}
	// countを省略した場合は初期在庫1
	if gotCount != 1 {
		t.Errorf("initial count = %d, want 1", gotCount)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["id"] != "item-1" {
		t.Errorf("id = %v, want item-1", resp["id"])
	}
	if resp["user_id"] != "user-1" {
		t.Errorf("user_id = %v, want user-1", resp["user_id"])
	}
	if resp["count"] != float64(0) {
		t.Errorf("count = %v, want 0", resp["count"])
	}
}

func TestItemCreate_WithCount(t *testing.T) {
	var gotCount int

	svc := &mockItemService{
		createFn: func(ctx context.Context, userID, name string, initialCount int, image io.Reader) (*model.Item, error) {
			gotCount = initialCount
			return &model.Item{ID: "item-1", UserID: userID, ItemName: name}, nil
		},
	}
	router := itemTestRouter(NewItemHandler(svc))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", "乾電池")
	mw.WriteField("count", "12")
	fw, err := mw.CreateFormFile("image", "image")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("png"))
	mw.Close()

	req := authedReq(httptest.NewRequest(http.MethodPost, "/create_item", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if gotCount != 12 {
		t.Errorf("initial count = %d, want 12", gotCount)
	}
}

func TestModifyInventory_PassesMovement(t *testing.T) {
	var gotMovement int

	svc := &mockItemService{
		modifyInventoryFn: func(ctx context.Context, userID, itemID string, movement int) error {
			gotMovement = movement
			return nil
		},
	}
	router := itemTestRouter(NewItemHandler(svc))

	req := authedReq(httptest.NewRequest(http.MethodPost, "/item/item-1/modify_inventory",
		strings.NewReader(`{"movement": -2}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if gotMovement != -2 {
		t.Errorf("movement = %d, want -2", gotMovement)
	}
}

func TestModifyInventory_ZeroMovement_Returns400(t *testing.T) {
	router := itemTestRouter(NewItemHandler(&mockItemService{}))

	req := authedReq(httptest.NewRequest(http.MethodPost, "/item/item-1/modify_inventory",
		strings.NewReader(`{"movement": 0}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestModifyInventory_UnownedItem_Returns404(t *testing.T) {
	svc := &mockItemService{
		modifyInventoryFn: func(ctx context.Context, userID, itemID string, movement int) error {
			return model.NewItemNotFoundError(itemID)
		},
	}
	router := itemTestRouter(NewItemHandler(svc))

	req := authedReq(httptest.NewRequest(http.MethodPost, "/item/item-1/modify_inventory",
		strings.NewReader(`{"movement": 1}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestItemList_ReturnsUseCounts(t *testing.T) {
	svc := &mockItemService{
		listFn: func(ctx context.Context, userID string) ([]*model.ItemWithCount, error) {
			return []*model.ItemWithCount{
				{Item: model.Item{ID: "item-1", ItemName: "傘"}, UseCount: 9},
			}, nil
		},
	}
	router := itemTestRouter(NewItemHandler(svc))

	req := authedReq(httptest.NewRequest(http.MethodGet, "/items", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body []itemResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 || body[0].UseCount != 9 {
		t.Errorf("body = %+v", body)
	}
}

func TestItemDelete_Delegates(t *testing.T) {
	var gotItemID string

	svc := &mockItemService{
		deleteFn: func(ctx context.Context, userID, itemID string) error {
			gotItemID = itemID
			return nil
		},
	}
	router := itemTestRouter(NewItemHandler(svc))

	req := authedReq(httptest.NewRequest(http.MethodDelete, "/item/item-1/", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotItemID != "item-1" {
		t.Errorf("itemID = %q, want item-1", gotItemID)
	}
}
