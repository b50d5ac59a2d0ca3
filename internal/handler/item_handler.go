package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/takumi/wearlog/internal/middleware"
	"github.com/takumi/wearlog/internal/model"
)

// ItemServiceInterface は持ち物ハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	Create(ctx context.Context, userID, name string, initialCount int, image io.Reader) (*model.Item, error)
	List(ctx context.Context, userID string) ([]*model.ItemWithCount, error)
	Get(ctx context.Context, userID, itemID string) (*model.ItemWithCount, error)
	Edit(ctx context.Context, userID, itemID, name string, image io.Reader) error
	Delete(ctx context.Context, userID, itemID string) error
	AddUse(ctx context.Context, userID, itemID string) error
	ModifyInventory(ctx context.Context, userID, itemID string, movement int) error
	Image(ctx context.Context, userID, itemID string) (io.ReadCloser, error)
}

// ItemHandler は持ち物管理のHTTPハンドラー。
type ItemHandler struct {
	service ItemServiceInterface
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface) *ItemHandler {
	return &ItemHandler{service: service}
}

// itemResponse は持ち物情報のAPIレスポンス。
type itemResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ItemName string `json:"item_name"`
	UseCount int    `json:"count"`
}

func toItemResponse(it *model.ItemWithCount) itemResponse {
	return itemResponse{
		ID:       it.ID,
		UserID:   it.UserID,
		ItemName: it.ItemName,
		UseCount: it.UseCount,
	}
}

// defaultInitialCount は作成時にcountが省略された場合の初期在庫。
const defaultInitialCount = 1

// modifyInventoryRequest は在庫増減リクエストのボディ。
type modifyInventoryRequest struct {
	Movement int `json:"movement"`
}

// Create は持ち物の新規作成を処理する。
// マルチパートフォームのnameフィールドとimageファイルを受け取る。
// countフィールドで初期在庫を指定できる（省略時は1）。
// POST /api/v1/create_item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		middleware.WriteError(w, model.NewValidationError("マルチパートフォームの解析に失敗しました"))
		return
	}

	name := r.FormValue("name")

	initialCount := defaultInitialCount
	if raw := r.FormValue("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteError(w, model.NewValidationError("countには整数を指定してください"))
			return
		}
		initialCount = parsed
	}

	image, _, err := r.FormFile("image")
	if err != nil {
		middleware.WriteError(w, model.NewValidationError("画像ファイルを指定してください"))
		return
	}
	defer image.Close()

	item, err := h.service.Create(r.Context(), user.ID, name, initialCount, image)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemResponse{
		ID:       item.ID,
		UserID:   item.UserID,
		ItemName: item.ItemName,
		UseCount: 0,
	})
}

// List は持ち物の一覧を返す。
// GET /api/v1/items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	result := make([]itemResponse, 0, len(items))
	for _, it := range items {
		result = append(result, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, result)
}

// Get は持ち物1件の詳細を返す。
// GET /api/v1/item/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Edit は持ち物の名前・画像の部分更新を処理する。
// POST /api/v1/item/{id}/edit
func (h *ItemHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		middleware.WriteError(w, model.NewValidationError("マルチパートフォームの解析に失敗しました"))
		return
	}

	name := r.FormValue("name")

	var image io.Reader
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image = file
	}

	if err := h.service.Edit(r.Context(), user.ID, chi.URLParam(r, "id"), name, image); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Delete は持ち物の削除を処理する。
// DELETE /api/v1/item/{id}
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddUse は使用記録の追加を処理する。
// POST /api/v1/item/{id}/add_use
func (h *ItemHandler) AddUse(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.AddUse(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ModifyInventory は在庫の増減を処理する。
// POST /api/v1/item/{id}/modify_inventory
func (h *ItemHandler) ModifyInventory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req modifyInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.Movement == 0 {
		middleware.WriteError(w, model.NewValidationError("movementには0以外の整数を指定してください"))
		return
	}

	if err := h.service.ModifyInventory(r.Context(), user.ID, chi.URLParam(r, "id"), req.Movement); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Image は持ち物の画像を返す。
// GET /api/v1/item/{id}/image
func (h *ItemHandler) Image(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	rc, err := h.service.Image(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, rc)
}
