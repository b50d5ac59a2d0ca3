package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/takumi/wearlog/internal/middleware"
	"github.com/takumi/wearlog/internal/model"
)

// ClothServiceInterface は服ハンドラーが必要とするサービスインターフェース。
type ClothServiceInterface interface {
	Create(ctx context.Context, userID, name string, image io.Reader) (*model.Cloth, error)
	List(ctx context.Context, userID string) ([]*model.ClothWithCount, error)
	Get(ctx context.Context, userID, clothID string) (*model.ClothWithCount, error)
	Edit(ctx context.Context, userID, clothID, name string, image io.Reader) error
	Delete(ctx context.Context, userID, clothID string) error
	AddWear(ctx context.Context, userID, clothID string) error
	Image(ctx context.Context, userID, clothID string) (io.ReadCloser, error)
}

// ClothHandler は服管理のHTTPハンドラー。
type ClothHandler struct {
	service ClothServiceInterface
}

// NewClothHandler はClothHandlerを生成する。
func NewClothHandler(service ClothServiceInterface) *ClothHandler {
	return &ClothHandler{service: service}
}

// clothResponse は服情報のAPIレスポンス。
type clothResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ClothName string `json:"cloth_name"`
	WearCount int    `json:"count"`
}

func toClothResponse(c *model.ClothWithCount) clothResponse {
	return clothResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		ClothName: c.ClothName,
		WearCount: c.WearCount,
	}
}

// Create は服の新規作成を処理する。
// マルチパートフォームのnameフィールドとimageファイルを受け取る。
// POST /api/v1/create_cloth
func (h *ClothHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		middleware.WriteError(w, model.NewValidationError("マルチパートフォームの解析に失敗しました"))
		return
	}

	name := r.FormValue("name")

	image, _, err := r.FormFile("image")
	if err != nil {
		middleware.WriteError(w, model.NewValidationError("画像ファイルを指定してください"))
		return
	}
	defer image.Close()

	cloth, err := h.service.Create(r.Context(), user.ID, name, image)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, clothResponse{
		ID:        cloth.ID,
		UserID:    cloth.UserID,
		ClothName: cloth.ClothName,
		WearCount: 0,
	})
}

// List は服の一覧を返す。
// GET /api/v1/clothes
func (h *ClothHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	clothes, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	result := make([]clothResponse, 0, len(clothes))
	for _, c := range clothes {
		result = append(result, toClothResponse(c))
	}
	writeJSON(w, http.StatusOK, result)
}

// Get は服1件の詳細を返す。
// GET /api/v1/cloth/{id}
func (h *ClothHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cloth, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClothResponse(cloth))
}

// Edit は服の名前・画像の部分更新を処理する。
// nameフィールドもimageファイルも省略可能。
// POST /api/v1/cloth/{id}/edit
func (h *ClothHandler) Edit(w http.ResponseWriter, r *http.Request) {
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

// Delete は服の削除を処理する。
// DELETE /api/v1/cloth/{id}
func (h *ClothHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// AddWear は着用記録の追加を処理する。
// POST /api/v1/cloth/{id}/add_wear
func (h *ClothHandler) AddWear(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.AddWear(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Image は服の画像を返す。
// GET /api/v1/cloth/{id}/image
func (h *ClothHandler) Image(w http.ResponseWriter, r *http.Request) {
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
