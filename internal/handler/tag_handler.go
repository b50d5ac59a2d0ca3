package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/takumi/wearlog/internal/middleware"
	"github.com/takumi/wearlog/internal/model"
)

// TagServiceInterface はタグハンドラーが必要とするサービスインターフェース。
type TagServiceInterface interface {
	Create(ctx context.Context, userID, name string) (*model.Tag, error)
	List(ctx context.Context, userID string) ([]string, error)
	Delete(ctx context.Context, userID, tagID string) error
	AddItemTag(ctx context.Context, userID, itemID, tagID string) error
	RemoveItemTag(ctx context.Context, userID, itemID, tagID string) error
	ListItemTags(ctx context.Context, userID, itemID string) ([]string, error)
}

// TagHandler はタグ管理のHTTPハンドラー。
type TagHandler struct {
	service TagServiceInterface
}

// NewTagHandler はTagHandlerを生成する。
func NewTagHandler(service TagServiceInterface) *TagHandler {
	return &TagHandler{service: service}
}

// createTagRequest はタグ作成リクエストのボディ。
type createTagRequest struct {
	Name string `json:"name"`
}

// itemTagRequest はタグ付け・タグ外しリクエストのボディ。
type itemTagRequest struct {
	TagID string `json:"tag_id"`
}

// Create はタグの新規作成を処理する。
// POST /api/v1/create_tag
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	tag, err := h.service.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": tag.ID})
}

// List はタグ名の一覧を返す。
// GET /api/v1/tags
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	names, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, names)
}

// Delete はタグの削除を処理する。タグ付けも同時に消える。
// DELETE /api/v1/tag/{id}
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// AddItemTag は持ち物へのタグ付けを処理する。
// POST /api/v1/item/{id}/add_tag
func (h *TagHandler) AddItemTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req itemTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TagID == "" {
		middleware.WriteError(w, model.NewValidationError("tag_idを指定してください"))
		return
	}

	if err := h.service.AddItemTag(r.Context(), user.ID, chi.URLParam(r, "id"), req.TagID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveItemTag は持ち物からのタグ外しを処理する。
// POST /api/v1/item/{id}/remove_tag
func (h *TagHandler) RemoveItemTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req itemTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TagID == "" {
		middleware.WriteError(w, model.NewValidationError("tag_idを指定してください"))
		return
	}

	if err := h.service.RemoveItemTag(r.Context(), user.ID, chi.URLParam(r, "id"), req.TagID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListItemTags は持ち物に付いたタグ名の一覧を返す。
// GET /api/v1/item/{id}/tags
func (h *TagHandler) ListItemTags(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	names, err := h.service.ListItemTags(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, names)
}
