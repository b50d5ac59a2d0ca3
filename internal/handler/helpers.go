// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/takumi/wearlog/internal/middleware"
	"github.com/takumi/wearlog/internal/model"
)

// maxMultipartMemory はマルチパートフォームをメモリに展開する上限。
const maxMultipartMemory = 10 << 20 // 10MB

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// currentUser はリクエストコンテキストから認証済みユーザーを取り出す。
// セッションミドルウェアの内側でのみ呼ばれる前提だが、
// 取り出せない場合は401を書き込んでfalseを返す。
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewUnauthenticatedError())
		return nil, false
	}
	return user, true
}
