package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/takumi/wearlog/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
type ErrorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// kindStatus はエラー分類からHTTPステータスへの唯一の変換テーブル。
// 分類とステータスの対応をここ以外に書いてはならない。
var kindStatus = map[model.Kind]int{
	model.KindUnauthenticated:    http.StatusUnauthorized,
	model.KindInvalidCredentials: http.StatusInternalServerError,
	model.KindStorage:            http.StatusInternalServerError,
	model.KindNotFound:           http.StatusNotFound,
	model.KindValidation:         http.StatusBadRequest,
}

// StatusForKind はエラー分類に対応するHTTPステータスを返す。
// 未知の分類は500として扱う。
func StatusForKind(kind model.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError はエラーを統一フォーマットでHTTPレスポンスに書き込む。
// *model.APIError以外のエラーは詳細をログのみに記録し、
// ユーザーには一般的な500レスポンスを返す。
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unexpected error",
			slog.String("error", err.Error()),
		)
		apiErr = model.NewStorageError("内部エラーが発生しました")
	}

	writeErrorResponse(w, StatusForKind(apiErr.Kind), apiErr)
}

// writeErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func writeErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}
