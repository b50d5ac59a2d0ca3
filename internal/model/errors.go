// Package model はドメインモデルを定義する。
package model

import "fmt"

// Kind はエラーの分類を表す。
// HTTPステータスへの変換はmiddleware側の変換テーブルが一括で行い、
// 各コンポーネントはKindのみを決定する。
type Kind string

const (
	// KindUnauthenticated はセッションが無い・期限切れ・解決不能な状態を表す。
	KindUnauthenticated Kind = "unauthenticated"
	// KindInvalidCredentials はログイントークンの検証失敗を表す。
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindStorage はデータベースまたはファイルシステムの障害を表す。
	KindStorage Kind = "storage"
	// KindNotFound はエンティティが存在しない、または呼び出しユーザーの所有物でない状態を表す。
	KindNotFound Kind = "not_found"
	// KindValidation はリクエスト内容の不備を表す。
	KindValidation Kind = "validation"
)

// APIError は統一エラーフォーマットを表す。
type APIError struct {
	Kind    Kind   // エラー分類
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLoginRequired      = "LOGIN_REQUIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
	ErrCodeClothNotFound      = "CLOTH_NOT_FOUND"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeTagNotFound        = "TAG_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
)

// NewUnauthenticatedError は未認証エラーを生成する。
// レスポンスには理由を含めず、一律同じメッセージを返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Kind:    KindUnauthenticated,
		Code:    ErrCodeLoginRequired,
		Message: "ログインが必要です。",
	}
}

// NewInvalidCredentialsError はログイントークン検証失敗エラーを生成する。
// トークン不正と検証器への到達不能は区別しない（同一エラークラス）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:    KindInvalidCredentials,
		Code:    ErrCodeInvalidCredentials,
		Message: "Googleアカウントを検証できませんでした。",
	}
}

// NewStorageError はデータベース・ファイルシステム障害エラーを生成する。
func NewStorageError(detail string) *APIError {
	return &APIError{
		Kind:    KindStorage,
		Code:    ErrCodeStorageFailure,
		Message: fmt.Sprintf("保存処理に失敗しました: %s", detail),
	}
}

// NewClothNotFoundError は服が見つからない場合のエラーを生成する。
// 他ユーザーの所有物への参照も同じエラーになる（存在の秘匿）。
func NewClothNotFoundError(clothID string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeClothNotFound,
		Message: fmt.Sprintf("指定された服が見つかりません: %s", clothID),
	}
}

// NewItemNotFoundError は持ち物が見つからない場合のエラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeItemNotFound,
		Message: fmt.Sprintf("指定された持ち物が見つかりません: %s", itemID),
	}
}

// NewTagNotFoundError はタグが見つからない場合のエラーを生成する。
func NewTagNotFoundError(tagID string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeTagNotFound,
		Message: fmt.Sprintf("指定されたタグが見つかりません: %s", tagID),
	}
}

// NewValidationError はリクエスト不備エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeInvalidRequest,
		Message: message,
	}
}
