// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizer はユーザーが入力する名前（服名・持ち物名・タグ名）から
// HTMLタグを除去する。名前は後でそのままフロントエンドに表示されるため、
// 許可リストが空のbluemondayポリシーでプレーンテキストのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NameSanitizer はユーザー入力の名前をサニタイズするインターフェース。
type NameSanitizer interface {
	// SanitizeName は入力からHTMLをすべて除去し、前後の空白を取り除いて返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeName(raw string) string
}

// nameSanitizer はNameSanitizerの実装。
// bluemondayのStrictPolicy（許可タグなし）を保持し、スレッドセーフに動作する。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerの新しいインスタンスを生成する。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は入力からHTMLをすべて除去し、前後の空白を取り除いて返す。
func (s *nameSanitizer) SanitizeName(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ NameSanitizer = (*nameSanitizer)(nil)
