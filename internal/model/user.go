// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 外部IdP（Google）が発行する安定識別子subをキーにUPSERTされる。
type User struct {
	ID        string
	Sub       string
	Username  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
