// Package model はドメインモデルを定義する。
package model

import "time"

// Cloth は服を表す。画像ファイルがIDと同名でディスク上に対になる。
type Cloth struct {
	ID        string
	UserID    string
	ClothName string
	CreatedAt time.Time
}

// ClothWithCount は服と着用回数を結合した表現。一覧・詳細応答に使用する。
type ClothWithCount struct {
	Cloth
	WearCount int
}
