// Package model はドメインモデルを定義する。
package model

import "time"

// Item は服以外の持ち物を表す。画像ファイルがIDと同名でディスク上に対になる。
type Item struct {
	ID        string
	UserID    string
	ItemName  string
	CreatedAt time.Time
}

// ItemWithCount は持ち物と使用回数を結合した表現。一覧・詳細応答に使用する。
type ItemWithCount struct {
	Item
	UseCount int
}

// Tag はユーザーが定義する持ち物の分類ラベルを表す。
type Tag struct {
	ID      string
	UserID  string
	TagName string
}
