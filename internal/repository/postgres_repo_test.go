package repository

import (
	"testing"
)

// 各Postgres実装が対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ ClothRepository = (*PostgresClothRepo)(nil)
	var _ ItemRepository = (*PostgresItemRepo)(nil)
	var _ TagRepository = (*PostgresTagRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresClothRepo(nil) == nil {
		t.Fatal("expected non-nil cloth repo")
	}
	if NewPostgresItemRepo(nil) == nil {
		t.Fatal("expected non-nil item repo")
	}
	if NewPostgresTagRepo(nil) == nil {
		t.Fatal("expected non-nil tag repo")
	}
}
