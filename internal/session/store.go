// Package session はログインセッションの保持・符号化を提供する。
//
// セッションはプロセス内のマップのみに存在し、永続化しない。
// プロセス再起動は全セッションの失効を意味する（設計上の揮発性）。
package session

import "sync"

// Store はセッションキーからユーザーのsubへの対応を保持する。
//
// 全操作を単一のMutexで直列化する。操作はO(1)でロック保持期間は短く、
// I/O待ちをまたいでロックを保持することはない。
type Store struct {
	mu       sync.Mutex
	sessions map[string]string
}

// NewStore は空のStoreを生成する。
// プロセス起動時に1回だけ生成し、必要とするコンポーネントへ注入する。
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]string),
	}
}

// Put はキーとsubの対応を無条件に登録する。
// キー衝突時は上書きになるが、32文字のランダム英数字では実質的に起こらない。
func (s *Store) Put(key, sub string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = sub
}

// Get はキーに対応するsubを返す。
// 不在はエラーではなく「セッションなし」という通常の結果であり、okで表す。
func (s *Store) Get(key string) (sub string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok = s.sessions[key]
	return sub, ok
}

// Len は現在保持しているセッション数を返す。テストおよびメトリクス用。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
