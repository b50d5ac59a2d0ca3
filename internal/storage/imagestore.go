// Package storage はエンティティ画像のファイルベース永続化を提供する。
//
// 画像はエンティティIDと同名のファイルとして単一のディレクトリに置かれる。
// データベース行との整合性は呼び出し側（sagaパターン）が担う。
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ImageStore は画像ファイルの保存・取得・削除のインターフェース。
type ImageStore interface {
	// Save はrの内容をidに対応するファイルへ書き込む。既存ファイルは上書きする。
	Save(id string, r io.Reader) error
	// Open はidに対応するファイルを読み取り用に開く。
	// 呼び出し側がCloseする責任を持つ。ファイルが無い場合はos.ErrNotExistを返す。
	Open(id string) (io.ReadCloser, error)
	// Remove はidに対応するファイルを削除する。
	Remove(id string) error
}

// LocalImageStore はローカルディスク上のディレクトリを使うImageStoreの実装。
type LocalImageStore struct {
	baseDir string
}

// NewLocalImageStore はbaseDirを画像置き場とするLocalImageStoreを生成する。
// ディレクトリが存在しない場合は作成する。
func NewLocalImageStore(baseDir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image folder: %w", err)
	}
	return &LocalImageStore{baseDir: baseDir}, nil
}

// Save はrの内容をidに対応するファイルへ書き込む。
// 書き込み途中の失敗時は部分ファイルを残さないよう削除を試みる。
func (s *LocalImageStore) Save(id string, r io.Reader) error {
	path := s.path(id)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write image file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close image file: %w", err)
	}

	return nil
}

// Open はidに対応するファイルを読み取り用に開く。
func (s *LocalImageStore) Open(id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return f, nil
}

// Remove はidに対応するファイルを削除する。
func (s *LocalImageStore) Remove(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}

// path はidに対応するファイルパスを返す。
// idはUUIDであり、パス要素として安全であることを前提とする。
func (s *LocalImageStore) path(id string) string {
	return filepath.Join(s.baseDir, id)
}

// compile-time interface check
var _ ImageStore = (*LocalImageStore)(nil)
