package session

import (
	"crypto/rand"
	"fmt"
)

// keyLength はセッションキーの固定長。
const keyLength = 32

// keyAlphabet はセッションキーに使用する英数字のアルファベット。
const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateKey は32文字のランダムな英数字セッションキーを生成する。
// 衝突耐性が目的であり、キー自体が暗号的な意味を持つ必要はない。
func GenerateKey() (string, error) {
	buf := make([]byte, keyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}

	for i, b := range buf {
		buf[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}

	return string(buf), nil
}
