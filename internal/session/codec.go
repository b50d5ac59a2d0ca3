package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CookieName はセッションCookieの名前。
const CookieName = "session"

// MaxAge はセッションの有効期間。
// 設定値ではなく固定のポリシー値（30日）。
const MaxAge = 30 * 24 * time.Hour

// Payload はCookieに格納されるセッションの外部表現。
// creation_timeが期限判定の正であり、Storeのエントリとは独立に評価される。
type Payload struct {
	SessionKey   string    `json:"session_key"`
	CreationTime time.Time `json:"creation_time"`
}

// Expired は基準時刻nowにおいてセッションが期限切れかどうかを返す。
func (p Payload) Expired(now time.Time) bool {
	return now.Sub(p.CreationTime) > MaxAge
}

var (
	// ErrEncoding はペイロードを直列化できなかったことを示す。実質的に発生しない。
	ErrEncoding = errors.New("session: encoding failed")
	// ErrDecoding はトークンが不正な形式であることを示す。
	// 呼び出し側は「未認証」として扱い、クラッシュさせてはならない。
	ErrDecoding = errors.New("session: decoding failed")
)

// Codec はセッションペイロードとCookie値との間の変換を行う。
//
// ペイロードはJSONに直列化し、HMAC-SHA256の署名を付けてbase64urlで封緘する。
// クライアントはcreation_timeもsession_keyも偽造できない
// （改ざんされたトークンはErrDecodingになる）。
type Codec struct {
	secret []byte
}

// NewCodec は署名鍵secretを使うCodecを生成する。
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode はペイロードをCookieに格納可能な不透明トークンへ変換する。
func (c *Codec) Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + c.sign(body), nil
}

// Decode はトークンを検証してペイロードへ戻す。
// 形式不正・署名不一致・JSON不正はすべてErrDecodingとして返す。
func (c *Codec) Decode(token string) (Payload, error) {
	body, sig, found := strings.Cut(token, ".")
	if !found {
		return Payload{}, fmt.Errorf("%w: missing signature", ErrDecoding)
	}

	if !hmac.Equal([]byte(c.sign(body)), []byte(sig)) {
		return Payload{}, fmt.Errorf("%w: signature mismatch", ErrDecoding)
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	return p, nil
}

// sign はbodyに対するHMAC-SHA256署名をbase64urlで返す。
func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
