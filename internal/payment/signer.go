package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// シークレット未設定。起動時にだけ起こす（リクエスト毎には出さない）。
var ErrMissingSecret = errors.New("integrity secret is not configured")

// checkoutリクエストの完全性署名を作る。
// シークレットはAPIキーとは別物。ログに出さないこと。
type Signer struct {
	secret string
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Signer{secret: secret}, nil
}

// Signは reference‖amount‖currency‖secret のsha256を小文字hexで返す。
// プロバイダ側が同じ計算で検証するので、この並びを変えてはいけない。
func (s *Signer) Sign(reference string, amountMinor int64, currency string) string {
	payload := fmt.Sprintf("%s%d%s%s", reference, amountMinor, currency, s.secret)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
