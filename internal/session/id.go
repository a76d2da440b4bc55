package session

import (
	crand "crypto/rand"
	"math/rand/v2"
	"strings"
)

// セッションIDの形式: "session:" + 英小文字・数字8文字
const (
	KeyPrefix  = "session:"
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8
)

// newRand は crypto/rand でシードした ChaCha8 生成器を返します。
// 生成器は Issue 呼び出しごとに作り、ゴルーチン間で共有しません。
func newRand() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, err
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}

// generateID は候補となるセッションキーを1つ作ります。
func generateID(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(len(KeyPrefix) + idLength)
	b.WriteString(KeyPrefix)
	for i := 0; i < idLength; i++ {
		b.WriteByte(idAlphabet[rng.IntN(len(idAlphabet))])
	}
	return b.String()
}

// IsValidID はセッションキーの形式を検証します。
func IsValidID(id string) bool {
	if len(id) != len(KeyPrefix)+idLength || !strings.HasPrefix(id, KeyPrefix) {
		return false
	}
	for _, c := range id[len(KeyPrefix):] {
		if !strings.ContainsRune(idAlphabet, c) {
			return false
		}
	}
	return true
}
