package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// argon2id のパラメータ（OWASP 推奨値）
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// 保存済みハッシュから読むパラメータの上限
const (
	maxVerifyMemory     = 1 << 22
	maxVerifyIterations = 64
)

var (
	// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合に返されます。
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrCorruptHash は保存済みハッシュが解釈できない場合に返されます。
	ErrCorruptHash = errors.New("stored password hash is corrupt")
)

// PasswordVault はパスワードのハッシュ化と検証を行います。
type PasswordVault interface {
	// Hash は PHC 形式のハッシュと、base64 エンコードしたソルトを返します。
	Hash(password string) (hash, salt string, err error)
	// Verify は一致すれば (true, nil)、不一致なら (false, nil) を返します。
	Verify(password, encodedHash string) (bool, error)
}

// Vault は argon2id による PasswordVault の実装です。
type Vault struct{}

// NewVault は Vault を作成します。
func NewVault() *Vault {
	return &Vault{}
}

// Hash はランダムなソルトでパスワードをハッシュ化します。
// 出力は $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash> です。
func (v *Vault) Hash(password string) (string, string, error) {
	if password == "" {
		return "", "", oops.Code("AUTH_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, encodedSalt, nil
}

// Verify は保存済みハッシュのパラメータで再計算し、定数時間で比較します。
func (v *Vault) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, corruptHash("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, corruptHash("unsupported hash algorithm: " + parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, corruptHash("invalid version segment")
	}
	if version != argon2.Version {
		return false, corruptHash(fmt.Sprintf("unsupported argon2 version %d", version))
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, corruptHash("invalid parameter segment")
	}
	if threads == 0 || threads > 255 || iterations == 0 || iterations > maxVerifyIterations {
		return false, corruptHash("parameters out of range")
	}
	// m は KiB 単位で、上限は 4GiB
	if memory == 0 || memory > maxVerifyMemory {
		return false, corruptHash(fmt.Sprintf("memory parameter out of range: %d", memory))
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, corruptHash("invalid salt encoding")
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, corruptHash("invalid key encoding")
	}
	if len(expected) == 0 || len(expected) > 1<<10 {
		return false, corruptHash(fmt.Sprintf("invalid key length %d", len(expected)))
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func corruptHash(reason string) error {
	return oops.Code("AUTH_INVALID_HASH").With("reason", reason).Wrap(ErrCorruptHash)
}
