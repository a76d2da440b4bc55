package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultHash(t *testing.T) {
	vault := NewVault()

	t.Run("produces PHC string and salt", func(t *testing.T) {
		hash, salt, err := vault.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
		assert.Len(t, salt, 22)
		assert.Contains(t, hash, "$"+salt+"$")
	})

	t.Run("same password gets a fresh salt", func(t *testing.T) {
		hash1, salt1, err := vault.Hash("samepassword")
		require.NoError(t, err)
		hash2, salt2, err := vault.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, salt1, salt2)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, _, err := vault.Hash("")
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})
}

func TestVaultVerify(t *testing.T) {
	vault := NewVault()
	hash, _, err := vault.Hash("correctpassword")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		ok, err := vault.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := vault.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("dummy hash never matches", func(t *testing.T) {
		ok, err := vault.Verify("", dummyPasswordHash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	corrupt := map[string]string{
		"not a hash":      "not-a-valid-hash",
		"wrong algorithm": "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"bad version":     "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"old version":     "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"bad params":      "$argon2id$v=19$m=abc,t=1,p=4$c2FsdA$aGFzaA",
		"zero threads":    "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$aGFzaA",
		"bad salt":        "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"empty key":       "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
		"huge memory":     "$argon2id$v=19$m=4294967295,t=1,p=4$c2FsdA$aGFzaA",
		"zero memory":     "$argon2id$v=19$m=0,t=1,p=4$c2FsdA$aGFzaA",
		"huge iterations": "$argon2id$v=19$m=65536,t=4294967295,p=4$c2FsdA$aGFzaA",
	}
	for name, encoded := range corrupt {
		t.Run(name, func(t *testing.T) {
			_, err := vault.Verify("password", encoded)
			assert.ErrorIs(t, err, ErrCorruptHash)
		})
	}
}
