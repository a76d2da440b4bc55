package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SESSION_COOKIE_SECURE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverMongo, cfg.StoreDriver)
	assert.True(t, cfg.SessionCookieSecure)
	assert.True(t, cfg.JobsEnabled)
	assert.Equal(t, 60, cfg.JobExpireMinutes)
	assert.Nil(t, cfg.TrustedProxies())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("JOBS_ENABLED", "0")
	t.Setenv("JOB_EXPIRE_MINUTES", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example,")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.SessionCookieSecure)
	assert.False(t, cfg.JobsEnabled)
	assert.Equal(t, 5, cfg.JobExpireMinutes)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins())
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GinMode:             "debug",
			StoreDriver:         StoreDriverMemory,
			RedisURL:            "redis://localhost:6379/0",
			SessionCookieSecure: true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "debug defaults are valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "postgres" }, wantErr: "STORE_DRIVER"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreDriver = StoreDriverMongo }, wantErr: "MONGODB_URI"},
		{name: "missing redis", mutate: func(c *Config) { c.RedisURL = "" }, wantErr: "REDIS_URL"},
		{name: "bad encryption key length", mutate: func(c *Config) { c.SessionEncryptionKey = "short" }, wantErr: "16, 24 or 32"},
		{name: "release without secret", mutate: func(c *Config) { c.GinMode = "release" }, wantErr: "SESSION_SECRET"},
		{
			name: "release without encryption key",
			mutate: func(c *Config) {
				c.GinMode = "release"
				c.SessionSecret = "s3cret"
			},
			wantErr: "SESSION_ENCRYPTION_KEY",
		},
		{
			name: "release with insecure cookie",
			mutate: func(c *Config) {
				c.GinMode = "release"
				c.SessionSecret = "s3cret"
				c.SessionEncryptionKey = "0123456789abcdef0123456789abcdef"
				c.SessionCookieSecure = false
			},
			wantErr: "SESSION_COOKIE_SECURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSessionKeyPairs(t *testing.T) {
	cfg := &Config{SessionSecret: "sign"}
	assert.Len(t, cfg.SessionKeyPairs(), 1)

	cfg.SessionEncryptionKey = "0123456789abcdef"
	pairs := cfg.SessionKeyPairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, []byte("sign"), pairs[0])
	assert.Equal(t, []byte("0123456789abcdef"), pairs[1])

	assert.NotEmpty(t, (&Config{}).SessionKeyPairs()[0])
}
