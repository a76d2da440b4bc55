// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ストアの種類
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// 信頼するリバースプロキシ（カンマ区切りの IP / CIDR）。空なら X-Forwarded-For を使いません
	TrustedProxyList string

	// セッション設定
	SessionSecret        string // セッションCookie署名用の秘密鍵
	SessionEncryptionKey string // セッションCookie暗号化用の鍵（16/24/32バイト）
	SessionCookieSecure  bool   // Secure 属性を付与するか

	// Redis設定（セッションキャッシュ・ジョブキュー共用）
	RedisURL string

	// ドキュメントストア設定
	StoreDriver   string // mongo または memory
	MongoURI      string
	MongoDatabase string

	// ジョブ設定
	JobsEnabled      bool
	JobExpireMinutes int // ジョブ状態を Redis に残す時間（分）

	// ログ設定
	LogFormat string // json または text
	LogLevel  string // debug, info, warn, error
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		TrustedProxyList:   getEnv("TRUSTED_PROXIES", ""),

		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
		SessionCookieSecure:  getEnvAsBool("SESSION_COOKIE_SECURE", true),

		RedisURL: getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),

		StoreDriver:   getEnv("STORE_DRIVER", StoreDriverMongo),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "quiz"),

		JobsEnabled:      getEnvAsBool("JOBS_ENABLED", true),
		JobExpireMinutes: getEnvAsInt("JOB_EXPIRE_MINUTES", 60),

		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverMongo, StoreDriverMemory, c.StoreDriver)
	}

	if c.StoreDriver == StoreDriverMongo && c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER=%s", StoreDriverMongo)
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if n := len(c.SessionEncryptionKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("SESSION_ENCRYPTION_KEY must be 16, 24 or 32 bytes, got %d", n)
	}

	// ローカル開発では鍵は任意
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.SessionEncryptionKey == "" {
			return fmt.Errorf("SESSION_ENCRYPTION_KEY is required in release mode")
		}
		if !c.SessionCookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must not be disabled in release mode")
		}
	}

	return nil
}

// SessionKeyPairs は Cookie ストアに渡す鍵ペア（署名鍵, 暗号化鍵）を返します。
// 署名鍵が未設定の場合は開発用の固定値を使います。
func (c *Config) SessionKeyPairs() [][]byte {
	secret := c.SessionSecret
	if secret == "" {
		secret = "quiz-forge-insecure-development-secret"
	}
	pairs := [][]byte{[]byte(secret)}
	if c.SessionEncryptionKey != "" {
		pairs = append(pairs, []byte(c.SessionEncryptionKey))
	}
	return pairs
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxies は gin.Engine.SetTrustedProxies に渡すプロキシ一覧を返します。
// 未設定の場合は nil で、どのプロキシも信頼しません。
func (c *Config) TrustedProxies() []string {
	return splitList(c.TrustedProxyList)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
