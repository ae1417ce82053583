package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	PGUser     string
	PGHost     string
	PGDatabase string
	PGPassword string
	PGPort     string
	PGSSLMode  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Server
	ServerPort string
	StaticDir  string

	// TrustProxyHeaders がtrueの場合、X-Forwarded-For等からクライアントIPを決定する。
	// リバースプロキシ配下でのみ有効にすること。
	TrustProxyHeaders bool

	// CORS
	CORSAllowedOrigins []string

	// Rate Limit（固定ウィンドウ）
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Redis（未設定の場合はプロセス内リミッターを使用）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Password hashing
	BcryptCost int

	// Logging
	LogLevel string
}

// requiredEnvVars は起動に必須の環境変数。
var requiredEnvVars = []string{"PG_USER", "PG_HOST", "PG_DATABASE", "PG_PASSWORD", "PG_PORT"}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	var missing []string
	for _, key := range requiredEnvVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg := &Config{
		PGUser:     os.Getenv("PG_USER"),
		PGHost:     os.Getenv("PG_HOST"),
		PGDatabase: os.Getenv("PG_DATABASE"),
		PGPassword: os.Getenv("PG_PASSWORD"),
		PGPort:     os.Getenv("PG_PORT"),
	}

	if _, err := strconv.Atoi(cfg.PGPort); err != nil {
		return nil, fmt.Errorf("PG_PORT must be a number: %q", cfg.PGPort)
	}

	// Optional fields with defaults
	cfg.PGSSLMode = getEnvString("PG_SSLMODE", "require")
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.ServerPort = getEnvString("SERVER_PORT", "3001")
	cfg.StaticDir = getEnvString("STATIC_DIR", "frontend/dist")
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY", false)
	cfg.CORSAllowedOrigins = splitList(getEnvString("CORS_ALLOWED_ORIGINS", "http://localhost:3001"))
	cfg.RateLimitMax = getEnvInt("RATE_LIMIT_MAX", 100)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// DatabaseURL はlib/pqおよびgolang-migrateが受け付ける接続URLを組み立てる。
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PGUser, c.PGPassword),
		Host:   c.PGHost + ":" + c.PGPort,
		Path:   "/" + c.PGDatabase,
	}
	q := url.Values{}
	q.Set("sslmode", c.PGSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// splitList はカンマ区切りの値をトリムしたスライスに変換する。空要素は除外する。
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
