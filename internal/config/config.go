package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DriverSQLite 使用本地 SQLite 文件作为存储。
	DriverSQLite = "sqlite"
	// DriverPostgres 使用 DATABASE_URL 指向的 PostgreSQL。
	DriverPostgres = "postgres"

	maxPageSize = 50
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string
	SessionSecret  string
	GinMode        string
	LogLevel       string
	LogFormat      string
	SiteName       string
	PageSize       int
}

// LoadEnvFiles loads .env.local and .env into the process environment.
// Variables that are already set win over file values.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env.local", ".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8080")

	listenAddr := env("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(env("DATABASE_DRIVER", DriverSQLite))
	if driver != DriverPostgres {
		driver = DriverSQLite
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabaseDriver: driver,
		DatabasePath:   env("DATABASE_PATH", "quillblog.db"),
		DatabaseURL:    env("DATABASE_URL", ""),
		SessionSecret:  env("SESSION_SECRET", "quillblog-dev-secret"),
		GinMode:        env("GIN_MODE", "release"),
		LogLevel:       strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(env("LOG_FORMAT", "json")),
		SiteName:       env("SITE_NAME", "Quill"),
		PageSize:       pageSize(env("PAGE_SIZE", "")),
	}
}

// Validate reports configuration combinations the server cannot start with.
func (c AppConfig) Validate() error {
	if c.DatabaseDriver == DriverPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when DATABASE_DRIVER=%s", DriverPostgres)
	}
	return nil
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func pageSize(raw string) int {
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return 10
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
