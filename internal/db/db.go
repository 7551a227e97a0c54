package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/quillblog/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Init 打开配置指定的数据库并执行迁移。
func Init(ctx context.Context, cfg config.AppConfig, log gormlogger.Interface) error {
	dsn := cfg.DatabaseURL
	if cfg.DatabaseDriver != config.DriverPostgres {
		dsn = strings.TrimSpace(cfg.DatabasePath)
		if dsn == "" {
			dsn = "quillblog.db"
		}
		if err := ensureParentDir(dsn); err != nil {
			return err
		}
	}

	gdb, err := Open(cfg.DatabaseDriver, dsn, log)
	if err != nil {
		return err
	}
	if err := Migrate(ctx, gdb); err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Open connects to SQLite or PostgreSQL. SQLite connections always enforce
// foreign keys so association rows cascade with their parents.
func Open(driver, dsn string, log gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: dsn})
	case config.DriverSQLite, "":
		dialector = sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: sqliteDSN(dsn)})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if log == nil {
		log = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         log,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return gdb, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	dialect := goose.DialectSQLite3
	if gdb.Dialector.Name() == "postgres" {
		dialect = goose.DialectPostgres
	}

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, sqlDB, migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// OpenMemory opens a migrated in-memory SQLite database shared by every
// connection of the returned pool. Each distinct name is an isolated database.
func OpenMemory(ctx context.Context, name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := Open(config.DriverSQLite, dsn, nil)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, gdb); err != nil {
		_ = Close(gdb)
		return nil, err
	}
	return gdb, nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
