package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite is the default driver: a single catalog file next to the binary.
// Foreign keys are off by default in sqlite and the schema relies on them
// (verification tokens cascade with their user), so every DSN turns them on.
func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		path := strings.TrimSpace(cfg.Path)
		if path != "" && !strings.EqualFold(path, ":memory:") {
			if dir := filepath.Dir(path); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("sqlite: create data dir: %w", err)
				}
			}
		}
		dsn = sqliteDSN(path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared&_foreign_keys=1"
	}

	// WAL keeps readers unblocked during course writes; the busy timeout
	// covers the brief writer lock handoff instead of failing outright.
	return fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path))
}
