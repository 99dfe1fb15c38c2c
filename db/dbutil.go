package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DBConfig holds configuration options for database initialization
type DBConfig struct {
	// Path is the database file, or MemoryPath.
	Path     string
	LogLevel logger.LogLevel
}

// filePragmas apply only to file-backed databases.
const filePragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous  = NORMAL;
	PRAGMA busy_timeout = 5000;`

// InitDatabase opens a SQLite database. Migrations are left to the caller.
func InitDatabase(config DBConfig) (*gorm.DB, error) {
	inMemory := config.Path == MemoryPath

	if !inMemory {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			slog.Error("Failed to create database directory", "dir", dir, "error", err)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "path", config.Path, "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if inMemory {
		// Every new connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	pragmas := "PRAGMA foreign_keys = ON;"
	if !inMemory {
		pragmas += filePragmas
	}
	if err := db.Exec(pragmas).Error; err != nil {
		slog.Error("Failed to configure database", "error", err)
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return db, nil
}
