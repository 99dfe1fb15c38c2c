package db

import (
	"context"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the database at path and brings its schema up to date.
func InitDB(path string) (*gorm.DB, error) {
	slog.Debug("Initializing database", "path", path)

	db, err := InitDatabase(DBConfig{
		Path:     path,
		LogLevel: getGormLogLevel(),
	})
	if err != nil {
		return nil, err
	}

	if err := AutoMigrateAll(db); err != nil {
		slog.Error("Failed to migrate database", "path", path, "error", err)
		return nil, err
	}

	slog.Debug("Database initialized successfully", "path", path)
	return db, nil
}

// getGormLogLevel maps application log level to corresponding GORM log level
func getGormLogLevel() logger.LogLevel {
	l := slog.Default()

	switch {
	case l.Enabled(context.TODO(), slog.LevelDebug):
		return logger.Info // SQL queries only when debugging
	case l.Enabled(context.TODO(), slog.LevelWarn):
		return logger.Warn
	case l.Enabled(context.TODO(), slog.LevelError):
		return logger.Error
	default:
		return logger.Silent
	}
}
