package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens the single-file store. path may be a file name or a
// sqlite URI such as "file:test?mode=memory&cache=shared".
func OpenSQLite(path string, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY under load
	sqlDB.SetMaxOpenConns(1)

	if logger != nil {
		logger.Info("database connection established", slog.String("driver", "sqlite"))
	}
	return db, nil
}
