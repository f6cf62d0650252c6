// Package repo implements the data persistence layer for the catalog,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/ownly/go-vault-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, and
// installs the OTel tracing plugin.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenSQLiteOrReset opens the database at path and runs migrations. If the
// existing file cannot be opened or migrated (corrupt persisted state), it is
// moved aside and a fresh database is created in its place, so startup never
// fails on unreadable data. The catalog then simply loads as empty.
//
// It returns the handle and the path the corrupt file was moved to ("" when
// no reset happened).
func OpenSQLiteOrReset(path string) (*gorm.DB, string, error) {
	db, err := openAndMigrate(path)
	if err == nil {
		return db, "", nil
	}

	if _, statErr := os.Stat(path); statErr != nil {
		// Nothing to move aside; the failure is environmental, not corruption.
		return nil, "", err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if mvErr := os.Rename(path, aside); mvErr != nil {
		return nil, "", err
	}

	db, err = openAndMigrate(path)
	if err != nil {
		return nil, aside, err
	}
	return db, aside, nil
}

func openAndMigrate(path string) (*gorm.DB, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.InventoryRecord{},
	)
}
