package infra

import (
	"fmt"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewLocalDB opens the embedded SQLite store that is the terminal's source of
// truth while offline. The terminal owns this schema, so AutoMigrate runs here
// unconditionally. WAL keeps the counter UI responsive during sync cycles;
// busy_timeout covers the brief writer overlap between the HTTP handlers and
// the replication engine.
func NewLocalDB(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
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
	// Single writer: SQLite serializes writes anyway, a second conn only buys
	// SQLITE_BUSY errors
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Orden{},
		&model.OrdenItem{},
		&model.Cliente{},
		&model.Abono{},
		&model.Turno{},
		&model.Gasto{},
		&model.ConteoPrendas{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	return db, nil
}
