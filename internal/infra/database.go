package infra

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewRemoteDB establishes a GORM connection to the central Postgres store.
// DisableAutomaticPing is essential: the terminal must boot with the network
// down, so no connection is attempted until the replication engine's first
// cycle. Schema migration is likewise deferred (see remote.Store.EnsureSchema).
func NewRemoteDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)

	return db, nil
}
