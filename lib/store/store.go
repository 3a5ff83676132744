// Package store opens the SQLite database backing subscriptions and
// notification records.
package store

import (
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
	sqlite "github.com/ncruces/go-sqlite3/gormlite"
)

// Open connects to the database at path and migrates the schema. Pass
// ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if path == ":memory:" {
		// each connection to :memory: gets its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "getting sql handle")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&types.PushSubscription{}, &types.NotificationRecord{}); err != nil {
		return nil, errors.Wrap(err, "Failed to migrate")
	}

	return db, nil
}
