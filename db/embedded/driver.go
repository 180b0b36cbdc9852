package embedded

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// seq names each memory database; the shared cache is keyed by name,
// so connections from one Open land on the same store while separate
// Opens stay isolated from each other.
var seq atomic.Int64

// Open creates a GORM *DB backed by a fresh in-memory SQLite database.
// The store lives as long as the returned handle keeps a connection,
// which the single-connection pool guarantees.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:frontier%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("embedded: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("embedded: pool: %w", err)
	}
	// One connection avoids shared-cache lock errors under concurrent
	// writes and pins the store for the handle's lifetime.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
