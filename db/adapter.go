package db

import (
	"fmt"

	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/db/embedded"
	dbmysql "github.com/nanakusa/frontier/db/mysql"
	dbsqlite "github.com/nanakusa/frontier/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeEmbeddedMemory = "embedded_memory"
	ModeSQLite         = "sqlite"
	ModeMySQL          = "mysql"
)

// Open dispatches on cfg.Mode and hands back a ready connection.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeEmbeddedMemory:
		return embedded.Open()
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
