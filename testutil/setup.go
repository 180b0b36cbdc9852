package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
	dbadapter "github.com/nanakusa/frontier/db"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/resource"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB hands out a migrated in-memory database. Each call gets
// its own, so parallel tests never share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{Mode: dbadapter.ModeEmbeddedMemory})
	require.NoError(t, err, "open embedded db")
	require.NoError(t, model.AutoMigrate(db), "migrate embedded db")
	return db
}

// SetupTestCache creates the in-process cache and pub/sub backends, so
// no Redis is required.
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr selects the local backends
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "local cache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "local pubsub")
	return c, ps
}

// DataPath returns the repo's data directory, resolved relative to this
// source file so callers work from any package directory.
func DataPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "data")
}

// SetupTestResources loads the shipped game data set.
func SetupTestResources(t *testing.T) *resource.ResourceLoader {
	t.Helper()
	ld := resource.NewLoader(DataPath())
	require.NoError(t, ld.Load(), "load game data")
	return ld
}
