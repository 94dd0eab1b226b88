package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/database"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
)

func TestConnectWithRetry_SQLite(t *testing.T) {
	c := qt.New(t)
	cfg := &config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(c.TempDir(), "lifeline.db"),
		ConnectAttempts: 1,
		RetryDelay:      time.Millisecond,
	}
	db, err := database.ConnectWithRetry(context.Background(), cfg)
	c.Assert(err, qt.IsNil)
	c.Assert(database.AutoMigrate(db), qt.IsNil)
	c.Assert(db.Migrator().HasTable(&models.Location{}), qt.IsTrue)
	c.Assert(db.Migrator().HasIndex(&models.Location{}, "idx_location_lat_lng"), qt.IsTrue)
	c.Assert(database.Ping(context.Background(), db), qt.IsNil)
}

func TestNewDB_UnknownDriver(t *testing.T) {
	c := qt.New(t)
	_, err := database.NewDB(&config.DatabaseConfig{Driver: "oracle"})
	c.Assert(err, qt.ErrorMatches, `unsupported database driver "oracle"`)
}

func TestConnectWithRetry_GivesUp(t *testing.T) {
	c := qt.New(t)
	cfg := &config.DatabaseConfig{Driver: "oracle", ConnectAttempts: 2, RetryDelay: time.Millisecond}
	_, err := database.ConnectWithRetry(context.Background(), cfg)
	c.Assert(err, qt.ErrorMatches, "db connect failed after 2 attempts: .*")
}

func TestConnectWithRetry_ContextCancelled(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := &config.DatabaseConfig{Driver: "oracle", RetryDelay: time.Hour}
	_, err := database.ConnectWithRetry(ctx, cfg)
	c.Assert(err, qt.Equals, context.Canceled)
}
