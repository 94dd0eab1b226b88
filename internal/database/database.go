package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql", "":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer; serialize through one connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// ConnectWithRetry opens the database, retrying on a fixed delay until it
// answers a ping, ctx is done, or ConnectAttempts (if > 0) is exhausted.
func ConnectWithRetry(ctx context.Context, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; cfg.ConnectAttempts <= 0 || attempt <= cfg.ConnectAttempts; attempt++ {
		db, err := NewDB(cfg)
		if err == nil {
			if err = Ping(ctx, db); err == nil {
				return db, nil
			}
		}
		lastErr = err
		log.Printf("[database] attempt %d: %v; retrying in %s", attempt, err, cfg.RetryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("db connect failed after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

// Ping checks that the underlying connection pool can reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Helper{},
		&models.NGO{},
		&models.Location{},
		&models.MedicalProfile{},
		&models.Notification{},
		&models.NotificationChannel{},
	)
}
