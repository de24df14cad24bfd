package config

import (
	"context"
	"fmt"
	"time"

	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/repositories"
)

// InitDB buka database sesuai DB_DRIVER lalu jalankan migrasi schema
func InitDB(cfg Config) (*repositories.DB, error) {
	var (
		db  *repositories.DB
		err error
	)

	switch cfg.DBDriver {
	case "sqlite":
		db, err = repositories.OpenSQLite(cfg.SQLitePath)
	default:
		db, err = repositories.OpenMySQL(cfg.DBDSN)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Logger.WithField("driver", db.Dialect()).Info("Database connected")
	return db, nil
}
