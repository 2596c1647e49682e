package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"libraryhub/internal/config"
	"libraryhub/internal/microservices/http-api/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres pool through pgx and wraps it in gorm. The
// session time zone is pinned to UTC so date columns compare the same way the
// services compute them.
func Connect(cfg *config.Config, logger *slog.Logger) (*gorm.DB, *sql.DB, error) {
	pgxCfg, err := pgx.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if pgxCfg.RuntimeParams == nil {
		pgxCfg.RuntimeParams = map[string]string{}
	}
	pgxCfg.RuntimeParams["timezone"] = "UTC"

	sqlDB := stdlib.OpenDB(*pgxCfg)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(max(cfg.DBMaxOpenConns/2, 1))
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Verify the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		// close the db handle if ping fails to avoid resource leak
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() && cfg.LogLevel == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	logger.Info("database_connected", "max_open_conns", cfg.DBMaxOpenConns)
	return db, sqlDB, nil
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("database_migrated")
	return nil
}
