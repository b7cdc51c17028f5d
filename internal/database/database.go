package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a gorm connection for the configured driver.
// The initial ping is retried with a linear backoff up to cfg.ConnectRetries times.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())
	}

	attempts := cfg.ConnectRetries + 1
	for attempt := 1; ; attempt++ {
		err = sqlDB.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
		}

		wait := time.Duration(attempt) * time.Second
		log.Warn("Database not reachable, retrying",
			zap.String("driver", cfg.Driver),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Dialector returns the gorm dialector for driver
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// GooseDialect maps a configured driver to its goose dialect and migrations directory
func GooseDialect(driver string) (goose.Dialect, string, error) {
	switch driver {
	case "postgres":
		return goose.DialectPostgres, "postgres", nil
	case "sqlserver":
		return goose.DialectMSSQL, "sqlserver", nil
	case "sqlite":
		return goose.DialectSQLite3, "sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver: %s", driver)
	}
}

// NewMigrationProvider builds a goose provider over the embedded migrations for driver
func NewMigrationProvider(sqlDB *sql.DB, driver string) (*goose.Provider, error) {
	dialect, dir, err := GooseDialect(driver)
	if err != nil {
		return nil, err
	}

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations for %s: %w", driver, err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return provider, nil
}

// Migrate applies all pending migrations
func Migrate(ctx context.Context, db *gorm.DB, driver string, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	provider, err := NewMigrationProvider(sqlDB, driver)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		log.Info("Applied migration",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}

	return nil
}

// HealthCheck pings the database
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// PoolStats is the connection pool snapshot reported by /health/db
type PoolStats struct {
	OpenConnections int   `json:"openConnections"`
	InUse           int   `json:"inUse"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"waitCount"`
	MaxOpen         int   `json:"maxOpenConnections"`
}

// HealthCheckWithStats pings the database and returns pool statistics.
// A nil db (in-memory store) is healthy with empty stats.
func HealthCheckWithStats(ctx context.Context, db *gorm.DB) (*PoolStats, error) {
	if db == nil {
		return &PoolStats{}, nil
	}

	if err := HealthCheck(ctx, db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	s := sqlDB.Stats()
	return &PoolStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		MaxOpen:         s.MaxOpenConnections,
	}, nil
}
