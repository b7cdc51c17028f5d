package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/database"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/pressly/goose/v3"
)

const usage = "usage: migrate [up|down|status|version|create <name>]"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

// sqlDriverName maps a configured driver to the database/sql driver registered above
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "postgres":
		return "postgres", nil
	case "sqlserver":
		return "sqlserver", nil
	case "sqlite":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("driver %q has no migrations", driver)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf(usage)
	}
	command := args[0]
	arguments := args[1:]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		_, dir, err := database.GooseDialect(cfg.Database.Driver)
		if err != nil {
			return err
		}
		if err := goose.Create(nil, filepath.Join("migrations", dir), arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Printf("Migration created: %s\n", arguments[0])
		return nil
	}

	sqlDriver, err := sqlDriverName(cfg.Database.Driver)
	if err != nil {
		return err
	}

	db, err := sql.Open(sqlDriver, cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	provider, err := database.NewMigrationProvider(db, cfg.Database.Driver)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		for _, r := range results {
			fmt.Printf("OK   %s (%s)\n", r.Source.Path, r.Duration)
		}
		fmt.Println("Migrations applied successfully")

	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Printf("Rolled back %s\n", result.Source.Path)

	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		for _, s := range statuses {
			applied := "Pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-25s %s\n", applied, s.Source.Path)
		}

	case "version":
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("Database version: %d\n", version)

	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}

	return nil
}
