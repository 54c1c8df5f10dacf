package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	"marketplace.backend/internal/config"
	"marketplace.backend/internal/infrastructure/datasources/postgres"
	"marketplace.backend/migrations"
)

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Version() (uint, bool, error)
	Close() (error, error)
}

type migrateDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	open    func(cfg *config.Config) (migrator, error)
	out     io.Writer
}

func openMigrator(cfg *config.Config) (migrator, error) {
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init migrate driver: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	return m, nil
}

func defaultMigrateDeps() migrateDeps {
	return migrateDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		open:    openMigrator,
		out:     os.Stdout,
	}
}

func runMigrate(args []string, deps migrateDeps) error {
	def := defaultMigrateDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.open == nil {
		deps.open = def.open
	}
	if deps.out == nil {
		deps.out = def.out
	}

	if len(args) < 1 {
		printUsage(deps.out)
		return errors.New("missing command")
	}
	command := args[0]

	var target uint
	switch command {
	case "up", "down", "status":
	case "goto":
		if len(args) < 2 {
			return errors.New("goto requires a version number")
		}
		v, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		target = uint(v)
	default:
		printUsage(deps.out)
		return fmt.Errorf("unknown command %q", command)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	_, _ = fmt.Fprintf(deps.out, "Connecting to %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	m, err := deps.open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintln(deps.out, "No change: database is up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		_, _ = fmt.Fprintln(deps.out, "Migrations applied")
	case "down":
		if err := m.Steps(-1); err != nil {
			return fmt.Errorf("failed to roll back last migration: %w", err)
		}
		_, _ = fmt.Fprintln(deps.out, "Rolled back last migration")
	case "goto":
		err := m.Migrate(target)
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintf(deps.out, "No change: database is already at version %d\n", target)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to migrate to version %d: %w", target, err)
		}
		_, _ = fmt.Fprintf(deps.out, "Migrated to version %d\n", target)
	case "status":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			_, _ = fmt.Fprintln(deps.out, "No migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		suffix := ""
		if dirty {
			suffix = " (dirty)"
		}
		_, _ = fmt.Fprintf(deps.out, "Current version: %d%s\n", version, suffix)
	}
	return nil
}

func printUsage(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Usage: migrate [command]")
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  up     - apply all pending migrations")
	_, _ = fmt.Fprintln(out, "  down   - roll back the last migration")
	_, _ = fmt.Fprintln(out, "  goto N - migrate to version N")
	_, _ = fmt.Fprintln(out, "  status - print the current version")
}

func main() {
	if err := runMigrate(os.Args[1:], defaultMigrateDeps()); err != nil {
		log.Fatal(err)
	}
}
