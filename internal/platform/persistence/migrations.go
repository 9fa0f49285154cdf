package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrator is the part of *migrate.Migrate used to bring the schema up to date
type migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// RunMigrations applies every pending migration under migrationsPath, which may
// be a plain directory or a file:// URL.
func RunMigrations(logger *slog.Logger, databaseURL, migrationsPath string) error {
	if migrationsPath == "" {
		return errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(migrationSource(migrationsPath), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return applyMigrations(logger, m)
}

func migrationSource(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

func applyMigrations(logger *slog.Logger, m migrator) error {
	err := m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Schema is up to date")
		err = nil
	case err != nil:
		logger.Error("Failed to apply migrations", "error", err)
		err = fmt.Errorf("failed to apply migrations: %w", err)
	default:
		version, dirty, verErr := m.Version()
		if verErr != nil {
			err = fmt.Errorf("failed to read schema version: %w", verErr)
			break
		}
		logger.Info("Applied migrations", "version", version, "dirty", dirty)
	}

	sourceErr, dbErr := m.Close()
	if closeErr := errors.Join(sourceErr, dbErr); closeErr != nil {
		return errors.Join(err, fmt.Errorf("failed to close migrator: %w", closeErr))
	}
	return err
}
