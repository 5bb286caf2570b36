package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	_ "modernc.org/sqlite"
)

const tableName = "weekly_giving"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenDB opens the SQLite file at databasePath and brings its base schema up to date.
func OpenDB(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &models.StorageError{Op: "open database", Err: err}
	}
	// single user, single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &models.StorageError{Op: "open database", Err: fmt.Errorf("%s: %w", databasePath, err)}
	}

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	if err := migrateDatabase(db); err != nil {
		db.Close()
		return nil, &models.StorageError{Op: "migrate database", Err: err}
	}
	return db, nil
}

func migrateDatabase(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	// m.Close would close db as well, so only the source is released here.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, a previous migration was interrupted", version)
	}
	logger.L.Info("Database schema ready", "version", version)
	return nil
}
