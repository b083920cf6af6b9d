// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresStartupTimeout is the default timeout for PostgreSQL to start.
	DefaultPostgresStartupTimeout = 60 * time.Second

	testDatabase = "pressrun_test"
	testUser     = "pressrun"
	testPassword = "pressrun"
)

// PostgresContainer manages a test PostgreSQL instance.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DSN       string
}

// StartPostgres starts a PostgreSQL container for testing. It returns a
// container instance that should be stopped with Stop().
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	pgContainer, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDatabase),
		tcpostgres.WithUsername(testUser),
		tcpostgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(DefaultPostgresStartupTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		Container: pgContainer,
		DSN:       dsn,
	}, nil
}

// Stop stops and removes the PostgreSQL container.
func (p *PostgresContainer) Stop(ctx context.Context) error {
	if p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}

// Connect opens a sqlx connection to the container.
func (p *PostgresContainer) Connect() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", p.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// ApplyMigrations runs every .sql file from the repository's migrations
// directory against the given connection, in lexical order.
func ApplyMigrations(db *sqlx.DB) error {
	dir := migrationsDir()
	entries, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	for _, path := range entries {
		sql, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read migration %s: %w", path, readErr)
		}
		if _, execErr := db.Exec(string(sql)); execErr != nil {
			return fmt.Errorf("failed to apply migration %s: %w", path, execErr)
		}
	}
	return nil
}

// migrationsDir resolves the migrations directory relative to this file.
func migrationsDir() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")
}
