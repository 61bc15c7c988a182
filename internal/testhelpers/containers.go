// Package testhelpers starts throwaway infrastructure for integration
// tests. Containers are shared across the tests of one package run.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/keyxmakerx/bizledger/internal/config"
	"github.com/keyxmakerx/bizledger/internal/database"
)

// MariaDBImage is the server version the schema is written against.
const MariaDBImage = "mariadb:11.4"

// TestDB holds a shared MariaDB container with all migrations applied.
type TestDB struct {
	Container testcontainers.Container
	DB        *sql.DB
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared MariaDB container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        MariaDBImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_DATABASE":      "bizledger",
			"MARIADB_USER":          "bizledger",
			"MARIADB_PASSWORD":      "test_password",
			"MARIADB_ROOT_PASSWORD": "root_password",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	db, err := database.NewMariaDB(config.DatabaseConfig{
		Host:            fmt.Sprintf("%s:%s", host, port.Port()),
		User:            "bizledger",
		Password:        "test_password",
		Name:            "bizledger",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := database.RunMigrations(db, migrationsPath()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{Container: container, DB: db}, nil
}

// Truncate empties the given tables so each test starts clean.
func (tdb *TestDB) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := tdb.DB.Exec("TRUNCATE TABLE " + table); err != nil {
			t.Fatalf("truncating %s: %v", table, err)
		}
	}
}

// migrationsPath returns db/migrations relative to this file.
func migrationsPath() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}
