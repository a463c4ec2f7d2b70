// Package testutil provides test helpers including container management
// and test client utilities.
package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/storage/postgres"
)

// PostgresImage is the server image integration tests run against.
const PostgresImage = "postgres:16-alpine"

// PostgresContainer is a throwaway PostgreSQL server with a connected pool.
type PostgresContainer struct {
	Pool   *postgres.Pool
	Config config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL container for the test and
// connects to it. The container is removed on test cleanup.
//
// Precondition: Docker must be available.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        PostgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "traveller",
				"POSTGRES_PASSWORD": "traveller",
				"POSTGRES_DB":       "traveller_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", PostgresImage, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "traveller",
		Password:        "traveller",
		Name:            "traveller_test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	t.Logf("postgres container ready at %s:%d [%s]", host, cfg.Port, time.Since(start))
	return &PostgresContainer{Pool: pool, Config: cfg}
}

// Migrate applies every up migration in the module's migrations directory,
// the same files cmd/migrate runs.
func (pc *PostgresContainer) Migrate(t *testing.T) {
	t.Helper()
	start := time.Now()

	m, err := migrate.New("file://"+filepath.Join(ModuleRoot(t), "migrations"), pc.Config.DSN())
	if err != nil {
		t.Fatalf("opening migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("applying migrations: %v", err)
	}
	version, _, _ := m.Version()
	t.Logf("migrated test database to version %d [%s]", version, time.Since(start))
}

// NewPool starts a migrated PostgreSQL container and returns its pool.
// Tests calling it are skipped under -short.
//
// Precondition: Docker must be available.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	pc := NewPostgresContainer(t)
	pc.Migrate(t)
	return pc.Pool.DB()
}

// ModuleRoot walks up from the working directory to the directory holding go.mod.
func ModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above working directory")
		}
		dir = parent
	}
}
