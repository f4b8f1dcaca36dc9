package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bitelog/bitelog/server/internal/store"
	"github.com/bitelog/bitelog/server/internal/store/storetest"
)

// postgresDSN returns a DSN from BITELOG_SERVICE_POSTGRES_DSN, or starts a
// throwaway container when BITELOG_TESTCONTAINERS=1. Otherwise the test skips.
func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("BITELOG_SERVICE_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("BITELOG_TESTCONTAINERS") != "1" {
		t.Skip("BITELOG_SERVICE_POSTGRES_DSN not set; skipping postgres store integration test")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "bitelog",
			"POSTGRES_PASSWORD": "bitelog",
			"POSTGRES_DB":       "bitelog",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://bitelog:bitelog@%s:%s/bitelog?sslmode=disable", host, port.Port())
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(postgresDSN(t))
	require.NoError(t, err, "postgres open")
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Bootstrap(context.Background(), db))
	return db
}

func TestPostgresStore_Compliance(t *testing.T) {
	db := openTestDB(t)
	storetest.Run(t, func(t *testing.T) store.Store { return NewWithDB(db) })
}

func TestPostgresStore_EnsureSchemaIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, EnsureSchema(context.Background(), db))
}
