// Package testutil provides testing utilities: a sqlmock-backed database for
// unit tests and a testcontainers PostgreSQL instance for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/threebee1/hrms-sub001/pkg/database"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// integrationEnv gates integration tests; they are skipped unless it is set.
const integrationEnv = "HRMS_INTEGRATION_TESTS"

// SkipUnlessIntegration skips the test unless integration tests are enabled.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(integrationEnv) == "" {
		t.Skipf("set %s=1 to run integration tests", integrationEnv)
	}
}

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// NewPostgresContainer starts a PostgreSQL test container and returns a
// connected database handle with the schema applied.
func NewPostgresContainer(ctx context.Context, schema string) (*PostgresContainer, *database.DB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("hrms_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	raw, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	if schema != "" {
		if _, err := raw.ExecContext(ctx, schema); err != nil {
			raw.Close()
			container.Terminate(ctx)
			return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	log := logger.New("test", "test")
	return &PostgresContainer{PostgresContainer: container, DSN: dsn},
		database.FromSqlx(raw, log), nil
}

// Terminate stops the container.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}
