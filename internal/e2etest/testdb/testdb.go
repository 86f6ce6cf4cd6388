// Package testdb provides a Postgres instance for database-backed tests.
package testdb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image        = "postgres:16-alpine"
	startTimeout = time.Minute
)

type TestDBInstance struct {
	DSN       string
	container *postgres.PostgresContainer
}

// NewTestDBInstance uses TEST_DATABASE_URI when set. Otherwise it starts a
// disposable Postgres container, which needs a reachable Docker daemon.
func NewTestDBInstance() (inst *TestDBInstance, err error) {
	if dsn := os.Getenv("TEST_DATABASE_URI"); dsn != "" {
		return &TestDBInstance{DSN: dsn}, nil
	}

	// testcontainers panics when no docker host can be found
	defer func() {
		if r := recover(); r != nil {
			inst, err = nil, fmt.Errorf("start postgres container: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("paymentrecon"),
		postgres.WithUsername("paymentrecon"),
		postgres.WithPassword("paymentrecon"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("postgres container dsn: %w", err)
	}

	return &TestDBInstance{DSN: dsn, container: container}, nil
}

// Down stops the container, if one was started.
func (i *TestDBInstance) Down() {
	if i.container == nil {
		return
	}
	_ = i.container.Terminate(context.Background())
}
