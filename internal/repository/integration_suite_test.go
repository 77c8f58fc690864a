//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"swiftdrop/internal/repository"
)

// shared by every repository suite in this package
var (
	tcPool *pgxpool.Pool
	tcDSN  string
)

// TestMain starts one throwaway postgres for the whole package, applies the
// embedded migrations, and tears the container down afterwards. Suites
// isolate themselves with truncateAll in SetupTest.
func TestMain(m *testing.M) {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}
	fail := func(format string, args ...any) {
		if tcPool != nil {
			tcPool.Close()
		}
		if termErr := pg.Terminate(ctx); termErr != nil {
			log.Printf("terminate postgres container: %v", termErr)
		}
		log.Fatalf(format, args...)
	}

	tcDSN, err = pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fail("container connection string: %v", err)
	}

	tcPool, err = pgxpool.New(ctx, tcDSN)
	if err != nil {
		fail("create pgx pool: %v", err)
	}
	if err := tcPool.Ping(ctx); err != nil {
		fail("ping postgres: %v", err)
	}
	if err := repository.Migrate(tcDSN); err != nil {
		fail("apply migrations: %v", err)
	}

	code := m.Run()

	tcPool.Close()
	if err := pg.Terminate(ctx); err != nil {
		log.Printf("terminate postgres container: %v", err)
	}
	os.Exit(code)
}

func truncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx,
		`TRUNCATE tracking, payments, deliveries, vehicles, users RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
