// Package testutil runs integration tests against a disposable PostgreSQL
// started with testcontainers-go.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/autonomo/api/internal/database"
)

const defaultImage = "postgres:16-alpine"

// Tables emptied between tests. document_sequences goes with declarations
// so numbering restarts at 1.
var truncated = []string{"declarations", "document_sequences", "vies_checks"}

// TestDB is one migrated database shared by a package's tests.
type TestDB struct {
	Pool    *pgxpool.Pool
	ConnStr string

	container testcontainers.Container
}

// SetupTestDB starts the container, applies every migration and opens a
// pool. Call it from TestMain and Close it after m.Run:
//
//	db, err := testutil.SetupTestDB()
//	if err != nil {
//		log.Fatalf("setting up test database: %v", err)
//	}
//	testDB = db
//	code := m.Run()
//	db.Close()
//	os.Exit(code)
//
// POSTGRES_TEST_IMAGE overrides the image.
func SetupTestDB() (*TestDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	image := os.Getenv("POSTGRES_TEST_IMAGE")
	if image == "" {
		image = defaultImage
	}

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("autonomo_test"),
		postgres.WithUsername("autonomo"),
		postgres.WithPassword("autonomo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	tdb := &TestDB{container: ctr}

	tdb.ConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tdb.Close()
		return nil, fmt.Errorf("reading connection string: %w", err)
	}

	if err := database.Migrate(tdb.ConnStr); err != nil {
		tdb.Close()
		return nil, fmt.Errorf("migrating test database: %w", err)
	}
	if _, dirty, err := database.Version(tdb.ConnStr); err != nil || dirty {
		tdb.Close()
		return nil, fmt.Errorf("test database left dirty after migrating (err: %v)", err)
	}

	tdb.Pool, err = database.Connect(ctx, tdb.ConnStr)
	if err != nil {
		tdb.Close()
		return nil, fmt.Errorf("connecting to test database: %w", err)
	}
	return tdb, nil
}

// Close releases the pool and removes the container.
func (tdb *TestDB) Close() {
	if tdb.Pool != nil {
		tdb.Pool.Close()
	}
	if tdb.container != nil {
		_ = tdb.container.Terminate(context.Background())
	}
}

// Truncate empties every table written by the services under test. Call it
// first in each test.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	stmt := "TRUNCATE "
	for i, table := range truncated {
		if i > 0 {
			stmt += ", "
		}
		stmt += table
	}
	if _, err := tdb.Pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("truncating %v: %v", truncated, err)
	}
}
