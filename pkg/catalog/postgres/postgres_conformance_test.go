//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/marmos91/shelf/pkg/catalog"
	"github.com/marmos91/shelf/pkg/catalog/catalogtest"
	"github.com/marmos91/shelf/pkg/catalog/postgres"
)

// Shared container for all tests; each factory call gets its own database
// inside it so the conformance tests stay isolated.
var (
	containerHost string
	containerPort int
	dbCounter     atomic.Int64
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shelf_test"),
		tcpostgres.WithUsername("shelf_test"),
		tcpostgres.WithPassword("shelf_test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	containerHost = host
	containerPort = port.Int()

	exitCode := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(exitCode)
}

// createTestDatabase creates a fresh database in the shared container.
func createTestDatabase(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adminDSN := fmt.Sprintf("postgres://shelf_test:shelf_test@%s:%d/shelf_test?sslmode=disable",
		containerHost, containerPort)
	conn, err := pgx.Connect(ctx, adminDSN)
	if err != nil {
		t.Fatalf("failed to connect to admin database: %v", err)
	}
	defer conn.Close(ctx)

	name := fmt.Sprintf("conformance_%d", dbCounter.Add(1))
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+name); err != nil {
		t.Fatalf("failed to create test database %s: %v", name, err)
	}
	return name
}

func TestConformance(t *testing.T) {
	catalogtest.RunConformanceSuite(t, func(t *testing.T) catalog.Catalog {
		cfg := &postgres.Config{
			Host:        containerHost,
			Port:        containerPort,
			Database:    createTestDatabase(t),
			User:        "shelf_test",
			Password:    "shelf_test",
			SSLMode:     "disable",
			AutoMigrate: true,
		}

		store, err := postgres.New(context.Background(), cfg)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		t.Cleanup(func() {
			store.Close()
		})
		return store
	})
}

// The schema stamps last_modified with the database clock. A second upsert
// of the same key must refresh it.
func TestUpsertRefreshesLastModified(t *testing.T) {
	cfg := &postgres.Config{
		Host:        containerHost,
		Port:        containerPort,
		Database:    createTestDatabase(t),
		User:        "shelf_test",
		Password:    "shelf_test",
		SSLMode:     "disable",
		AutoMigrate: true,
	}
	store, err := postgres.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := t.Context()
	obj := catalog.ObjectRecord{
		Bucket:       "b",
		Key:          "k",
		Metadata:     "{}",
		InternalInfo: "{}",
		ETag:         "etag",
		DataLocation: "b/k",
	}
	if err := store.UpsertObject(ctx, obj); err != nil {
		t.Fatalf("UpsertObject() failed: %v", err)
	}
	first, err := store.GetObject(ctx, "b", "k")
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if err := store.UpsertObject(ctx, obj); err != nil {
		t.Fatalf("UpsertObject() failed: %v", err)
	}
	second, err := store.GetObject(ctx, "b", "k")
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}

	if !second.LastModified.After(first.LastModified) {
		t.Errorf("LastModified not refreshed: first=%v second=%v", first.LastModified, second.LastModified)
	}
}
