// Package testutil connects tests to the docker-compose test Postgres (5433)
// and Redis (6380). Tests that need them are skipped when they are not running.
package testutil

import (
	"context"
	"sync"
	"testing"

	"fest-ticketing/config"
	"fest-ticketing/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var (
	pgOnce  sync.Once
	pgPool  *pgxpool.Pool
	pgErr   error
	rdbOnce sync.Once
	rdb     *redis.Client
	rdbErr  error
)

// Postgres returns a migrated pool with every table truncated.
// The pool is shared by the tests of one package and never closed.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pgOnce.Do(func() {
		cfg := config.LoadTestConfig()
		pgPool, pgErr = database.InitDatabase(&cfg.Database)
		if pgErr != nil {
			return
		}
		pgErr = database.Migrate(context.Background(), pgPool)
	})
	if pgErr != nil {
		t.Skipf("test database not available: %v", pgErr)
	}

	// 清空所有測試資料，保留 schema
	if _, err := pgPool.Exec(context.Background(), "TRUNCATE registrations, events, users CASCADE"); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	return pgPool
}

// Redis returns a client on the test DB. Packages share that DB, so tests
// keep their keys apart with KeyPrefix instead of flushing.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	rdbOnce.Do(func() {
		cfg := config.LoadTestConfig()
		rdb, rdbErr = database.InitRedis(&cfg.Redis)
	})
	if rdbErr != nil {
		t.Skipf("test redis not available: %v", rdbErr)
	}
	return rdb
}

// KeyPrefix returns a prefix unique to this test; its keys are removed on cleanup.
func KeyPrefix(t *testing.T, client *redis.Client) string {
	t.Helper()
	prefix := "test:" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	})
	return prefix
}
