package store

import (
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB opens a real Postgres connection from TEST_POSTGRES_DSN,
// migrates the schema, and registers a rollback-equivalent cleanup that
// truncates every table — mirroring the teacher's testutil pattern of
// isolating each test's writes without requiring a fresh database per run.
// Tests using this helper are skipped when the env var is unset, the way
// the teacher gates its own Postgres-backed integration tests.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping Postgres-backed test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		t.Fatalf("create extension: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE task_attempts, tasks, worker_heartbeats")
	})
	db.Exec("TRUNCATE TABLE task_attempts, tasks, worker_heartbeats")

	return db
}
