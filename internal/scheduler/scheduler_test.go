package scheduler

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping Postgres-backed test")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, store.Migrate(db))
	db.Exec("TRUNCATE TABLE task_attempts, tasks, worker_heartbeats")
	t.Cleanup(func() { db.Exec("TRUNCATE TABLE task_attempts, tasks, worker_heartbeats") })
	return db
}

func TestTickClaimsDueTaskOntoActiveWorker(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	require.NoError(t, st.UpsertHeartbeat(dbc, "worker-1", now, nil))
	task, err := st.InsertTask(dbc, domain.TaskTypeDummy, `{}`, now.Add(-time.Second), 3)
	require.NoError(t, err)

	s := New(st, logger.NewNop(), time.Second, time.Minute)
	s.tick(context.Background())

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRunning), got.Status)
	require.NotNil(t, got.WorkerID)
	assert.Equal(t, "worker-1", *got.WorkerID)
}

func TestTickFallsBackWhenNoActiveWorker(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeDummy, `{}`, now.Add(-time.Second), 3)
	require.NoError(t, err)

	s := New(st, logger.NewNop(), time.Second, time.Minute)
	s.tick(context.Background())

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRunning), got.Status)
	require.NotNil(t, got.WorkerID)
	assert.Contains(t, *got.WorkerID, "scheduler-fallback-")
}

func TestTickIgnoresNotYetDueTask(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeDummy, `{}`, now.Add(time.Hour), 3)
	require.NoError(t, err)

	s := New(st, logger.NewNop(), time.Second, time.Minute)
	s.tick(context.Background())

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), got.Status)
}
