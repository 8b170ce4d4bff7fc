package coordinator

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
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/executor"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/retry"
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

func TestCoordinatorRunSucceedsDummyTask(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeDummy, `{"sleepDurationMs":1,"logMessage":"ok"}`, now, 3)
	require.NoError(t, err)
	ok, err := st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)
	require.True(t, ok)

	reg := executor.NewRegistry()
	reg.Register(executor.DummyExecutor{})
	coord := New(st, reg, retry.NewPolicy(time.Second, time.Minute), logger.NewNop())

	outcome, err := coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusSuccess), got.Status)
}

// TestCoordinatorRunFinalizesImmediatelyOnNoExecutor covers spec.md §4.2's
// "terminates the task as FAILED without consulting Retry Policy" rule: a
// task whose type has no registered executor must fail on its very first
// attempt, never retry.
func TestCoordinatorRunFinalizesImmediatelyOnNoExecutor(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeHTTP, `{}`, now, 3)
	require.NoError(t, err)
	_, err = st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)

	reg := executor.NewRegistry() // nothing registered
	coord := New(st, reg, retry.NewPolicy(time.Second, time.Minute), logger.NewNop())

	outcome, err := coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Finalized)
	assert.False(t, outcome.Retried)

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFailed), got.Status)
	assert.Equal(t, 0, got.RetryCount)
}

// TestCoordinatorRunFinalizesImmediatelyOnUnrecoverableError covers the same
// bypass-Retry-Policy rule (spec.md §4.2, §4.4) for an executor that rejects
// a task's payload outright via UnrecoverableError — e.g. HTTPExecutor on a
// missing url.
func TestCoordinatorRunFinalizesImmediatelyOnUnrecoverableError(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeHTTP, `{}`, now, 3) // missing "url"
	require.NoError(t, err)
	_, err = st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)

	reg := executor.NewRegistry()
	reg.Register(executor.NewHTTPExecutor())
	coord := New(st, reg, retry.NewPolicy(time.Second, time.Minute), logger.NewNop())

	outcome, err := coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Finalized)
	assert.False(t, outcome.Retried)

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFailed), got.Status)
	assert.Equal(t, 0, got.RetryCount)
}

// TestCoordinatorRunDummyFailsTwiceThenSucceeds drives spec.md §8 scenario
// 2 end to end: a DUMMY task stubbed via failTimes to fail twice and
// succeed on its third attempt, reclaiming and re-running the coordinator
// between each failure the way the Worker Loop would after a retry
// reschedule. Asserts three TaskAttempt rows, RetryCount==2 at the moment
// of the final success, and a backoff schedule matching base=10ms.
func TestCoordinatorRunDummyFailsTwiceThenSucceeds(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeDummy, `{"logMessage":"done","failTimes":2}`, now, 3)
	require.NoError(t, err)

	reg := executor.NewRegistry()
	reg.Register(executor.DummyExecutor{})
	policy := retry.NewPolicy(10*time.Millisecond, time.Second)
	coord := New(st, reg, policy, logger.NewNop())

	// Attempt 1: fails, rescheduled at +10ms (delay(1) = base).
	ok, err := st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)
	require.True(t, ok)

	outcome, err := coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Retried)

	task, err = st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.True(t, !task.ScheduleAt.Before(now.Add(10*time.Millisecond)))

	// Attempt 2: runs once the task is due again (as the Scheduler would
	// only claim it then, at >= +10ms), fails again, and is rescheduled at
	// >= +30ms (+10ms elapsed, then delay(2) = base*2 = 20ms).
	time.Sleep(time.Until(task.ScheduleAt))
	ok, err = st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)
	require.True(t, ok)

	outcome, err = coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Retried)

	task, err = st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), task.Status)
	assert.Equal(t, 2, task.RetryCount)
	assert.True(t, !task.ScheduleAt.Before(now.Add(30*time.Millisecond)))

	// Attempt 3: FailTimes exhausted, succeeds.
	ok, err = st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)
	require.True(t, ok)

	outcome, err = coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)

	task, err = st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusSuccess), task.Status)
	assert.Equal(t, 2, task.RetryCount)

	attempts, err := st.FindAttemptsByTask(dbc, task.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	require.NotNil(t, attempts[0].Success)
	require.NotNil(t, attempts[1].Success)
	require.NotNil(t, attempts[2].Success)
	assert.False(t, *attempts[0].Success)
	assert.False(t, *attempts[1].Success)
	assert.True(t, *attempts[2].Success)
}

func TestCoordinatorRunFinalizesAtRetryBudget(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	task, err := st.InsertTask(dbc, domain.TaskTypeDummy, `{"failTimes":1}`, now, 0)
	require.NoError(t, err)
	_, err = st.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, "worker-1", now)
	require.NoError(t, err)

	reg := executor.NewRegistry()
	reg.Register(executor.DummyExecutor{})
	coord := New(st, reg, retry.NewPolicy(time.Second, time.Minute), logger.NewNop())

	outcome, err := coord.Run(context.Background(), task, "worker-1")
	require.NoError(t, err)
	assert.True(t, outcome.Finalized)

	got, err := st.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFailed), got.Status)
}
