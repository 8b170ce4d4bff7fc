// Package store is the only component permitted to mutate the engine's
// persistent state (spec.md §4.1). It exposes the atomic primitives
// (claim, CAS status transitions, bulk abandonment reset) every other
// component builds on.
//
// Grounded on the teacher's repos.JobRunRepo
// (internal/data/repos/jobs/job_run.go): a GORM repo interface, claim
// implemented as a single conditional `UPDATE ... WHERE id=? AND status=?`
// (no preceding `SELECT ... FOR UPDATE`), and a dbctx.Context threaded
// through every method instead of a bare context.Context, so callers can
// opt into an outer transaction.
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
)

// Store is the durable state interface for tasks, attempts and heartbeats.
//
// Every mutating method either succeeds atomically or reports "no row
// changed" (a `false`/`0` return, never an error) — callers must read
// current state before deciding what to do next; blindly retrying the same
// write is never correct (spec.md §4.1).
type Store interface {
	// Task lifecycle.
	InsertTask(dbc dbctx.Context, taskType domain.TaskType, payload string, scheduleAt time.Time, maxRetries int) (*domain.Task, error)
	FindDueTasks(dbc dbctx.Context, now time.Time) ([]*domain.Task, error)
	Claim(dbc dbctx.Context, taskID uuid.UUID, fromStatus, toStatus domain.Status, workerID string, now time.Time) (bool, error)
	UpdateStatus(dbc dbctx.Context, taskID uuid.UUID, fromStatus, toStatus domain.Status, now time.Time) (bool, error)
	CompleteTask(dbc dbctx.Context, taskID uuid.UUID, toStatus domain.Status, completedAt time.Time, output *string, metadata []byte, now time.Time) (bool, error)
	IncrementRetryAndReschedule(dbc dbctx.Context, taskID uuid.UUID, toStatus domain.Status, newScheduleAt time.Time, now time.Time) (bool, error)
	ResetAbandoned(dbc dbctx.Context, workerID string, fromStatus, toStatus domain.Status, now time.Time) (int, error)
	ResetOrphan(dbc dbctx.Context, taskID uuid.UUID, now time.Time) (bool, error)
	DeleteTask(dbc dbctx.Context, taskID uuid.UUID, requiredStatus domain.Status) (bool, error)
	GetTask(dbc dbctx.Context, taskID uuid.UUID) (*domain.Task, error)

	// Read views.
	CountByStatus(dbc dbctx.Context, status domain.Status) (int64, error)
	FindByStatus(dbc dbctx.Context, status domain.Status) ([]*domain.Task, error)
	FindByWorkerAndStatus(dbc dbctx.Context, workerID string, status domain.Status) ([]*domain.Task, error)
	FindTasksExceedingRetryLimit(dbc dbctx.Context, status domain.Status) ([]*domain.Task, error)
	ListTasks(dbc dbctx.Context, status, taskType string, page, size int) ([]*domain.Task, int64, error)

	// Heartbeats.
	GetHeartbeat(dbc dbctx.Context, workerID string) (*domain.WorkerHeartbeat, error)
	UpsertHeartbeat(dbc dbctx.Context, workerID string, now time.Time, metadata []byte) error
	TouchHeartbeat(dbc dbctx.Context, workerID string, now time.Time) (int, error)
	FindStaleWorkers(dbc dbctx.Context, cutoff time.Time) ([]*domain.WorkerHeartbeat, error)
	FindActiveWorkers(dbc dbctx.Context, cutoff time.Time) ([]*domain.WorkerHeartbeat, error)
	CleanupStaleHeartbeats(dbc dbctx.Context, cutoff time.Time) (int, error)
	DeleteAllHeartbeats(dbc dbctx.Context) error

	// Attempts.
	RecordAttemptStart(dbc dbctx.Context, taskID uuid.UUID, workerID string) (*domain.TaskAttempt, error)
	RecordAttemptFinish(dbc dbctx.Context, attemptID uuid.UUID, success bool, output *string, errMsg *string, metadata []byte, now time.Time) error
	FindAttemptsByTask(dbc dbctx.Context, taskID uuid.UUID) ([]*domain.TaskAttempt, error)

	// Ping verifies the store is reachable (used by Recovery's startup
	// check, spec.md §4.8).
	Ping(dbc dbctx.Context) error
}
