package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
)

// fakeStore is an in-memory stand-in for store.Store, sufficient to drive
// the HTTP handlers' request/response shaping without a real Postgres.
type fakeStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[uuid.UUID]*domain.Task{}}
}

func (f *fakeStore) InsertTask(dbc dbctx.Context, taskType domain.TaskType, payload string, scheduleAt time.Time, maxRetries int) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := &domain.Task{
		ID:         uuid.New(),
		Type:       string(taskType),
		Payload:    payload,
		Status:     string(domain.StatusPending),
		ScheduleAt: scheduleAt,
		MaxRetries: maxRetries,
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeStore) FindDueTasks(dbc dbctx.Context, now time.Time) ([]*domain.Task, error) { return nil, nil }

func (f *fakeStore) Claim(dbc dbctx.Context, taskID uuid.UUID, fromStatus, toStatus domain.Status, workerID string, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeStore) UpdateStatus(dbc dbctx.Context, taskID uuid.UUID, fromStatus, toStatus domain.Status, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeStore) CompleteTask(dbc dbctx.Context, taskID uuid.UUID, toStatus domain.Status, completedAt time.Time, output *string, metadata []byte, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeStore) IncrementRetryAndReschedule(dbc dbctx.Context, taskID uuid.UUID, toStatus domain.Status, newScheduleAt time.Time, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeStore) ResetAbandoned(dbc dbctx.Context, workerID string, fromStatus, toStatus domain.Status, now time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) ResetOrphan(dbc dbctx.Context, taskID uuid.UUID, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeStore) DeleteTask(dbc dbctx.Context, taskID uuid.UUID, requiredStatus domain.Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok || task.Status != string(requiredStatus) {
		return false, nil
	}
	delete(f.tasks, taskID)
	return true, nil
}

func (f *fakeStore) GetTask(dbc dbctx.Context, taskID uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[taskID], nil
}

func (f *fakeStore) CountByStatus(dbc dbctx.Context, status domain.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.tasks {
		if t.Status == string(status) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) FindByStatus(dbc dbctx.Context, status domain.Status) ([]*domain.Task, error) {
	return nil, nil
}

func (f *fakeStore) FindByWorkerAndStatus(dbc dbctx.Context, workerID string, status domain.Status) ([]*domain.Task, error) {
	return nil, nil
}

func (f *fakeStore) FindTasksExceedingRetryLimit(dbc dbctx.Context, status domain.Status) ([]*domain.Task, error) {
	return nil, nil
}

func (f *fakeStore) ListTasks(dbc dbctx.Context, status, taskType string, page, size int) ([]*domain.Task, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if status != "" && t.Status != status {
			continue
		}
		if taskType != "" && t.Type != taskType {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) GetHeartbeat(dbc dbctx.Context, workerID string) (*domain.WorkerHeartbeat, error) {
	return nil, nil
}

func (f *fakeStore) UpsertHeartbeat(dbc dbctx.Context, workerID string, now time.Time, metadata []byte) error {
	return nil
}

func (f *fakeStore) TouchHeartbeat(dbc dbctx.Context, workerID string, now time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) FindStaleWorkers(dbc dbctx.Context, cutoff time.Time) ([]*domain.WorkerHeartbeat, error) {
	return nil, nil
}

func (f *fakeStore) FindActiveWorkers(dbc dbctx.Context, cutoff time.Time) ([]*domain.WorkerHeartbeat, error) {
	return nil, nil
}

func (f *fakeStore) CleanupStaleHeartbeats(dbc dbctx.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) DeleteAllHeartbeats(dbc dbctx.Context) error { return nil }

func (f *fakeStore) RecordAttemptStart(dbc dbctx.Context, taskID uuid.UUID, workerID string) (*domain.TaskAttempt, error) {
	return &domain.TaskAttempt{ID: uuid.New(), TaskID: taskID, WorkerID: workerID}, nil
}

func (f *fakeStore) RecordAttemptFinish(dbc dbctx.Context, attemptID uuid.UUID, success bool, output *string, errMsg *string, metadata []byte, now time.Time) error {
	return nil
}

func (f *fakeStore) FindAttemptsByTask(dbc dbctx.Context, taskID uuid.UUID) ([]*domain.TaskAttempt, error) {
	return nil, nil
}

func (f *fakeStore) Ping(dbc dbctx.Context) error { return f.pingErr }
