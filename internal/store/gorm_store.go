package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
)

type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// New builds a Store backed by a *gorm.DB connection.
func New(db *gorm.DB, log *logger.Logger) Store {
	return &gormStore{db: db, log: log.With("component", "Store")}
}

func (s *gormStore) tx(dbc dbctx.Context) *gorm.DB {
	base := dbc.Resolve(s.db)
	if dbc.Ctx != nil {
		return base.WithContext(dbc.Ctx)
	}
	return base
}

func (s *gormStore) InsertTask(dbc dbctx.Context, taskType domain.TaskType, payload string, scheduleAt time.Time, maxRetries int) (*domain.Task, error) {
	now := time.Now()
	task := &domain.Task{
		ID:         uuid.New(),
		Type:       string(taskType),
		Payload:    payload,
		Status:     string(domain.StatusPending),
		ScheduleAt: scheduleAt,
		CreatedAt:  now,
		UpdatedAt:  now,
		RetryCount: 0,
		MaxRetries: maxRetries,
		Version:    0,
	}
	if err := s.tx(dbc).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func (s *gormStore) FindDueTasks(dbc dbctx.Context, now time.Time) ([]*domain.Task, error) {
	var out []*domain.Task
	err := s.tx(dbc).
		Where("status = ? AND schedule_at <= ?", string(domain.StatusPending), now).
		Order("schedule_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Claim is the fundamental atomicity primitive: a compare-and-swap on
// status that also assigns worker ownership. Exactly one concurrent caller
// observes `true`; everyone else observes `false` and must not retry this
// same task blindly (spec.md §4.1, P2).
func (s *gormStore) Claim(dbc dbctx.Context, taskID uuid.UUID, fromStatus, toStatus domain.Status, workerID string, now time.Time) (bool, error) {
	res := s.tx(dbc).Model(&domain.Task{}).
		Where("id = ? AND status = ?", taskID, string(fromStatus)).
		Updates(map[string]interface{}{
			"status":      string(toStatus),
			"worker_id":   workerID,
			"assigned_at": now,
			"updated_at":  now,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatus is the same CAS shape as Claim for non-claim terminal
// transitions (e.g. Retry Policy's FAILED finalisation).
func (s *gormStore) UpdateStatus(dbc dbctx.Context, taskID uuid.UUID, fromStatus, toStatus domain.Status, now time.Time) (bool, error) {
	res := s.tx(dbc).Model(&domain.Task{}).
		Where("id = ? AND status = ?", taskID, string(fromStatus)).
		Updates(map[string]interface{}{
			"status":     string(toStatus),
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompleteTask writes terminal fields unconditionally on id — it is only
// ever called after the executor has already returned for an attempt this
// process itself is driving, so no CAS is needed (spec.md §4.1, §5).
func (s *gormStore) CompleteTask(dbc dbctx.Context, taskID uuid.UUID, toStatus domain.Status, completedAt time.Time, output *string, metadata []byte, now time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":             string(toStatus),
		"completed_at":       completedAt,
		"execution_output":   output,
		"execution_metadata": datatypes.JSON(metadata),
		"updated_at":         now,
		"version":            gorm.Expr("version + 1"),
	}
	res := s.tx(dbc).Model(&domain.Task{}).Where("id = ?", taskID).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IncrementRetryAndReschedule is the Retry Policy's single-row commit:
// bump retry_count, clear ownership, reschedule, flip back to PENDING.
func (s *gormStore) IncrementRetryAndReschedule(dbc dbctx.Context, taskID uuid.UUID, toStatus domain.Status, newScheduleAt time.Time, now time.Time) (bool, error) {
	res := s.tx(dbc).Model(&domain.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":       string(toStatus),
			"retry_count":  gorm.Expr("retry_count + 1"),
			"worker_id":    nil,
			"assigned_at":  nil,
			"schedule_at":  newScheduleAt,
			"updated_at":   now,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResetAbandoned is the only bulk mutation of tasks: every RUNNING task
// owned by a dead worker goes back to PENDING in one statement (Failure
// Detector §4.7, Recovery §4.8 does the per-process equivalent without a
// worker filter via FindByStatus+per-row reset).
func (s *gormStore) ResetAbandoned(dbc dbctx.Context, workerID string, fromStatus, toStatus domain.Status, now time.Time) (int, error) {
	res := s.tx(dbc).Model(&domain.Task{}).
		Where("worker_id = ? AND status = ?", workerID, string(fromStatus)).
		Updates(map[string]interface{}{
			"status":      string(toStatus),
			"worker_id":   nil,
			"assigned_at": nil,
			"updated_at":  now,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// ResetOrphan resets one RUNNING task left behind by a crashed process back
// to PENDING, unconditionally (no worker filter — the process that owned it
// is gone, so there is no worker identity left to match against). Used only
// by startup Recovery (spec.md §4.8), one row at a time over the set
// FindByStatus(RUNNING) returns.
func (s *gormStore) ResetOrphan(dbc dbctx.Context, taskID uuid.UUID, now time.Time) (bool, error) {
	res := s.tx(dbc).Model(&domain.Task{}).
		Where("id = ? AND status = ?", taskID, string(domain.StatusRunning)).
		Updates(map[string]interface{}{
			"status":      string(domain.StatusPending),
			"worker_id":   nil,
			"assigned_at": nil,
			"updated_at":  now,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteTask cancels a task iff it is still PENDING (HTTP DELETE /tasks/{id}).
func (s *gormStore) DeleteTask(dbc dbctx.Context, taskID uuid.UUID, requiredStatus domain.Status) (bool, error) {
	res := s.tx(dbc).Where("id = ? AND status = ?", taskID, string(requiredStatus)).Delete(&domain.Task{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) GetTask(dbc dbctx.Context, taskID uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := s.tx(dbc).Where("id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *gormStore) CountByStatus(dbc dbctx.Context, status domain.Status) (int64, error) {
	var count int64
	err := s.tx(dbc).Model(&domain.Task{}).Where("status = ?", string(status)).Count(&count).Error
	return count, err
}

func (s *gormStore) FindByStatus(dbc dbctx.Context, status domain.Status) ([]*domain.Task, error) {
	var out []*domain.Task
	err := s.tx(dbc).Where("status = ?", string(status)).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *gormStore) FindByWorkerAndStatus(dbc dbctx.Context, workerID string, status domain.Status) ([]*domain.Task, error) {
	var out []*domain.Task
	err := s.tx(dbc).
		Where("worker_id = ? AND status = ?", workerID, string(status)).
		Order("assigned_at ASC").
		Find(&out).Error
	return out, err
}

func (s *gormStore) FindTasksExceedingRetryLimit(dbc dbctx.Context, status domain.Status) ([]*domain.Task, error) {
	var out []*domain.Task
	err := s.tx(dbc).
		Where("status = ? AND retry_count >= max_retries", string(status)).
		Find(&out).Error
	return out, err
}

func (s *gormStore) ListTasks(dbc dbctx.Context, status, taskType string, page, size int) ([]*domain.Task, int64, error) {
	q := s.tx(dbc).Model(&domain.Task{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if taskType != "" {
		q = q.Where("type = ?", taskType)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	var out []*domain.Task
	err := q.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetHeartbeat returns the heartbeat row for workerID, or nil if none
// exists — the literal "has no heartbeat row" check spec.md §6's
// consistency endpoint describes, distinct from FindStaleWorkers (which
// requires a row that is merely old, not absent).
func (s *gormStore) GetHeartbeat(dbc dbctx.Context, workerID string) (*domain.WorkerHeartbeat, error) {
	var hb domain.WorkerHeartbeat
	err := s.tx(dbc).Where("worker_id = ?", workerID).First(&hb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hb, nil
}

func (s *gormStore) UpsertHeartbeat(dbc dbctx.Context, workerID string, now time.Time, metadata []byte) error {
	hb := domain.WorkerHeartbeat{
		WorkerID:      workerID,
		LastHeartbeat: now,
		Metadata:      datatypes.JSON(metadata),
		RegisteredAt:  now,
		Version:       0,
	}
	return s.tx(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "worker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_heartbeat", "metadata", "version",
		}),
	}).Create(&hb).Error
}

func (s *gormStore) TouchHeartbeat(dbc dbctx.Context, workerID string, now time.Time) (int, error) {
	res := s.tx(dbc).Model(&domain.WorkerHeartbeat{}).
		Where("worker_id = ?", workerID).
		Updates(map[string]interface{}{
			"last_heartbeat": now,
			"version":        gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (s *gormStore) FindStaleWorkers(dbc dbctx.Context, cutoff time.Time) ([]*domain.WorkerHeartbeat, error) {
	var out []*domain.WorkerHeartbeat
	err := s.tx(dbc).Where("last_heartbeat < ?", cutoff).Find(&out).Error
	return out, err
}

func (s *gormStore) FindActiveWorkers(dbc dbctx.Context, cutoff time.Time) ([]*domain.WorkerHeartbeat, error) {
	var out []*domain.WorkerHeartbeat
	err := s.tx(dbc).Where("last_heartbeat >= ?", cutoff).Find(&out).Error
	return out, err
}

func (s *gormStore) CleanupStaleHeartbeats(dbc dbctx.Context, cutoff time.Time) (int, error) {
	res := s.tx(dbc).Where("last_heartbeat < ?", cutoff).Delete(&domain.WorkerHeartbeat{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (s *gormStore) DeleteAllHeartbeats(dbc dbctx.Context) error {
	return s.tx(dbc).Where("1 = 1").Delete(&domain.WorkerHeartbeat{}).Error
}

func (s *gormStore) RecordAttemptStart(dbc dbctx.Context, taskID uuid.UUID, workerID string) (*domain.TaskAttempt, error) {
	attempt := &domain.TaskAttempt{
		ID:        uuid.New(),
		TaskID:    taskID,
		WorkerID:  workerID,
		StartedAt: time.Now(),
	}
	if err := s.tx(dbc).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *gormStore) RecordAttemptFinish(dbc dbctx.Context, attemptID uuid.UUID, success bool, output *string, errMsg *string, metadata []byte, now time.Time) error {
	return s.tx(dbc).Model(&domain.TaskAttempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"completed_at":  now,
			"success":       success,
			"output":        output,
			"error_message": errMsg,
			"metadata":      datatypes.JSON(metadata),
		}).Error
}

func (s *gormStore) FindAttemptsByTask(dbc dbctx.Context, taskID uuid.UUID) ([]*domain.TaskAttempt, error) {
	var out []*domain.TaskAttempt
	err := s.tx(dbc).Where("task_id = ?", taskID).Order("started_at ASC").Find(&out).Error
	return out, err
}

func (s *gormStore) Ping(dbc dbctx.Context) error {
	var count int64
	if err := s.tx(dbc).Model(&domain.Task{}).Count(&count).Error; err != nil {
		return err
	}
	if err := s.tx(dbc).Model(&domain.WorkerHeartbeat{}).Count(&count).Error; err != nil {
		return err
	}
	return nil
}

// Migrate creates/updates the tasks, task_attempts and worker_heartbeats
// tables and their supporting indexes (spec.md §6).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Task{}, &domain.TaskAttempt{}, &domain.WorkerHeartbeat{}); err != nil {
		return err
	}
	// task_attempts.task_id -> tasks.id, cascading delete. Added as raw DDL
	// rather than a GORM association/constraint tag, per spec.md §9: the
	// relationship is a one-way foreign key, not a Go-level back-reference.
	return db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'fk_task_attempts_task_id'
			) THEN
				ALTER TABLE task_attempts
					ADD CONSTRAINT fk_task_attempts_task_id
					FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE;
			END IF;
		END
		$$;
	`).Error
}
