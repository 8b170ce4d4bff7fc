// Package domain holds the GORM-backed entities from spec.md §3: Task,
// TaskAttempt, WorkerHeartbeat. Modeled on the teacher's domain/jobs.JobRun
// (internal/domain/jobs/job_run.go) — one status-bearing, optimistically
// locked row per unit of work — generalized to the spec's own status
// domain, retry bookkeeping and version column rather than the teacher's
// stage/progress/attempts shape.
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Status is the closed set a Task's status may take (I1).
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// TaskType is the closed, extensible set of executor capability tags
// (spec.md §3, §9). New types are added by registering a new executor, not
// by editing this list.
type TaskType string

const (
	TaskTypeHTTP  TaskType = "HTTP"
	TaskTypeShell TaskType = "SHELL"
	TaskTypeDummy TaskType = "DUMMY"
)

// Task is the durable unit of work. Every mutating write must bump Version
// (I5) — either via an explicit CAS (`WHERE id=? AND status=?`) or an
// unconditional terminal write that still increments it.
type Task struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Type               string         `gorm:"column:type;not null;index" json:"type"`
	Payload            string         `gorm:"column:payload;type:text" json:"payload"`
	Status             string         `gorm:"column:status;not null;index:idx_tasks_schedule_status;index:idx_tasks_worker_status" json:"status"`
	ScheduleAt          time.Time      `gorm:"column:schedule_at;not null;index:idx_tasks_schedule_status" json:"schedule_at"`
	CreatedAt          time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
	RetryCount         int            `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	MaxRetries         int            `gorm:"column:max_retries;not null;default:3" json:"max_retries"`
	WorkerID           *string        `gorm:"column:worker_id;index:idx_tasks_worker_status" json:"worker_id,omitempty"`
	AssignedAt         *time.Time     `gorm:"column:assigned_at" json:"assigned_at,omitempty"`
	CompletedAt        *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	ExecutionOutput    *string        `gorm:"column:execution_output;type:text" json:"execution_output,omitempty"`
	ExecutionMetadata  datatypes.JSON `gorm:"column:execution_metadata;type:jsonb" json:"execution_metadata,omitempty"`
	Version            int            `gorm:"column:version;not null;default:0" json:"version"`
}

func (Task) TableName() string { return "tasks" }

// The supporting indexes spec.md §6 requires are created by AutoMigrate
// from the GORM index tags above (idx_tasks_schedule_status,
// idx_tasks_worker_status).
