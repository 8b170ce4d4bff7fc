package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskAttempt is one execution attempt for a Task. Never reused once
// created; a retried task gets a fresh attempt row (spec.md §3).
//
// Invariant: CompletedAt == nil <=> Success == nil (in-flight).
type TaskAttempt struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	// TaskID is a one-way foreign key to Task.ID, cascading delete (added by
	// store.Migrate via raw DDL — see spec.md §9 on cyclic references: the
	// Go struct intentionally carries no back-reference/association field,
	// only the id, navigated with explicit Store lookups).
	TaskID uuid.UUID `gorm:"type:uuid;column:task_id;not null;index" json:"task_id"`
	WorkerID     string         `gorm:"column:worker_id;not null;index" json:"worker_id"`
	StartedAt    time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Success      *bool          `gorm:"column:success" json:"success,omitempty"`
	Output       *string        `gorm:"column:output;type:text" json:"output,omitempty"`
	ErrorMessage *string        `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (TaskAttempt) TableName() string { return "task_attempts" }
