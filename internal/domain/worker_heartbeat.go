package domain

import (
	"time"

	"gorm.io/datatypes"
)

// WorkerHeartbeat is the liveness row a Worker Loop upserts at startup and
// touches on every heartbeat tick. A stale heartbeat (spec.md §4.7) marks
// the worker's owned RUNNING tasks for reassignment.
type WorkerHeartbeat struct {
	WorkerID      string         `gorm:"column:worker_id;primaryKey" json:"worker_id"`
	LastHeartbeat time.Time      `gorm:"column:last_heartbeat;not null;index" json:"last_heartbeat"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	RegisteredAt  time.Time      `gorm:"column:registered_at;not null;default:now()" json:"registered_at"`
	Version       int            `gorm:"column:version;not null;default:0" json:"version"`
}

func (WorkerHeartbeat) TableName() string { return "worker_heartbeats" }
