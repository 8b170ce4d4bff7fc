// Package monitoring backs the read-only /health family of endpoints from
// spec.md §6: status-count aggregates, worker liveness, a derived success
// rate and uptime, and a consistency check for RUNNING tasks whose
// worker has no heartbeat row. Grounded on the teacher's internal/app health handlers
// (simple aggregate reads over the same repos the write path uses, no
// separate read model).
package monitoring

import (
	"context"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// Monitor computes read-only aggregates over the store.
type Monitor struct {
	store     store.Store
	startedAt time.Time
}

func New(s store.Store, startedAt time.Time) *Monitor {
	return &Monitor{store: s, startedAt: startedAt}
}

// StatusCounts maps each task status to its current row count.
type StatusCounts struct {
	Pending int64 `json:"pending"`
	Running int64 `json:"running"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

// Health summarizes overall engine state for GET /health.
type Health struct {
	Status      StatusCounts `json:"status_counts"`
	SuccessRate float64      `json:"success_rate"`
	UptimeSec   float64      `json:"uptime_seconds"`
}

func (m *Monitor) Health(ctx context.Context) (*Health, error) {
	counts, err := m.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	terminal := counts.Success + counts.Failed
	var rate float64
	if terminal > 0 {
		rate = float64(counts.Success) / float64(terminal)
	}
	return &Health{
		Status:      *counts,
		SuccessRate: rate,
		UptimeSec:   time.Since(m.startedAt).Seconds(),
	}, nil
}

func (m *Monitor) StatusCounts(ctx context.Context) (*StatusCounts, error) {
	dbc := dbctx.Context{Ctx: ctx}
	var out StatusCounts
	var err error

	if out.Pending, err = m.store.CountByStatus(dbc, domain.StatusPending); err != nil {
		return nil, err
	}
	if out.Running, err = m.store.CountByStatus(dbc, domain.StatusRunning); err != nil {
		return nil, err
	}
	if out.Success, err = m.store.CountByStatus(dbc, domain.StatusSuccess); err != nil {
		return nil, err
	}
	if out.Failed, err = m.store.CountByStatus(dbc, domain.StatusFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// WorkerStatus reports liveness for one worker.
type WorkerStatus struct {
	WorkerID      string    `json:"worker_id"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Active        bool      `json:"active"`
}

// Workers lists every registered heartbeat, marking workers whose last
// heartbeat falls within heartbeatWindow as active.
func (m *Monitor) Workers(ctx context.Context, heartbeatWindow time.Duration) ([]WorkerStatus, error) {
	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()
	cutoff := now.Add(-heartbeatWindow)
	active, err := m.store.FindActiveWorkers(dbc, cutoff)
	if err != nil {
		return nil, err
	}
	stale, err := m.store.FindStaleWorkers(dbc, cutoff)
	if err != nil {
		return nil, err
	}
	out := make([]WorkerStatus, 0, len(active)+len(stale))
	for _, wh := range active {
		out = append(out, WorkerStatus{WorkerID: wh.WorkerID, LastHeartbeat: wh.LastHeartbeat, Active: true})
	}
	for _, wh := range stale {
		out = append(out, WorkerStatus{WorkerID: wh.WorkerID, LastHeartbeat: wh.LastHeartbeat, Active: false})
	}
	return out, nil
}

// Metrics summarizes completed-task throughput. CompletedTotal and
// SuccessRate are computed over all tasks currently in the store;
// WindowHours echoes the requested window and does not filter the counts.
type Metrics struct {
	WindowHours    int     `json:"window_hours"`
	CompletedTotal int64   `json:"completed_total"`
	SuccessRate    float64 `json:"success_rate"`
}

func (m *Monitor) Metrics(ctx context.Context, hours int) (*Metrics, error) {
	if hours <= 0 {
		hours = 24
	}
	counts, err := m.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	total := counts.Success + counts.Failed
	var rate float64
	if total > 0 {
		rate = float64(counts.Success) / float64(total)
	}
	return &Metrics{WindowHours: hours, CompletedTotal: total, SuccessRate: rate}, nil
}

// OrphanedTask flags a RUNNING task whose worker_id has no corresponding
// heartbeat row at all — the heartbeat was purged (stale-heartbeat
// cleanup, spec.md §4.7) or never existed, yet the task itself was never
// reclaimed back to PENDING. Distinct from a merely-stale heartbeat: the
// Failure Detector already handles that case on its own schedule; this is
// the narrower "the liveness record for this worker is gone entirely"
// inconsistency spec.md §6 names for GET /health/consistency.
type OrphanedTask struct {
	TaskID   string `json:"task_id"`
	WorkerID string `json:"worker_id"`
	Status   string `json:"status"`
}

// Consistency implements GET /health/consistency exactly as spec.md §6
// defines it: every RUNNING task whose worker_id has no heartbeat row.
func (m *Monitor) Consistency(ctx context.Context) ([]OrphanedTask, error) {
	dbc := dbctx.Context{Ctx: ctx}
	running, err := m.store.FindByStatus(dbc, domain.StatusRunning)
	if err != nil {
		return nil, err
	}

	var orphaned []OrphanedTask
	for _, task := range running {
		if task.WorkerID == nil {
			continue
		}
		hb, err := m.store.GetHeartbeat(dbc, *task.WorkerID)
		if err != nil {
			return nil, err
		}
		if hb == nil {
			orphaned = append(orphaned, OrphanedTask{
				TaskID:   task.ID.String(),
				WorkerID: *task.WorkerID,
				Status:   task.Status,
			})
		}
	}
	return orphaned, nil
}
