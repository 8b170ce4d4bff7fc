// Package failuredetector implements the worker-liveness monitor from
// spec.md §4.7: a periodic sweep that reclaims RUNNING tasks assigned to
// workers whose heartbeat has gone stale, and prunes heartbeat rows that
// have been stale long enough to be considered permanently gone.
// Grounded on the teacher's periodic cleanup goroutine pattern
// (internal/app/app.go), generalized to the spec's two-phase sweep.
package failuredetector

import (
	"context"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// staleHeartbeatRetention is how long a stale heartbeat row is kept around
// (for /health/workers history) before being purged outright.
const staleHeartbeatRetention = 24 * time.Hour

// Detector periodically reclaims work from dead workers.
type Detector struct {
	store           store.Store
	log             *logger.Logger
	tickInterval    time.Duration
	heartbeatWindow time.Duration
}

func New(s store.Store, log *logger.Logger, tickInterval, heartbeatWindow time.Duration) *Detector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Detector{store: s, log: log.With("component", "failuredetector"), tickInterval: tickInterval, heartbeatWindow: heartbeatWindow}
}

// Run blocks, ticking every tickInterval until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Detector) tick(ctx context.Context) {
	now := time.Now().UTC()
	dbc := dbctx.Context{Ctx: ctx}

	staleCutoff := now.Add(-d.heartbeatWindow)
	staleWorkers, err := d.store.FindStaleWorkers(dbc, staleCutoff)
	if err != nil {
		d.log.Error("find stale workers failed", "error", err)
		return
	}

	for _, wh := range staleWorkers {
		n, err := d.store.ResetAbandoned(dbc, wh.WorkerID, domain.StatusRunning, domain.StatusPending, now)
		if err != nil {
			d.log.Error("reset abandoned tasks failed", "worker_id", wh.WorkerID, "error", err)
			continue
		}
		if n > 0 {
			d.log.Info("reclaimed abandoned tasks", "worker_id", wh.WorkerID, "count", n)
		}
	}

	purgeCutoff := now.Add(-staleHeartbeatRetention)
	purged, err := d.store.CleanupStaleHeartbeats(dbc, purgeCutoff)
	if err != nil {
		d.log.Error("cleanup stale heartbeats failed", "error", err)
		return
	}
	if purged > 0 {
		d.log.Info("purged stale heartbeats", "count", purged)
	}
}
