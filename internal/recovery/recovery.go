// Package recovery implements the startup-only Recovery step from
// spec.md §4.8: verify the store is reachable, reset any task left
// RUNNING by a previous process's crash back to PENDING, and clear all
// heartbeat rows so the engine starts from a clean liveness slate.
// Grounded on the teacher's app.App.bootstrap preflight checks
// (internal/app/app.go), generalized from a simple DB-ping gate to the
// spec's full orphaned-work reset.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// Run performs the one-time startup recovery sequence, in order:
//  1. confirm the store is reachable;
//  2. reset every RUNNING task to PENDING, clearing its worker assignment;
//  3. drop all heartbeat rows — any worker that is actually alive
//     re-registers on its next heartbeat tick.
func Run(ctx context.Context, s store.Store, log *logger.Logger) error {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("component", "recovery")
	dbc := dbctx.Context{Ctx: ctx}

	if err := s.Ping(dbc); err != nil {
		return fmt.Errorf("store unreachable at startup: %w", err)
	}

	orphaned, err := s.FindByStatus(dbc, domain.StatusRunning)
	if err != nil {
		return fmt.Errorf("find orphaned running tasks: %w", err)
	}

	now := time.Now().UTC()
	reset := 0
	for _, task := range orphaned {
		ok, err := s.ResetOrphan(dbc, task.ID, now)
		if err != nil {
			return fmt.Errorf("reset orphaned task %s: %w", task.ID, err)
		}
		if ok {
			reset++
		}
	}
	if reset > 0 {
		log.Info("reset orphaned running tasks to pending", "count", reset)
	}

	if err := s.DeleteAllHeartbeats(dbc); err != nil {
		return fmt.Errorf("clear heartbeats: %w", err)
	}

	log.Info("recovery complete", "orphaned_tasks_reset", reset)
	return nil
}
