package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/monitoring"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/apierr"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/recovery"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// HealthHandlers implements the /health family from spec.md §6.
type HealthHandlers struct {
	monitor         *monitoring.Monitor
	store           store.Store
	log             *logger.Logger
	heartbeatWindow time.Duration
}

func NewHealthHandlers(mon *monitoring.Monitor, s store.Store, log *logger.Logger, heartbeatWindow time.Duration) *HealthHandlers {
	return &HealthHandlers{monitor: mon, store: s, log: log, heartbeatWindow: heartbeatWindow}
}

// Health handles GET /health.
func (h *HealthHandlers) Health(c *gin.Context) {
	res, err := h.monitor.Health(c.Request.Context())
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusOK, res)
}

// Workers handles GET /health/workers.
func (h *HealthHandlers) Workers(c *gin.Context) {
	res, err := h.monitor.Workers(c.Request.Context(), h.heartbeatWindow)
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusOK, gin.H{"workers": res})
}

// Metrics handles GET /health/metrics?hours=N.
func (h *HealthHandlers) Metrics(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	res, err := h.monitor.Metrics(c.Request.Context(), hours)
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusOK, res)
}

// Consistency handles GET /health/consistency.
func (h *HealthHandlers) Consistency(c *gin.Context) {
	res, err := h.monitor.Consistency(c.Request.Context())
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusOK, gin.H{"orphaned_tasks": res})
}

// Recovery handles POST /health/recovery — an operator-triggered re-run of
// the startup recovery sequence, for recovering without a process restart.
func (h *HealthHandlers) Recovery(c *gin.Context) {
	if err := recovery.Run(c.Request.Context(), h.store, h.log); err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusOK, gin.H{"status": "recovered"})
}

// Live handles GET /health/live — process-up liveness, no dependencies.
func (h *HealthHandlers) Live(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Ready handles GET /health/ready — readiness gated on store reachability.
func (h *HealthHandlers) Ready(c *gin.Context) {
	if err := h.store.Ping(dbctx.Context{Ctx: c.Request.Context()}); err != nil {
		writeError(c, apierr.New(http.StatusServiceUnavailable, apierr.CodeInternal, err))
		return
	}
	c.Status(http.StatusOK)
}
