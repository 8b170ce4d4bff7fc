package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/apierr"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// TaskHandlers implements the task CRUD surface of spec.md §6's endpoint
// table.
type TaskHandlers struct {
	store             store.Store
	defaultMaxRetries int
}

func NewTaskHandlers(s store.Store, defaultMaxRetries int) *TaskHandlers {
	return &TaskHandlers{store: s, defaultMaxRetries: defaultMaxRetries}
}

type createTaskRequest struct {
	Type       string     `json:"type" binding:"required"`
	Payload    string     `json:"payload"`
	ScheduleAt *time.Time `json:"schedule_at"`
	MaxRetries *int       `json:"max_retries"`
}

var validTaskTypes = map[string]bool{
	string(domain.TaskTypeHTTP):  true,
	string(domain.TaskTypeShell): true,
	string(domain.TaskTypeDummy): true,
}

// Create handles POST /tasks.
func (h *TaskHandlers) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidJSON, err))
		return
	}
	if !validTaskTypes[req.Type] {
		writeError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errInvalidTaskType(req.Type)))
		return
	}

	scheduleAt := time.Now().UTC()
	if req.ScheduleAt != nil {
		scheduleAt = req.ScheduleAt.UTC()
	}
	maxRetries := h.defaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	if maxRetries < 0 {
		writeError(c, apierr.New(http.StatusBadRequest, apierr.CodeIllegalArgument, errNegativeMaxRetries))
		return
	}

	task, err := h.store.InsertTask(dbctx.Context{Ctx: c.Request.Context()}, domain.TaskType(req.Type), req.Payload, scheduleAt, maxRetries)
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusCreated, task)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandlers) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, apierr.New(http.StatusBadRequest, apierr.CodeTypeMismatch, err))
		return
	}
	task, err := h.store.GetTask(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	if task == nil {
		writeError(c, apierr.New(http.StatusNotFound, apierr.CodeValidation, errTaskNotFound))
		return
	}
	writeOK(c, http.StatusOK, task)
}

type listTasksResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// List handles GET /tasks?status=&type=&page=&size=.
func (h *TaskHandlers) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 20
	}

	tasks, total, err := h.store.ListTasks(dbctx.Context{Ctx: c.Request.Context()}, c.Query("status"), c.Query("type"), page, size)
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	writeOK(c, http.StatusOK, listTasksResponse{Tasks: tasks, Total: total, Page: page, Size: size})
}

// Delete handles DELETE /tasks/{id} — only a still-PENDING task can be
// cancelled (spec.md §6).
func (h *TaskHandlers) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, apierr.New(http.StatusBadRequest, apierr.CodeTypeMismatch, err))
		return
	}
	ok, err := h.store.DeleteTask(dbctx.Context{Ctx: c.Request.Context()}, id, domain.StatusPending)
	if err != nil {
		writeError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}
	if !ok {
		writeError(c, apierr.New(http.StatusConflict, apierr.CodeConstraintViolated, errTaskNotCancellable))
		return
	}
	c.Status(http.StatusNoContent)
}
