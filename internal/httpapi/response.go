// Package httpapi is the HTTP surface from spec.md §6: task CRUD and
// health/monitoring endpoints over gin, with a request-scoped correlation
// id attached to every response envelope. Grounded on the teacher's
// internal/http handler+router layout (gin.Engine, gin-contrib/cors,
// a uniform JSON error envelope) and its AttachTraceContext middleware
// (internal/http/middleware/trace.go), generalized from the teacher's
// OpenTelemetry-span-derived trace id to a per-request uuid when no
// incoming span context is present.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/apierr"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/ctxutil"
)

// errorBody is the nested error object of the response envelope.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// envelope is the uniform shape of every non-2xx JSON response.
type envelope struct {
	Error     *errorBody `json:"error,omitempty"`
	TraceID   string     `json:"trace_id,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// writeError renders err as the standard error envelope, deriving the HTTP
// status and taxonomy code from an *apierr.Error when present, and falling
// back to 500/INTERNAL_ERROR for anything else.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := apierr.CodeInternal
	msg := err.Error()

	if ae, ok := err.(*apierr.Error); ok {
		status = ae.Status
		code = ae.Code
	}

	td := ctxutil.GetTraceData(c.Request.Context())
	env := envelope{Error: &errorBody{Message: msg, Code: code}}
	if td != nil {
		env.TraceID = td.TraceID
		env.RequestID = td.RequestID
	}
	c.JSON(status, env)
}

// writeOK renders a 2xx JSON payload as-is.
func writeOK(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}
