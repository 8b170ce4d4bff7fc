package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

// HTTPExecutor issues a single HTTP request described by a task's payload
// and reports the response body (truncated) as output. A non-2xx response
// is a recoverable Fail, not an UnrecoverableError — a flaky downstream is
// exactly what the Retry Policy exists for (spec.md §4.3).
type HTTPExecutor struct {
	Client *http.Client
}

type httpPayload struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
	TimeoutMs int             `json:"timeoutMs"`
}

const maxHTTPOutputBytes = 8 << 10

func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (e *HTTPExecutor) Handles(taskType string) bool {
	return taskType == string(domain.TaskTypeHTTP)
}

func (e *HTTPExecutor) Execute(ctx context.Context, task *domain.Task) ExecutionResult {
	var p httpPayload
	if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
		panic(&UnrecoverableError{Msg: "invalid HTTP payload: " + err.Error()})
	}
	if p.URL == "" {
		panic(&UnrecoverableError{Msg: "HTTP payload missing url"})
	}
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if p.TimeoutMs > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(p.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, p.URL, bytes.NewBufferString(p.Body))
	if err != nil {
		return Fail("building HTTP request: "+err.Error(), nil)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Fail("HTTP request failed: "+err.Error(), nil)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxHTTPOutputBytes))
	meta := map[string]any{"status_code": resp.StatusCode}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Fail(fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, string(body)), meta)
	}
	return Succeed(string(body), meta)
}
