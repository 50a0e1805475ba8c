package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jobmirror/internal/logging"
	"jobmirror/internal/sched"
)

// Client performs request/response calls against the scheduler API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New constructs a client for the given API base URL. A zero timeout falls
// back to 30 seconds so calls can never hang indefinitely.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "gateway"),
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Job     json.RawMessage `json:"job"`
}

// ListJobs fetches the full two-partition job listing.
func (c *Client) ListJobs(ctx context.Context) ListResult {
	var jobs JobList
	res := c.call(ctx, http.MethodGet, "/api/jobs", nil, &jobs)
	return ListResult{Result: res, Jobs: jobs}
}

// GetJob fetches one job by id.
func (c *Client) GetJob(ctx context.Context, id string) JobResult {
	var job sched.Job
	res := c.call(ctx, http.MethodGet, "/api/jobs/"+id, nil, &job)
	return JobResult{Result: res, Job: job}
}

// CreateJob submits a validated job payload.
func (c *Client) CreateJob(ctx context.Context, submission sched.Submission) JobResult {
	var job sched.Job
	res := c.call(ctx, http.MethodPost, "/api/jobs", submission, &job)
	return JobResult{Result: res, Job: job}
}

// UpdateJob replaces an existing job's definition.
func (c *Client) UpdateJob(ctx context.Context, id string, submission sched.Submission) JobResult {
	var job sched.Job
	res := c.call(ctx, http.MethodPut, "/api/jobs/"+id, submission, &job)
	return JobResult{Result: res, Job: job}
}

// DeleteJob removes a job by id.
func (c *Client) DeleteJob(ctx context.Context, id string) Result {
	return c.call(ctx, http.MethodDelete, "/api/jobs/"+id, nil, nil)
}

// ExecutionOrder fetches the DAG execution-order preview.
func (c *Client) ExecutionOrder(ctx context.Context) OrderResult {
	var order []string
	res := c.call(ctx, http.MethodGet, "/api/jobs/execution-order", nil, &order)
	return OrderResult{Result: res, Order: order}
}

// SystemStatus fetches the backend health snapshot.
func (c *Client) SystemStatus(ctx context.Context) SystemStatusResult {
	var status sched.SystemStatus
	res := c.call(ctx, http.MethodGet, "/api/system/status", nil, &status)
	return SystemStatusResult{Result: res, Status: status}
}

// WorkerStats fetches worker pool statistics.
func (c *Client) WorkerStats(ctx context.Context) WorkerStatsResult {
	var stats sched.WorkerStats
	res := c.call(ctx, http.MethodGet, "/api/system/workers", nil, &stats)
	return WorkerStatsResult{Result: res, Stats: stats}
}

// SchedulerStats fetches scheduler queue statistics.
func (c *Client) SchedulerStats(ctx context.Context) SchedulerStatsResult {
	var stats sched.SchedulerStats
	res := c.call(ctx, http.MethodGet, "/api/system/scheduler/stats", nil, &stats)
	return SchedulerStatsResult{Result: res, Stats: stats}
}

// call performs one request and normalizes every failure mode into the result
// shape. The decoded payload lands in out when out is non-nil; the backend
// reports it under either "data" or "job".
func (c *Client) call(ctx context.Context, method, path string, body any, out any) Result {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return failure(fmt.Sprintf("encode request: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return failure(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			logging.String("method", method),
			logging.String("path", path),
			logging.Error(err))
		return failure(fmt.Sprintf("%s %s: %v", method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("read response: %v", err))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return failure(fmt.Sprintf("%s %s: malformed response (HTTP %d)", method, path, resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		message := strings.TrimSpace(env.Message)
		if message == "" {
			message = fmt.Sprintf("%s %s: HTTP %d", method, path, resp.StatusCode)
		}
		return failure(message)
	}

	if out != nil {
		payload := env.Data
		if len(payload) == 0 {
			payload = env.Job
		}
		if len(payload) == 0 {
			return failure(fmt.Sprintf("%s %s: response has no payload", method, path))
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return failure(fmt.Sprintf("%s %s: decode payload: %v", method, path, err))
		}
	}

	return success()
}
