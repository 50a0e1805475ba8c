// Package testsupport provides shared fixtures for jobmirror tests: a fake
// scheduler backend serving the HTTP API and realtime socket, and config
// factories pointed at it.
package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"jobmirror/internal/sched"
)

// Scheduler is an in-memory stand-in for the backend scheduler. It serves the
// REST endpoints under /api and upgrades /socket connections so tests can
// push realtime events.
type Scheduler struct {
	t      testing.TB
	server *httptest.Server

	mu       sync.Mutex
	jobs     map[string]sched.Job
	nextID   int
	failMsg  string
	status   sched.SystemStatus
	order    []string
	conns    map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewScheduler starts a fake scheduler and registers cleanup with t.
func NewScheduler(t testing.TB) *Scheduler {
	t.Helper()
	s := &Scheduler{
		t:     t,
		jobs:  make(map[string]sched.Job),
		conns: make(map[*websocket.Conn]struct{}),
		status: sched.SystemStatus{
			Status:  "online",
			Message: "scheduler running",
			Workers: &sched.WorkerStats{Total: 4, Idle: 4},
			Scheduler: &sched.SchedulerStats{
				DAGStats: &sched.DAGStats{},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs/execution-order", s.handleExecutionOrder)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/system/status", s.handleSystemStatus)
	mux.HandleFunc("/api/system/workers", s.handleWorkerStats)
	mux.HandleFunc("/api/system/scheduler/stats", s.handleSchedulerStats)
	mux.HandleFunc("/socket", s.handleSocket)

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// URL returns the HTTP base URL of the fake scheduler.
func (s *Scheduler) URL() string {
	return s.server.URL
}

// SocketURL returns the websocket endpoint of the fake scheduler.
func (s *Scheduler) SocketURL() string {
	return strings.Replace(s.server.URL, "http://", "ws://", 1) + "/socket"
}

// Close shuts the server down and drops all websocket clients.
func (s *Scheduler) Close() {
	s.DropClients()
	s.server.Close()
}

// SeedJob stores a job without broadcasting, for pre-test setup.
func (s *Scheduler) SeedJob(job sched.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// SetOrder sets the execution-order preview response.
func (s *Scheduler) SetOrder(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = ids
}

// FailNext makes the next API call return a failure envelope with the message.
func (s *Scheduler) FailNext(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMsg = message
}

// JobCount reports how many jobs the fake currently stores.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// ClientCount reports the number of live websocket connections.
func (s *Scheduler) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// WaitForClient blocks until at least one websocket client is connected.
func (s *Scheduler) WaitForClient(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.ClientCount() > 0 {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// Broadcast pushes one realtime event to every connected client.
func (s *Scheduler) Broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.t.Fatalf("marshal broadcast payload: %v", err)
	}
	frame := struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{Event: event, Data: data}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteJSON(frame); err != nil {
			delete(s.conns, conn)
			_ = conn.Close()
		}
	}
}

// DropClients force-closes every websocket connection to exercise reconnects.
func (s *Scheduler) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
}

func (s *Scheduler) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	// Reader drains inbound frames (pings are handled by gorilla internally).
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Scheduler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.consumeFailure(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		queued, done := s.partition()
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"queued": queued, "done": done},
		})
	case http.MethodPost:
		var submission sched.Submission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			writeEnvelope(w, http.StatusBadRequest, map[string]any{
				"success": false, "message": "malformed submission",
			})
			return
		}
		job := s.createJob(submission)
		writeEnvelope(w, http.StatusCreated, map[string]any{"success": true, "job": job})
	default:
		writeEnvelope(w, http.StatusMethodNotAllowed, map[string]any{
			"success": false, "message": "method not allowed",
		})
	}
}

func (s *Scheduler) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.consumeFailure(w) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")

	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if !ok {
			writeEnvelope(w, http.StatusNotFound, map[string]any{
				"success": false, "message": fmt.Sprintf("job %s not found", id),
			})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "job": job})
	case http.MethodDelete:
		if !ok {
			writeEnvelope(w, http.StatusNotFound, map[string]any{
				"success": false, "message": fmt.Sprintf("job %s not found", id),
			})
			return
		}
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "deleted"})
	case http.MethodPut:
		if !ok {
			writeEnvelope(w, http.StatusNotFound, map[string]any{
				"success": false, "message": fmt.Sprintf("job %s not found", id),
			})
			return
		}
		var submission sched.Submission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			writeEnvelope(w, http.StatusBadRequest, map[string]any{
				"success": false, "message": "malformed submission",
			})
			return
		}
		job.Description = submission.Description
		job.Priority = submission.Priority
		job.Dependencies = submission.Dependencies
		s.mu.Lock()
		s.jobs[id] = job
		s.mu.Unlock()
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "job": job})
	default:
		writeEnvelope(w, http.StatusMethodNotAllowed, map[string]any{
			"success": false, "message": "method not allowed",
		})
	}
}

func (s *Scheduler) handleExecutionOrder(w http.ResponseWriter, _ *http.Request) {
	if s.consumeFailure(w) {
		return
	}
	s.mu.Lock()
	order := append([]string(nil), s.order...)
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": order})
}

func (s *Scheduler) handleSystemStatus(w http.ResponseWriter, _ *http.Request) {
	if s.consumeFailure(w) {
		return
	}
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": status})
}

func (s *Scheduler) handleWorkerStats(w http.ResponseWriter, _ *http.Request) {
	if s.consumeFailure(w) {
		return
	}
	s.mu.Lock()
	stats := *s.status.Workers
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

func (s *Scheduler) handleSchedulerStats(w http.ResponseWriter, _ *http.Request) {
	if s.consumeFailure(w) {
		return
	}
	s.mu.Lock()
	stats := *s.status.Scheduler
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

func (s *Scheduler) createJob(submission sched.Submission) sched.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	start, _ := time.Parse(time.RFC3339, submission.StartTime)
	job := sched.Job{
		ID:           fmt.Sprintf("job-%d", s.nextID),
		Description:  submission.Description,
		CodeType:     submission.CodeType,
		CodeContent:  submission.CodeContent,
		Priority:     submission.Priority,
		Dependencies: submission.Dependencies,
		Status:       sched.StatusQueued,
		StartTime:    start,
		RetryPolicy:  submission.RetryPolicy,
		Repeat:       submission.Repeat,
		CreatedAt:    time.Now().UTC(),
	}
	s.jobs[job.ID] = job
	return job
}

func (s *Scheduler) partition() (queued, done []sched.Job) {
	queued = make([]sched.Job, 0)
	done = make([]sched.Job, 0)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.Active() {
			queued = append(queued, job)
		} else {
			done = append(done, job)
		}
	}
	return queued, done
}

func (s *Scheduler) consumeFailure(w http.ResponseWriter) bool {
	s.mu.Lock()
	message := s.failMsg
	s.failMsg = ""
	s.mu.Unlock()
	if message == "" {
		return false
	}
	writeEnvelope(w, http.StatusInternalServerError, map[string]any{
		"success": false, "message": message,
	})
	return true
}

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
