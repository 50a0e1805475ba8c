package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmirror/internal/config"
	"jobmirror/internal/gateway"
	"jobmirror/internal/logging"
	"jobmirror/internal/realtime"
	"jobmirror/internal/sched"
	"jobmirror/internal/store"
)

// Session is one client's live view of the scheduler. It owns a gateway
// client, a realtime channel, and a job store, and keeps the store current
// from push events. Construct with New, wire up observers, then Start.
type Session struct {
	id      string
	cfg     *config.Config
	logger  *slog.Logger
	gateway *gateway.Client
	channel *realtime.Channel
	store   *store.Store
	policy  sched.Policy

	mu            sync.Mutex
	started       bool
	closed        bool
	connected     bool
	systemStatus  sched.SystemStatus
	workerStats   sched.WorkerStats
	onChange      []func()
	onConnection  []func(bool)
	onSystemError []func(string)
}

// Wire shapes of the push event payloads.
type (
	jobPayload struct {
		Job sched.Job `json:"job"`
	}
	jobIDPayload struct {
		JobID string `json:"jobId"`
	}
	listsPayload struct {
		Data struct {
			Queued []sched.Job `json:"queued"`
			Done   []sched.Job `json:"done"`
		} `json:"data"`
	}
	statsPayload struct {
		Stats sched.WorkerStats `json:"stats"`
	}
	statusPayload struct {
		Status sched.SystemStatus `json:"status"`
	}
	errorPayload struct {
		Error string `json:"error"`
	}
)

// New constructs a stopped session from configuration. Each session carries
// its own uuid, sent on the websocket handshake and attached to every log
// line so concurrent sessions stay distinguishable.
func New(cfg *config.Config, logger *slog.Logger) *Session {
	id := uuid.New().String()
	logger = logger.With(logging.String(logging.FieldSessionID, id))

	return &Session{
		id:      id,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "mirror"),
		gateway: gateway.New(cfg.Server.APIURL, cfg.RequestTimeout(), logger),
		channel: realtime.New(realtime.Options{
			URL:               cfg.Server.SocketURL,
			SessionID:         id,
			HandshakeTimeout:  cfg.HandshakeTimeout(),
			HeartbeatInterval: cfg.HeartbeatInterval(),
			Logger:            logger,
		}),
		store: store.New(logger),
		policy: sched.Policy{
			MinimumLead: cfg.MinimumLead(),
			Zone:        cfg.Zone(),
		},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Gateway exposes the underlying API client for one-shot calls that bypass
// the mirror, such as execution-order previews.
func (s *Session) Gateway() *gateway.Client {
	return s.gateway
}

// Policy returns the validation policy derived from configuration.
func (s *Session) Policy() sched.Policy {
	return s.policy
}

// Start populates the store with an initial full fetch and then opens the
// realtime channel. Calling Start twice is a no-op; starting a closed
// session is an error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session %s is closed", s.id)
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	if res := s.fetchAll(ctx); !res.OK {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return fmt.Errorf("initial fetch: %s", res.Message)
	}

	if res := s.gateway.SystemStatus(ctx); res.OK {
		s.mu.Lock()
		s.systemStatus = res.Status
		s.mu.Unlock()
	} else {
		s.logger.Warn("system status unavailable", logging.String("reason", res.Message))
	}

	s.subscribeAll()
	s.channel.Connect()
	s.logger.Info("session started")
	return nil
}

// Close tears down the realtime channel. Operations on a closed session
// return failure results.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.connected = false
	s.mu.Unlock()

	s.channel.Disconnect()
	s.logger.Info("session closed")
}

// CreateJob validates the input and submits it. Field errors come back
// without touching the network; on acceptance the whole mirror refetches so
// server-side defaults and dependency effects land too.
func (s *Session) CreateJob(ctx context.Context, in sched.Input) (gateway.JobResult, []sched.FieldError) {
	if res, ok := s.guard("create job"); !ok {
		return gateway.JobResult{Result: res}, nil
	}

	submission, fieldErrs := sched.Validate(in, s.policy, time.Now())
	if len(fieldErrs) > 0 {
		return gateway.JobResult{}, fieldErrs
	}

	res := s.gateway.CreateJob(ctx, submission)
	if res.OK {
		s.Refresh(ctx)
	}
	return res, nil
}

// UpdateJob validates a replacement definition for an existing job.
func (s *Session) UpdateJob(ctx context.Context, id string, in sched.Input) (gateway.JobResult, []sched.FieldError) {
	if res, ok := s.guard("update job"); !ok {
		return gateway.JobResult{Result: res}, nil
	}

	in.SelfID = id
	submission, fieldErrs := sched.Validate(in, s.policy, time.Now())
	if len(fieldErrs) > 0 {
		return gateway.JobResult{}, fieldErrs
	}

	res := s.gateway.UpdateJob(ctx, id, submission)
	if res.OK {
		s.Refresh(ctx)
	}
	return res, nil
}

// DeleteJob removes a job on the backend and, on success, drops it from the
// local mirror immediately rather than waiting for the push event.
func (s *Session) DeleteJob(ctx context.Context, id string) gateway.Result {
	if res, ok := s.guard("delete job"); !ok {
		return res
	}

	res := s.gateway.DeleteJob(ctx, id)
	if res.OK {
		s.store.Remove(id)
		s.notifyChange()
	}
	return res
}

// Refresh replaces the whole mirror with a fresh fetch.
func (s *Session) Refresh(ctx context.Context) gateway.Result {
	if res, ok := s.guard("refresh"); !ok {
		return res
	}
	return s.fetchAll(ctx)
}

// Snapshot returns the current ordered job lists.
func (s *Session) Snapshot() store.Snapshot {
	return s.store.Snapshot()
}

// Job looks up one job by id in the mirror.
func (s *Session) Job(id string) (sched.Job, bool) {
	return s.store.Get(id)
}

// Connected reports whether the realtime channel is currently up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SystemStatus returns the last system status the session saw.
func (s *Session) SystemStatus() sched.SystemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemStatus
}

// WorkerStats returns the last worker statistics the session saw.
func (s *Session) WorkerStats() sched.WorkerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workerStats
}

// OnChange registers a callback fired after any store mutation.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// OnConnection registers a callback fired on connection state transitions.
func (s *Session) OnConnection(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnection = append(s.onConnection, fn)
}

// OnSystemError registers a callback for backend-reported errors.
func (s *Session) OnSystemError(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSystemError = append(s.onSystemError, fn)
}

// guard rejects operations on a session that is closed or never started.
func (s *Session) guard(op string) (gateway.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gateway.Result{Message: op + ": session is closed"}, false
	}
	if !s.started {
		return gateway.Result{Message: op + ": session not started"}, false
	}
	return gateway.Result{OK: true}, true
}

func (s *Session) fetchAll(ctx context.Context) gateway.Result {
	res := s.gateway.ListJobs(ctx)
	if !res.OK {
		return res.Result
	}
	s.store.ReplaceAll(res.Jobs.Queued, res.Jobs.Done)
	s.notifyChange()
	return res.Result
}

func (s *Session) subscribeAll() {
	s.channel.Subscribe(realtime.EventConnected, func(json.RawMessage) {
		s.setConnected(true)
	})
	s.channel.Subscribe(realtime.EventDisconnected, func(json.RawMessage) {
		s.setConnected(false)
	})
	s.channel.Subscribe(realtime.EventConnectFailed, func(json.RawMessage) {
		s.setConnected(false)
	})

	s.channel.Subscribe(realtime.EventJobCreated, s.handleJob)
	s.channel.Subscribe(realtime.EventJobUpdated, s.handleJob)

	s.channel.Subscribe(realtime.EventJobDeleted, func(payload json.RawMessage) {
		var p jobIDPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.JobID == "" {
			s.logger.Warn("job_deleted payload missing jobId")
			return
		}
		s.store.Remove(p.JobID)
		s.notifyChange()
	})

	s.channel.Subscribe(realtime.EventJobListReplaced, func(payload json.RawMessage) {
		var p listsPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			s.logger.Warn("job_lists_updated payload malformed", logging.Error(err))
			return
		}
		s.store.ReplaceAll(p.Data.Queued, p.Data.Done)
		s.notifyChange()
	})

	s.channel.Subscribe(realtime.EventWorkerStats, func(payload json.RawMessage) {
		var p statsPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return
		}
		s.mu.Lock()
		s.workerStats = p.Stats
		if s.systemStatus.Workers != nil {
			stats := p.Stats
			s.systemStatus.Workers = &stats
		}
		s.mu.Unlock()
	})

	s.channel.Subscribe(realtime.EventSystemStatus, func(payload json.RawMessage) {
		var p statusPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return
		}
		s.mu.Lock()
		s.systemStatus = p.Status
		if p.Status.Workers != nil {
			s.workerStats = *p.Status.Workers
		}
		s.mu.Unlock()
	})

	s.channel.Subscribe(realtime.EventSystemError, func(payload json.RawMessage) {
		var p errorPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return
		}
		s.logger.Error("backend reported error", logging.String("error", p.Error))
		s.mu.Lock()
		observers := append([]func(string){}, s.onSystemError...)
		s.mu.Unlock()
		for _, fn := range observers {
			s.safeCall(func() { fn(p.Error) })
		}
	})
}

func (s *Session) handleJob(payload json.RawMessage) {
	var p jobPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("job payload malformed", logging.Error(err))
		return
	}
	s.store.Upsert(p.Job)
	s.notifyChange()
}

func (s *Session) setConnected(up bool) {
	s.mu.Lock()
	changed := s.connected != up
	s.connected = up
	observers := append([]func(bool){}, s.onConnection...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range observers {
		s.safeCall(func() { fn(up) })
	}
}

func (s *Session) notifyChange() {
	s.mu.Lock()
	observers := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range observers {
		s.safeCall(fn)
	}
}

// safeCall keeps one misbehaving observer from tearing down the session.
func (s *Session) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observer panicked", logging.Any("panic", r))
		}
	}()
	fn()
}
