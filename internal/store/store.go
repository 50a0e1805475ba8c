package store

import (
	"log/slog"
	"sort"
	"sync"

	"jobmirror/internal/logging"
	"jobmirror/internal/sched"
)

// Snapshot is a point-in-time copy of both partitions, ordered for display:
// queued ascending by priority then start time, done most-recently-finished
// first.
type Snapshot struct {
	Queued []sched.Job
	Done   []sched.Job
}

// Store holds the two-partition job collection. All mutations are serialized
// through one mutex so updates from the channel read loop and gateway
// responses fold in race-free regardless of arrival order.
type Store struct {
	mu     sync.Mutex
	logger *slog.Logger
	queued map[string]sched.Job
	done   map[string]sched.Job
}

// New constructs an empty store. A nil logger falls back to a no-op logger.
func New(logger *slog.Logger) *Store {
	return &Store{
		logger: logging.NewComponentLogger(logger, "store"),
		queued: make(map[string]sched.Job),
		done:   make(map[string]sched.Job),
	}
}

// ReplaceAll overwrites both partitions. Membership is re-derived from each
// job's status rather than trusting the caller's bucketing, so a misclassified
// source cannot break the partition invariant.
func (s *Store) ReplaceAll(queued, done []sched.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queued = make(map[string]sched.Job, len(queued))
	s.done = make(map[string]sched.Job, len(done))
	for _, job := range queued {
		s.insertLocked(job)
	}
	for _, job := range done {
		s.insertLocked(job)
	}
}

// Upsert removes any entry with the same id from both partitions, then
// inserts the job into the partition its status selects. Applying the same
// snapshot twice is a no-op; a status transition migrates the entry
// atomically from the caller's point of view.
func (s *Store) Upsert(job sched.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(job)
}

// Remove drops the id from whichever partition contains it. Absent ids are a
// no-op.
func (s *Store) Remove(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queued, id)
	delete(s.done, id)
}

// Get returns the job with the given id from either partition.
func (s *Store) Get(id string) (sched.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.queued[id]; ok {
		return job, true
	}
	job, ok := s.done[id]
	return job, ok
}

// Counts returns the current partition sizes.
func (s *Store) Counts() (queued, done int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queued), len(s.done)
}

// Snapshot copies both partitions in display order. The returned slices are
// owned by the caller.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	queued := make([]sched.Job, 0, len(s.queued))
	for _, job := range s.queued {
		queued = append(queued, job)
	}
	done := make([]sched.Job, 0, len(s.done))
	for _, job := range s.done {
		done = append(done, job)
	}
	s.mu.Unlock()

	sort.SliceStable(queued, func(i, j int) bool {
		if queued[i].Priority != queued[j].Priority {
			return queued[i].Priority < queued[j].Priority
		}
		return queued[i].StartTime.Before(queued[j].StartTime)
	})
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].DoneTime().After(done[j].DoneTime())
	})

	return Snapshot{Queued: queued, Done: done}
}

// insertLocked applies the partition rule for one job. Jobs without an id are
// dropped; unknown statuses are classified into done so the entry stays
// visible rather than vanishing.
func (s *Store) insertLocked(job sched.Job) {
	if job.ID == "" {
		s.logger.Warn("dropping job without id", logging.String("status", string(job.Status)))
		return
	}
	delete(s.queued, job.ID)
	delete(s.done, job.ID)

	switch {
	case job.Active():
		s.queued[job.ID] = job
	case job.Status.Terminal():
		s.done[job.ID] = job
	default:
		s.logger.Warn("classifying job with unknown status as done",
			logging.String("job_id", job.ID),
			logging.String("status", string(job.Status)))
		s.done[job.ID] = job
	}
}
