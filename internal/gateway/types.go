package gateway

import "jobmirror/internal/sched"

// Result is the discriminator every gateway operation carries. OK is true for
// a decoded success response; otherwise Message holds a human-readable
// failure description.
type Result struct {
	OK      bool
	Message string
}

func success() Result {
	return Result{OK: true}
}

func failure(message string) Result {
	return Result{OK: false, Message: message}
}

// JobList is the backend's two-partition job listing.
type JobList struct {
	Queued []sched.Job `json:"queued"`
	Done   []sched.Job `json:"done"`
}

// ListResult carries a full job listing.
type ListResult struct {
	Result
	Jobs JobList
}

// JobResult carries a single job snapshot.
type JobResult struct {
	Result
	Job sched.Job
}

// OrderResult carries the DAG execution-order preview as job ids.
type OrderResult struct {
	Result
	Order []string
}

// SystemStatusResult carries the backend health snapshot.
type SystemStatusResult struct {
	Result
	Status sched.SystemStatus
}

// WorkerStatsResult carries worker pool statistics.
type WorkerStatsResult struct {
	Result
	Stats sched.WorkerStats
}

// SchedulerStatsResult carries scheduler queue statistics.
type SchedulerStatsResult struct {
	Result
	Stats sched.SchedulerStats
}
