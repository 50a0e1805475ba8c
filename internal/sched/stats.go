package sched

// WorkerStats summarizes the backend worker pool.
type WorkerStats struct {
	Total         int `json:"total"`
	Busy          int `json:"busy"`
	Idle          int `json:"idle"`
	CompletedJobs int `json:"completedJobs"`
	FailedJobs    int `json:"failedJobs"`
}

// DAGStats summarizes the backend dependency graph.
type DAGStats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
	Roots int `json:"roots"`
}

// SchedulerStats summarizes the backend scheduler queue.
type SchedulerStats struct {
	QueueLength   int       `json:"queueLength"`
	ScheduledJobs int       `json:"scheduledJobs"`
	DAGStats      *DAGStats `json:"dagStats,omitempty"`
}

// SystemStatus is the backend-reported service health snapshot.
type SystemStatus struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Workers   *WorkerStats    `json:"workers,omitempty"`
	Scheduler *SchedulerStats `json:"scheduler,omitempty"`
}

// Online reports whether the backend considers itself healthy.
func (s SystemStatus) Online() bool {
	return s.Status == "online"
}
