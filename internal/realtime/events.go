package realtime

// EventKind identifies one class of realtime event. The set is closed; wire
// names the client does not recognize are dropped at decode time.
type EventKind int

const (
	// EventConnected fires when the transport connects, and again if the
	// backend confirms the session with its own connection_established frame.
	EventConnected EventKind = iota
	// EventDisconnected fires when an established connection is lost.
	EventDisconnected
	// EventConnectFailed fires for each unsuccessful connection attempt.
	EventConnectFailed
	// EventJobUpdated carries a single job snapshot after a state change.
	EventJobUpdated
	// EventJobCreated carries a newly created job snapshot.
	EventJobCreated
	// EventJobDeleted carries the id of a removed job.
	EventJobDeleted
	// EventJobListReplaced carries a full snapshot of both partitions.
	EventJobListReplaced
	// EventWorkerStats carries worker pool statistics.
	EventWorkerStats
	// EventSystemStatus carries the backend health snapshot.
	EventSystemStatus
	// EventSystemError carries a backend-reported error message.
	EventSystemError
)

var eventNames = map[EventKind]string{
	EventConnected:       "connection_established",
	EventDisconnected:    "disconnect",
	EventConnectFailed:   "connect_error",
	EventJobUpdated:      "job_updated",
	EventJobCreated:      "job_created",
	EventJobDeleted:      "job_deleted",
	EventJobListReplaced: "job_lists_updated",
	EventWorkerStats:     "worker_stats_updated",
	EventSystemStatus:    "system_status_updated",
	EventSystemError:     "system_error",
}

var wireKinds = func() map[string]EventKind {
	m := make(map[string]EventKind, len(eventNames))
	for kind, name := range eventNames {
		m[name] = kind
	}
	return m
}()

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEvent maps a wire event name onto its kind.
func ParseEvent(name string) (EventKind, bool) {
	kind, ok := wireKinds[name]
	return kind, ok
}

// Outbound event names the client may emit to the backend.
const (
	RequestJobStatusEvent   = "request_job_status"
	RequestWorkerStatsEvent = "request_worker_stats"
)
