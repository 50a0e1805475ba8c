package sched

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the backend-owned lifecycle state of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusSuccess,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status marks a finished job (success or failed).
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Known reports whether the status belongs to the closed status set.
func (s Status) Known() bool {
	_, ok := statusSet[s]
	return ok
}

// CodeType identifies the execution kind of a job's payload. The client never
// executes code; the type is a display and validation concern only.
type CodeType string

const (
	CodeTypeJavaScript CodeType = "javascript"
	CodeTypeShell      CodeType = "shell"
	CodeTypeFile       CodeType = "file"
)

var allCodeTypes = []CodeType{CodeTypeJavaScript, CodeTypeShell, CodeTypeFile}

// AllCodeTypes returns the ordered list of submittable code types.
func AllCodeTypes() []CodeType {
	cp := make([]CodeType, len(allCodeTypes))
	copy(cp, allCodeTypes)
	return cp
}

// ParseCodeType converts a string into a known CodeType.
func ParseCodeType(value string) (CodeType, bool) {
	normalized := CodeType(strings.ToLower(strings.TrimSpace(value)))
	for _, ct := range allCodeTypes {
		if ct == normalized {
			return ct, true
		}
	}
	return "", false
}

// DisplayName returns the human-readable label for the code type. Types the
// backend may report but the client does not submit fall back to title case.
func (ct CodeType) DisplayName() string {
	switch ct {
	case CodeTypeJavaScript:
		return "JavaScript"
	case CodeTypeShell:
		return "Shell"
	case CodeTypeFile:
		return "File"
	case "":
		return "Unknown"
	default:
		return cases.Title(language.Und).String(string(ct))
	}
}

// Priority is an ordinal rank; lower value means higher priority.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityMedium Priority = 1
	PriorityLow    Priority = 2
)

// Valid reports whether the priority is in the accepted range.
func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// Label returns the human-readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Job is the unit of schedulable work as mirrored client-side. All fields are
// backend-reported; the client never mutates a job except through submission
// or deletion acknowledged by the backend.
type Job struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	CodeType     CodeType   `json:"codeType"`
	CodeContent  string     `json:"codeContent,omitempty"`
	Priority     Priority   `json:"priority"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Status       Status     `json:"status"`
	StartTime    time.Time  `json:"startTime"`
	RetryPolicy  int        `json:"retryPolicy"`
	RetryCount   int        `json:"retryCount"`
	Repeat       int        `json:"repeat"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExecutedAt   *time.Time `json:"executedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// Active reports whether the job belongs to the queued partition.
func (j Job) Active() bool {
	return j.Status == StatusQueued || j.Status == StatusRunning
}

// DoneTime returns the instant used for ordering finished jobs: completion
// time when present, creation time otherwise.
func (j Job) DoneTime() time.Time {
	if j.CompletedAt != nil && !j.CompletedAt.IsZero() {
		return *j.CompletedAt
	}
	return j.CreatedAt
}

// Submission is the payload sent to the backend when creating or updating a
// job. StartTime is an ISO-8601 instant string with an explicit offset; the
// civil-to-instant conversion happens before this struct is built.
type Submission struct {
	Description  string   `json:"description"`
	CodeType     CodeType `json:"codeType"`
	CodeContent  string   `json:"codeContent"`
	Priority     Priority `json:"priority"`
	Dependencies []string `json:"dependencies"`
	RetryPolicy  int      `json:"retryPolicy"`
	StartTime    string   `json:"startTime"`
	Repeat       int      `json:"repeat"`
}
