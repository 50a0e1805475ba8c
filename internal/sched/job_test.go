package sched_test

import (
	"encoding/json"
	"testing"
	"time"

	"jobmirror/internal/sched"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		value string
		want  sched.Status
		ok    bool
	}{
		{"queued", sched.StatusQueued, true},
		{"RUNNING", sched.StatusRunning, true},
		{"  success  ", sched.StatusSuccess, true},
		{"failed", sched.StatusFailed, true},
		{"", "", false},
		// Unknown statuses come back normalized but not ok; callers branch on ok.
		{"pending", "pending", false},
		{" Cancelled ", "cancelled", false},
	}
	for _, tc := range cases {
		got, ok := sched.ParseStatus(tc.value)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.value, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusClassification(t *testing.T) {
	for _, status := range []sched.Status{sched.StatusQueued, sched.StatusRunning} {
		if status.Terminal() {
			t.Errorf("%s should not be terminal", status)
		}
		if !(sched.Job{Status: status}).Active() {
			t.Errorf("%s should be active", status)
		}
	}
	for _, status := range []sched.Status{sched.StatusSuccess, sched.StatusFailed} {
		if !status.Terminal() {
			t.Errorf("%s should be terminal", status)
		}
		if (sched.Job{Status: status}).Active() {
			t.Errorf("%s should not be active", status)
		}
	}
}

func TestDoneTimeFallsBackToCreation(t *testing.T) {
	created := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(time.Hour)

	job := sched.Job{CreatedAt: created}
	if got := job.DoneTime(); !got.Equal(created) {
		t.Fatalf("DoneTime without completion = %s, want %s", got, created)
	}
	job.CompletedAt = &completed
	if got := job.DoneTime(); !got.Equal(completed) {
		t.Fatalf("DoneTime with completion = %s, want %s", got, completed)
	}
}

func TestJobWireNames(t *testing.T) {
	completed := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	job := sched.Job{
		ID:           "job-1",
		Description:  "nightly report",
		CodeType:     sched.CodeTypeShell,
		Priority:     sched.PriorityHigh,
		Dependencies: []string{"job-0"},
		Status:       sched.StatusSuccess,
		StartTime:    time.Date(2025, time.July, 1, 11, 0, 0, 0, time.UTC),
		RetryPolicy:  3,
		Repeat:       3600,
		CreatedAt:    time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt:  &completed,
	}

	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal fields: %v", err)
	}
	for _, key := range []string{"id", "description", "codeType", "priority", "dependencies", "status", "startTime", "retryPolicy", "repeat", "createdAt", "completedAt"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing wire field %q", key)
		}
	}
	if _, ok := fields["errorMessage"]; ok {
		t.Error("errorMessage should be omitted when empty")
	}
}
