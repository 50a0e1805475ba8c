package sched_test

import (
	"strings"
	"testing"
	"time"

	"jobmirror/internal/sched"
	"jobmirror/internal/timezone"
)

// fixedNow is an arbitrary reference instant for validation tests.
var fixedNow = time.Date(2025, time.July, 16, 9, 0, 0, 0, time.UTC)

func validInput(t *testing.T, lead time.Duration) sched.Input {
	t.Helper()
	conv := timezone.Default()
	return sched.Input{
		Description: "nightly report",
		CodeType:    "shell",
		CodeContent: "echo done",
		Priority:    1,
		StartTime:   conv.InputValue(fixedNow.Add(lead)),
		RetryPolicy: 2,
		Repeat:      0,
	}
}

func fieldsOf(errs []sched.FieldError) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field] = e.Message
	}
	return out
}

func TestValidateAcceptsCleanInput(t *testing.T) {
	in := validInput(t, time.Hour)
	in.Dependencies = []string{" job-1 ", "", "job-2", "job-1"}

	sub, errs := sched.Validate(in, sched.DefaultPolicy(), fixedNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if sub.Description != "nightly report" || sub.CodeType != sched.CodeTypeShell {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	if len(sub.Dependencies) != 2 || sub.Dependencies[0] != "job-1" || sub.Dependencies[1] != "job-2" {
		t.Fatalf("dependencies not cleaned: %v", sub.Dependencies)
	}
	parsed, err := time.Parse(time.RFC3339, sub.StartTime)
	if err != nil {
		t.Fatalf("start time is not RFC3339: %q", sub.StartTime)
	}
	if !parsed.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("start instant = %s, want %s", parsed, fixedNow.Add(time.Hour))
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	sub, errs := sched.Validate(sched.Input{CodeType: "shell"}, sched.DefaultPolicy(), fixedNow)
	if len(errs) == 0 {
		t.Fatal("expected validation errors")
	}
	if sub.Description != "" {
		t.Fatalf("submission should be empty on failure: %+v", sub)
	}
	fields := fieldsOf(errs)
	for _, field := range []string{"description", "codeContent", "startTime"} {
		if _, ok := fields[field]; !ok {
			t.Errorf("expected error on %s, got %v", field, fields)
		}
	}
}

func TestValidateLeadTimeBoundary(t *testing.T) {
	// The picker only carries minute precision, so drive the boundary through
	// "now": the same start time is 59s ahead from one reference and 61s ahead
	// from another.
	conv := timezone.Default()
	start := fixedNow.Add(2 * time.Minute)

	in := validInput(t, 0)
	in.StartTime = conv.InputValue(start)

	nowLate := start.Add(-59 * time.Second)
	if _, errs := sched.Validate(in, sched.DefaultPolicy(), nowLate); len(errs) == 0 {
		t.Fatal("start time 59s ahead should be rejected")
	} else if fields := fieldsOf(errs); !strings.Contains(fields["startTime"], "future") {
		t.Fatalf("unexpected startTime error: %v", fields)
	}

	nowEarly := start.Add(-61 * time.Second)
	if _, errs := sched.Validate(in, sched.DefaultPolicy(), nowEarly); len(errs) != 0 {
		t.Fatalf("start time 61s ahead should be accepted, got %v", errs)
	}
}

func TestValidateRanges(t *testing.T) {
	cases := []struct {
		name  string
		apply func(*sched.Input)
		field string
	}{
		{"retry too high", func(in *sched.Input) { in.RetryPolicy = 11 }, "retryPolicy"},
		{"retry negative", func(in *sched.Input) { in.RetryPolicy = -1 }, "retryPolicy"},
		{"repeat negative", func(in *sched.Input) { in.Repeat = -5 }, "repeat"},
		{"priority out of range", func(in *sched.Input) { in.Priority = 3 }, "priority"},
		{"unknown code type", func(in *sched.Input) { in.CodeType = "python2" }, "codeType"},
		{"bad start format", func(in *sched.Input) { in.StartTime = "noon tomorrow" }, "startTime"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(t, time.Hour)
			tc.apply(&in)
			_, errs := sched.Validate(in, sched.DefaultPolicy(), fixedNow)
			if _, ok := fieldsOf(errs)[tc.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateExcludesSelfReference(t *testing.T) {
	in := validInput(t, time.Hour)
	in.SelfID = "job-7"
	in.Dependencies = []string{"job-7", "job-8"}

	sub, errs := sched.Validate(in, sched.DefaultPolicy(), fixedNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sub.Dependencies) != 1 || sub.Dependencies[0] != "job-8" {
		t.Fatalf("self reference not excluded: %v", sub.Dependencies)
	}
}

func TestValidateCustomLead(t *testing.T) {
	policy := sched.Policy{MinimumLead: 10 * time.Minute, Zone: timezone.Default()}
	in := validInput(t, 5*time.Minute)
	if _, errs := sched.Validate(in, policy, fixedNow); len(errs) == 0 {
		t.Fatal("5m ahead should fail a 10m lead policy")
	}
	in = validInput(t, 15*time.Minute)
	if _, errs := sched.Validate(in, policy, fixedNow); len(errs) != 0 {
		t.Fatalf("15m ahead should pass a 10m lead policy: %v", errs)
	}
}
