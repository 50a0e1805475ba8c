package sched

import (
	"fmt"
	"strings"
	"time"

	"jobmirror/internal/timezone"
)

// MaxRetryPolicy bounds the retry attempts a submission may request.
const MaxRetryPolicy = 10

// DefaultMinimumLead is the policy default for how far in the future a start
// time must lie at submission.
const DefaultMinimumLead = time.Minute

// Policy carries the submission rules the backend enforces; the client checks
// them before any network call is made.
type Policy struct {
	MinimumLead time.Duration
	Zone        timezone.Converter
}

// DefaultPolicy returns the one-minute-lead, IST policy.
func DefaultPolicy() Policy {
	return Policy{MinimumLead: DefaultMinimumLead, Zone: timezone.Default()}
}

// Input holds raw user-entered job fields prior to validation. StartTime is a
// timezone-naive datetime-local string; Repeat is in seconds.
type Input struct {
	Description  string
	CodeType     string
	CodeContent  string
	Priority     int
	Dependencies []string
	RetryPolicy  int
	StartTime    string
	Repeat       int
	// SelfID excludes self-referencing dependencies when editing an existing job.
	SelfID string
}

// FieldError describes a per-field validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks input against the policy as of now and, when clean, builds
// the wire-ready submission. The returned slice is nil when the input is
// valid; any entry blocks submission.
func Validate(in Input, policy Policy, now time.Time) (Submission, []FieldError) {
	if policy.MinimumLead <= 0 {
		policy.MinimumLead = DefaultMinimumLead
	}
	if policy.Zone.Location() == nil {
		policy.Zone = timezone.Default()
	}

	var errs []FieldError
	fail := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		fail("description", "description is required")
	}

	codeType, ok := ParseCodeType(in.CodeType)
	if !ok {
		fail("codeType", fmt.Sprintf("unknown code type %q", in.CodeType))
	}

	if strings.TrimSpace(in.CodeContent) == "" {
		fail("codeContent", "code content is required")
	}

	priority := Priority(in.Priority)
	if !priority.Valid() {
		fail("priority", "priority must be 0 (high), 1 (medium), or 2 (low)")
	}

	var startInstant time.Time
	if strings.TrimSpace(in.StartTime) == "" {
		fail("startTime", "start time is required")
	} else {
		civil, err := timezone.ParseInput(in.StartTime)
		if err != nil {
			fail("startTime", "start time must be in YYYY-MM-DDTHH:MM format")
		} else {
			startInstant = policy.Zone.ToInstant(civil)
			if !startInstant.After(now.Add(policy.MinimumLead)) {
				fail("startTime", fmt.Sprintf(
					"start time must be at least %s in the future (current time in %s: %s)",
					policy.MinimumLead, policy.Zone.Location(), policy.Zone.FormatTime(now),
				))
			}
		}
	}

	if in.RetryPolicy < 0 || in.RetryPolicy > MaxRetryPolicy {
		fail("retryPolicy", fmt.Sprintf("retry policy must be between 0 and %d", MaxRetryPolicy))
	}

	if in.Repeat < 0 {
		fail("repeat", "repeat interval cannot be negative")
	}

	if len(errs) > 0 {
		return Submission{}, errs
	}

	return Submission{
		Description:  description,
		CodeType:     codeType,
		CodeContent:  in.CodeContent,
		Priority:     priority,
		Dependencies: cleanDependencies(in.Dependencies, in.SelfID),
		RetryPolicy:  in.RetryPolicy,
		StartTime:    startInstant.UTC().Format(time.RFC3339),
		Repeat:       in.Repeat,
	}, nil
}

// cleanDependencies drops empty entries, duplicates, and self-references while
// preserving order. Referenced ids are otherwise opaque; acyclicity is the
// backend's job.
func cleanDependencies(deps []string, selfID string) []string {
	cleaned := make([]string, 0, len(deps))
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		trimmed := strings.TrimSpace(dep)
		if trimmed == "" || trimmed == selfID {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}
