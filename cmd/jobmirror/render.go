package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"jobmirror/internal/sched"
	"jobmirror/internal/timezone"
)

// writeJSON renders v as indented JSON on the command's stdout for --json
// consumers.
func writeJSON(cmd *cobra.Command, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return err
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusColor(status sched.Status) string {
	switch status {
	case sched.StatusRunning:
		return ansiBlue
	case sched.StatusSuccess:
		return ansiGreen
	case sched.StatusFailed:
		return ansiRed
	case sched.StatusQueued:
		return ansiYellow
	default:
		return ""
	}
}

func renderStatus(status sched.Status, colorize bool) string {
	label := string(status)
	if label == "" {
		label = "unknown"
	}
	if colorize {
		if color := statusColor(status); color != "" {
			return color + label + ansiReset
		}
	}
	return label
}

func renderConnection(up bool, colorize bool) string {
	if up {
		if colorize {
			return ansiGreen + "connected" + ansiReset
		}
		return "connected"
	}
	if colorize {
		return ansiRed + "disconnected" + ansiReset
	}
	return "disconnected"
}

// queuedRow formats one pending job for the queued table: start times render
// in the submission timezone with a relative countdown.
func queuedRow(job sched.Job, zone timezone.Converter, colorize bool) []string {
	start := job.StartTime
	return []string{
		job.ID,
		job.Description,
		job.CodeType.DisplayName(),
		job.Priority.Label(),
		renderStatus(job.Status, colorize),
		zone.Format(&start),
		zone.DeltaFromNow(job.StartTime).Human,
		strconv.Itoa(len(job.Dependencies)),
	}
}

// doneRow formats one finished job. The error column stays empty for
// successes.
func doneRow(job sched.Job, zone timezone.Converter, colorize bool) []string {
	return []string{
		job.ID,
		job.Description,
		job.CodeType.DisplayName(),
		renderStatus(job.Status, colorize),
		zone.Format(job.CompletedAt),
		truncate(job.ErrorMessage, 60),
	}
}

// truncate shortens s to at most limit runes so multi-byte characters in
// backend error messages never get split.
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func renderJobDetail(w io.Writer, job sched.Job, zone timezone.Converter, colorize bool) {
	start := job.StartTime
	created := job.CreatedAt

	fmt.Fprintf(w, "Job %s\n", job.ID)
	fmt.Fprintf(w, "  Description:  %s\n", job.Description)
	fmt.Fprintf(w, "  Type:         %s\n", job.CodeType.DisplayName())
	fmt.Fprintf(w, "  Priority:     %s\n", job.Priority.Label())
	fmt.Fprintf(w, "  Status:       %s\n", renderStatus(job.Status, colorize))
	fmt.Fprintf(w, "  Start:        %s (%s)\n", zone.Format(&start), zone.DeltaFromNow(job.StartTime).Human)
	fmt.Fprintf(w, "  Created:      %s\n", zone.Format(&created))
	fmt.Fprintf(w, "  Executed:     %s\n", zone.Format(job.ExecutedAt))
	fmt.Fprintf(w, "  Completed:    %s\n", zone.Format(job.CompletedAt))
	fmt.Fprintf(w, "  Retry policy: %d (used %d)\n", job.RetryPolicy, job.RetryCount)
	if job.Repeat > 0 {
		fmt.Fprintf(w, "  Repeat:       every %ds\n", job.Repeat)
	}
	if len(job.Dependencies) > 0 {
		fmt.Fprintf(w, "  Depends on:   %s\n", strings.Join(job.Dependencies, ", "))
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(w, "  Error:        %s\n", job.ErrorMessage)
	}
}
