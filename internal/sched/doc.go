// Package sched defines the client-side model of scheduler jobs: statuses,
// priorities, code types, the Job mirror record, and pre-submission
// validation.
//
// The backend owns the job state machine; this package only classifies and
// validates. Status determines which store partition a job belongs to
// (queued/running are active, success/failed are terminal), and Validate
// converts user input into the wire-ready submission payload, including the
// fixed-timezone start-time conversion and the minimum-lead-time rule.
package sched
