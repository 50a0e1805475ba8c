// Package store owns the canonical in-memory partition of mirrored jobs into
// queued and done sets.
//
// Updates arrive from two unordered sources (the realtime channel and full
// HTTP refetches), so every operation re-derives partition membership from the
// job's own status and removes stale entries from both partitions before
// inserting. No job id ever appears in more than one partition, upserts are
// idempotent, and operations never fail: malformed input is dropped or
// defensively classified with a diagnostic instead of raising.
package store
