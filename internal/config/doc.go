// Package config loads and validates jobmirror's TOML configuration.
//
// Configuration covers the scheduler endpoints (HTTP API and realtime socket),
// transport timeouts, submission policy (minimum lead time, fixed timezone
// offset), and logging. Load resolves the config path, applies defaults,
// normalizes derived values, and validates before returning; a missing file is
// not an error and yields the defaults.
package config
