package testsupport

import (
	"testing"

	"jobmirror/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config pointed at the given fake scheduler with short
// timeouts suitable for tests.
func NewConfig(t testing.TB, sched *Scheduler, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Server.APIURL = sched.URL()
	cfg.Server.SocketURL = sched.SocketURL()
	cfg.Server.RequestTimeoutSeconds = 5
	cfg.Server.HandshakeTimeoutSeconds = 2
	cfg.Server.HeartbeatSeconds = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLeadSeconds overrides the minimum lead-time policy on the test config.
func WithLeadSeconds(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.MinimumLeadSeconds = seconds
	}
}
