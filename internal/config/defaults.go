package config

import "jobmirror/internal/timezone"

const (
	defaultAPIURL           = "http://localhost:5000"
	defaultRequestTimeout   = 30
	defaultHandshakeTimeout = 10
	defaultHeartbeat        = 20
	defaultMinimumLead      = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			APIURL:                  defaultAPIURL,
			RequestTimeoutSeconds:   defaultRequestTimeout,
			HandshakeTimeoutSeconds: defaultHandshakeTimeout,
			HeartbeatSeconds:        defaultHeartbeat,
		},
		Scheduler: Scheduler{
			MinimumLeadSeconds:    defaultMinimumLead,
			TimezoneOffsetMinutes: timezone.DefaultOffsetMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
