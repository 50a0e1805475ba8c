package config

import "strings"

// normalize trims user-supplied values and derives the socket URL from the API
// URL when it is not set explicitly.
func (c *Config) normalize() {
	c.Server.APIURL = strings.TrimRight(strings.TrimSpace(c.Server.APIURL), "/")
	c.Server.SocketURL = strings.TrimSpace(c.Server.SocketURL)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Server.SocketURL == "" && c.Server.APIURL != "" {
		c.Server.SocketURL = deriveSocketURL(c.Server.APIURL)
	}

	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.Server.HandshakeTimeoutSeconds <= 0 {
		c.Server.HandshakeTimeoutSeconds = defaultHandshakeTimeout
	}
	if c.Server.HeartbeatSeconds <= 0 {
		c.Server.HeartbeatSeconds = defaultHeartbeat
	}
	if c.Scheduler.MinimumLeadSeconds <= 0 {
		c.Scheduler.MinimumLeadSeconds = defaultMinimumLead
	}
}

// deriveSocketURL maps the HTTP base URL onto the realtime endpoint.
func deriveSocketURL(apiURL string) string {
	socket := apiURL
	socket = strings.Replace(socket, "https://", "wss://", 1)
	socket = strings.Replace(socket, "http://", "ws://", 1)
	return socket + "/socket"
}
