package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.APIURL == "" {
		return errors.New("server.api_url must be set")
	}
	parsed, err := url.Parse(c.Server.APIURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("server.api_url %q is not a valid URL", c.Server.APIURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.api_url scheme must be http or https, got %q", parsed.Scheme)
	}

	socket, err := url.Parse(c.Server.SocketURL)
	if err != nil || socket.Host == "" {
		return fmt.Errorf("server.socket_url %q is not a valid URL", c.Server.SocketURL)
	}
	if socket.Scheme != "ws" && socket.Scheme != "wss" {
		return fmt.Errorf("server.socket_url scheme must be ws or wss, got %q", socket.Scheme)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	// Offsets beyond a day are always a typo; zero (UTC) and negative offsets are valid.
	if offset := c.Scheduler.TimezoneOffsetMinutes; offset <= -24*60 || offset >= 24*60 {
		return fmt.Errorf("scheduler.timezone_offset_minutes %d is out of range", offset)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
