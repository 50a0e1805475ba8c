package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobmirror/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Server.APIURL != "http://localhost:5000" {
		t.Fatalf("default api_url = %q", cfg.Server.APIURL)
	}
	if cfg.Server.SocketURL != "ws://localhost:5000/socket" {
		t.Fatalf("derived socket_url = %q", cfg.Server.SocketURL)
	}
	if cfg.MinimumLead() != time.Minute {
		t.Fatalf("default lead = %s", cfg.MinimumLead())
	}
	if cfg.Scheduler.TimezoneOffsetMinutes != 330 {
		t.Fatalf("default offset = %d", cfg.Scheduler.TimezoneOffsetMinutes)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[server]
api_url = "https://sched.example.com/"
request_timeout = 5

[scheduler]
minimum_lead_seconds = 120
timezone_offset_minutes = 0

[logging]
format = "JSON"
level = "DEBUG"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("file should exist")
	}
	if cfg.Server.APIURL != "https://sched.example.com" {
		t.Fatalf("api_url not trimmed: %q", cfg.Server.APIURL)
	}
	if cfg.Server.SocketURL != "wss://sched.example.com/socket" {
		t.Fatalf("socket_url = %q", cfg.Server.SocketURL)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Fatalf("request timeout = %s", cfg.RequestTimeout())
	}
	if cfg.MinimumLead() != 2*time.Minute {
		t.Fatalf("lead = %s", cfg.MinimumLead())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	// Offset zero is valid (UTC backend).
	if loc := cfg.Zone().Location(); loc.String() != "UTC+00:00" {
		t.Fatalf("zone = %s", loc)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"bad api scheme", "[server]\napi_url = \"ftp://example.com\"\n"},
		{"bad socket scheme", "[server]\nsocket_url = \"http://example.com\"\n"},
		{"offset out of range", "[scheduler]\ntimezone_offset_minutes = 1500\n"},
		{"bad log format", "[logging]\nformat = \"yaml\"\n"},
		{"bad log level", "[logging]\nlevel = \"loud\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("sample file should exist")
	}
	if cfg.Server.APIURL == "" || cfg.Server.SocketURL == "" {
		t.Fatalf("sample produced incomplete config: %+v", cfg.Server)
	}
}
