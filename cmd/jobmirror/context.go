package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"jobmirror/internal/config"
	"jobmirror/internal/gateway"
	"jobmirror/internal/logging"
	"jobmirror/internal/mirror"
	"jobmirror/internal/timezone"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// newGateway builds a one-shot API client for commands that do not need the
// realtime mirror.
func (c *commandContext) newGateway() (*gateway.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return gateway.New(cfg.Server.APIURL, cfg.RequestTimeout(), c.ensureLogger()), nil
}

func (c *commandContext) newSession() (*mirror.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return mirror.New(cfg, c.ensureLogger()), nil
}

// zone returns the configured submission timezone, falling back to the
// default offset when configuration never loaded.
func (c *commandContext) zone() timezone.Converter {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return timezone.Default()
	}
	return cfg.Zone()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
