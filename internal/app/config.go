package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/addonkit/internal/registry"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModulesPath string   // addon manifests, .hcl and .yaml
	ExtraPaths  []string // further manifest files or directories

	LogFormat       string
	LogLevel        string
	DuplicatePolicy string
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModulesPath == "" && len(cfg.ExtraPaths) == 0 {
		return nil, errors.New("ModulesPath is a required configuration field and cannot be empty")
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	if _, err := registry.ParseDuplicatePolicy(cfg.DuplicatePolicy); err != nil {
		return nil, err
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}

	return &cfg, nil
}

// Paths returns every manifest location to load, in order.
func (c *Config) Paths() []string {
	var paths []string
	if c.ModulesPath != "" {
		paths = append(paths, c.ModulesPath)
	}
	return append(paths, c.ExtraPaths...)
}

func (c *Config) policy() registry.DuplicatePolicy {
	p, _ := registry.ParseDuplicatePolicy(c.DuplicatePolicy)
	return p
}
