// Package config reads process settings from the environment.
package config

import (
	"os"
	"strings"

	"github.com/edaniels/golog"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"rrtnav/scenario"
)

// Prefix is prepended to every variable name, e.g. RRTNAV_PORT.
const Prefix = "rrtnav"

// Config holds process-wide settings. Zero values for Seed and MaxIterations leave the scenario's
// own values in place.
type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	Scenario       string `envconfig:"SCENARIO"`
	Seed           int64  `envconfig:"SEED"`
	MaxIterations  int    `envconfig:"MAX_ITERATIONS"`
	Realtime       bool   `envconfig:"REALTIME" default:"true"`
	Retries        int    `envconfig:"RETRIES" default:"2"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	Debug          bool   `envconfig:"DEBUG"`
}

// Load reads the given dotenv files (or .env when none are given), then the environment.
// Missing dotenv files are ignored; variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load %s", file)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ApplyTo overrides scenario planner settings that were set in the environment.
func (c *Config) ApplyTo(s *scenario.Scenario) {
	if c.Seed != 0 {
		s.Planner.Seed = c.Seed
	}
	if c.MaxIterations > 0 {
		s.Planner.MaxIterations = c.MaxIterations
	}
}

// LoadScenario reads the configured scenario file, or returns the built-in course when none is
// configured, with environment overrides applied.
func (c *Config) LoadScenario(logger golog.Logger) (*scenario.Scenario, error) {
	var (
		s   *scenario.Scenario
		err error
	)
	if c.Scenario == "" {
		s = scenario.Default()
	} else if s, err = scenario.Load(c.Scenario, logger); err != nil {
		return nil, err
	}
	c.ApplyTo(s)
	return s, nil
}
