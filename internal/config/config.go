// Package config loads the host CLI configuration. Agent modules take no
// configuration; everything here shapes the host around them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nmxmxh/fot_agents/internal/utils"
)

// EnvPath names the environment variable consulted when no path is given.
const EnvPath = "FOT_CONFIG"

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type GraphConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type AgentConfig struct {
	// Topic is the subject served by the topic agent.
	Topic string `yaml:"topic"`
}

type Config struct {
	Log             LogConfig     `yaml:"log"`
	Graph           GraphConfig   `yaml:"graph"`
	Agent           AgentConfig   `yaml:"agent"`
	EventCapacity   int           `yaml:"event_capacity"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Log:             LogConfig{Level: "info"},
		Graph:           GraphConfig{InMemory: true},
		Agent:           AgentConfig{Topic: "biology.photosynthesis"},
		EventCapacity:   256,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load reads path, or the file named by FOT_CONFIG when path is empty,
// over the defaults. With neither set the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, utils.WrapError(err, "read config")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, utils.WrapError(err, "parse config "+path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level)
	}
	if !c.Graph.InMemory && c.Graph.Path == "" {
		return fmt.Errorf("graph.path is required when graph.in_memory is false")
	}
	if c.Agent.Topic == "" {
		return fmt.Errorf("agent.topic must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

// Logger builds the root logger described by the log section.
func (c Config) Logger(component string) *utils.Logger {
	return utils.NewLogger(utils.LoggerConfig{
		Level:     utils.ParseLevel(c.Log.Level),
		Component: component,
		Output:    os.Stderr,
		JSON:      c.Log.JSON,
	})
}
