// Package config loads gateway configuration from the process environment
// and dotenv files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultPort = 3000

	EnvDotfileName = ".anthropic-proxy.env"
)

// Config holds the frozen-at-startup configuration for the gateway. It is
// populated once from the environment (optionally seeded by a dotenv file)
// and never mutated afterwards.
type Config struct {
	UpstreamBaseURL string `env:"UPSTREAM_BASE_URL"`
	UpstreamAPIKey  string `env:"UPSTREAM_API_KEY"`
	Port            int    `env:"PORT" envDefault:"3000"`
	ReasoningModel  string `env:"REASONING_MODEL"`
	CompletionModel string `env:"COMPLETION_MODEL"`
	Debug           bool   `env:"DEBUG" envDefault:"false"`
	Verbose         bool   `env:"VERBOSE" envDefault:"false"`

	// RequestTimeout bounds an entire downstream request; zero disables it.
	RequestTimeout int `env:"REQUEST_TIMEOUT" envDefault:"0"`
	// UpstreamIdleTimeoutSeconds bounds the gap between upstream SSE chunks.
	UpstreamIdleTimeoutSeconds int `env:"UPSTREAM_IDLE_TIMEOUT" envDefault:"60"`
}

// Manager loads configuration once and serves it from an atomic cache,
// mirroring the teacher's load-once-atomic.Value pattern.
type Manager struct {
	configPath  string
	configValue atomic.Value
}

// NewManager creates a Manager. configPath is an explicit --config override;
// pass "" to use the default dotenv search order.
func NewManager(configPath string) *Manager {
	return &Manager{configPath: configPath}
}

// Load resolves the dotenv search order from §6, merges it under the real
// process environment, and binds the result onto Config.
func (m *Manager) Load() (*Config, error) {
	dotenvVars, err := m.readDotenv()
	if err != nil {
		return nil, fmt.Errorf("read dotenv file: %w", err)
	}

	for key, value := range dotenvVars {
		if _, present := os.LookupEnv(key); !present {
			os.Setenv(key, value)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	m.configValue.Store(&cfg)

	return &cfg, nil
}

// readDotenv locates the first candidate dotenv file per §6's search order
// and parses it without mutating the process environment itself.
func (m *Manager) readDotenv() (map[string]string, error) {
	for _, path := range m.candidatePaths() {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); err != nil {
			continue
		}

		return godotenv.Read(path)
	}

	return nil, nil
}

func (m *Manager) candidatePaths() []string {
	paths := []string{m.configPath, "./.env"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, EnvDotfileName))
	}

	paths = append(paths, filepath.Join("/etc/anthropic-proxy", ".env"))

	return paths
}

// Get returns the cached configuration, loading it if necessary.
func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		return &Config{Port: DefaultPort}
	}

	return cfg
}
