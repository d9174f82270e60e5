// Package config provides configuration management for meshscope.
//
// Config file locations (priority order):
//  1. $MESHSCOPE_CONFIG
//  2. ./meshscope.yaml
//  3. ~/.config/meshscope/config.yaml
//  4. /etc/meshscope/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration shared by the front-ends
type Config struct {
	// Monitor holds the live-ingestion settings
	Monitor MonitorConfig `yaml:"monitor"`

	// Nodes maps node ids to their UDP addresses for command dispatch
	Nodes map[int]string `yaml:"nodes"`

	// Database is the SQLite run-archive path
	Database string `yaml:"database"`
}

// MonitorConfig configures the live UDP monitor
type MonitorConfig struct {
	// ListenAddr receives event datagrams from the mesh
	ListenAddr string `yaml:"listen_addr"`
	// CommandPort is the UDP port nodes listen on for commands
	CommandPort int `yaml:"command_port"`
	// Output is the default CSV path for saved event logs
	Output string `yaml:"output"`
	// MetricsAddr exposes Prometheus metrics when set (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// FindConfigPath returns the first existing config path, or ""
func FindConfigPath() string {
	if p := os.Getenv("MESHSCOPE_CONFIG"); p != "" {
		return p
	}
	candidates := []string{"./meshscope.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "meshscope", "config.yaml"))
	}
	candidates = append(candidates, "/etc/meshscope/config.yaml")
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Monitor.ListenAddr == "" {
		c.Monitor.ListenAddr = "0.0.0.0:5001"
	}
	if c.Monitor.CommandPort == 0 {
		c.Monitor.CommandPort = 5002
	}
	if c.Monitor.Output == "" {
		c.Monitor.Output = "mesh_events.csv"
	}
	if c.Database == "" {
		c.Database = "./meshscope.db"
	}
	if c.Nodes == nil {
		c.Nodes = make(map[int]string)
	}
}
