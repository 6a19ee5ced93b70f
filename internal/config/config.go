// Package config loads, validates, and writes Aegis's proxy configuration
// from ~/.aegis/config.yaml.
//
// The config defines:
//   - Proxy bind address (loopback only)
//   - CA data directory (root cert/key)
//   - Profile and rule file locations
//   - Classifier tuning (short-circuit threshold, ML/sentiment toggles)
//   - Control-plane and metrics ports
//   - Audit log directory
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the top-level Aegis configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" validate:"required"`
	CA           CAConfig           `yaml:"ca" validate:"required"`
	Profiles     ProfilesConfig     `yaml:"profiles" validate:"required"`
	Rules        RulesConfig        `yaml:"rules" validate:"required"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	ControlPlane ControlPlaneConfig `yaml:"control_plane" validate:"required"`
	Metrics      MetricsConfig      `yaml:"metrics" validate:"required"`
	Audit        AuditConfig        `yaml:"audit" validate:"required"`
	Cache        CacheConfig        `yaml:"cache"`
}

// CacheConfig selects the classification-result cache backend. Backend
// "memory" (the default) is process-local; "redis" shares results across
// every Aegis instance pointed at the same server, for multi-machine
// deployments where the same prompt is likely to recur.
type CacheConfig struct {
	Backend         string `yaml:"backend" validate:"omitempty,oneof=memory redis"`
	RedisAddr       string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB         int    `yaml:"redis_db"`
	DefaultTTLHours int    `yaml:"default_ttl_hours"`
}

// ServerConfig defines where the MITM proxy listens.
// Default: 127.0.0.1:8766 (loopback only — never bind to 0.0.0.0).
type ServerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required,min=1,max=65535"`
}

// CAConfig points at the directory holding the root CA's cert/key. Leaf
// certificates are kept in memory only and are not written here.
type CAConfig struct {
	DataDir string `yaml:"data_dir" validate:"required"`
}

// ProfilesConfig points at the profiles.yaml persisted by internal/profile.
type ProfilesConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// RulesConfig points at the parent-override and community-rule-pack files
// the control plane edits and internal/config.Watcher hot-reloads.
type RulesConfig struct {
	WhitelistPath string `yaml:"whitelist_path" validate:"required"`
	CommunityPath string `yaml:"community_path" validate:"required"`
}

// ClassifierConfig tunes the tiered classifier. ModelPath is reserved for a
// future Tier-2 ML backend (internal/classifier.MLClassifier) — currently
// unused since no ML implementation ships in this build.
type ClassifierConfig struct {
	ModelPath             string  `yaml:"model_path"`
	ShortCircuitThreshold float64 `yaml:"short_circuit_threshold" validate:"min=0,max=1"`
	EnableML              bool    `yaml:"enable_ml"`
	EnableSentiment       bool    `yaml:"enable_sentiment"`
}

// ControlPlaneConfig is the loopback REST+WebSocket API port.
type ControlPlaneConfig struct {
	Port int `yaml:"port" validate:"required,min=1,max=65535"`
}

// MetricsConfig is loaded and validated but not read by the daemon:
// Prometheus metrics are always served at /metrics on the control-plane
// port, whatever Enabled and Port say.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
}

// AuditConfig points at the hash-chained audit log's data directory.
type AuditConfig struct {
	DataDir string `yaml:"data_dir" validate:"required"`
}

// Load reads and parses config.yaml from the given path.
// If the file doesn't exist, returns defaults (not an error).
// Invalid YAML or a failed struct validation both return an error.
func Load(path string) (*Config, error) {
	cfg := applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// WriteDefault writes a default config.yaml with every field populated.
// Existing files at path are overwritten.
func WriteDefault(path string) error {
	cfg := applyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	header := `# Aegis Configuration
#
# server:          proxy bind address (loopback only)
# ca:               root CA data directory
# profiles:         profiles.yaml location
# rules:            parent-override whitelist and community rule pack paths,
#                   both hot-reloaded on write
# classifier:       Tier-1 short-circuit threshold, Tier-2/sentiment toggles
# control_plane:    loopback REST+WebSocket API port
# metrics:          not read; /metrics is always served on the control-plane port
# audit:            hash-chained decision log directory

`
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

// DefaultDir returns ~/.aegis, falling back to the current directory if the
// home directory can't be determined.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aegis"
	}
	return filepath.Join(home, ".aegis")
}

func applyDefaults() *Config {
	dir := DefaultDir()
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8766},
		CA:     CAConfig{DataDir: filepath.Join(dir, "ca")},
		Profiles: ProfilesConfig{
			Path: filepath.Join(dir, "profiles.yaml"),
		},
		Rules: RulesConfig{
			WhitelistPath: filepath.Join(dir, "rules.yaml"),
			CommunityPath: filepath.Join(dir, "community.yaml"),
		},
		Classifier: ClassifierConfig{
			ShortCircuitThreshold: 0.85,
			EnableML:              true,
			EnableSentiment:       true,
		},
		ControlPlane: ControlPlaneConfig{Port: 8767},
		Metrics:      MetricsConfig{Enabled: false, Port: 9766},
		Audit:        AuditConfig{DataDir: filepath.Join(dir, "audit")},
		Cache:        CacheConfig{Backend: "memory", DefaultTTLHours: 1},
	}
}
