package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load with nonexistent file should not error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("default host: expected 127.0.0.1, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8766 {
		t.Errorf("default port: expected 8766, got %d", cfg.Server.Port)
	}
	if cfg.ControlPlane.Port != 8767 {
		t.Errorf("default control-plane port: expected 8767, got %d", cfg.ControlPlane.Port)
	}
	if !cfg.Classifier.EnableML || !cfg.Classifier.EnableSentiment {
		t.Error("default classifier tiers: expected ML and sentiment both enabled")
	}
	if cfg.Classifier.ShortCircuitThreshold != 0.85 {
		t.Errorf("default short-circuit threshold: expected 0.85, got %v", cfg.Classifier.ShortCircuitThreshold)
	}
	if cfg.Metrics.Enabled {
		t.Error("default metrics: expected disabled")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  host: "0.0.0.0"
  port: 9090
ca:
  data_dir: /tmp/aegis-ca
profiles:
  path: /tmp/aegis-profiles.yaml
rules:
  whitelist_path: /tmp/aegis-rules.yaml
  community_path: /tmp/aegis-community.yaml
classifier:
  short_circuit_threshold: 0.9
  enable_ml: false
  enable_sentiment: true
control_plane:
  port: 9191
metrics:
  enabled: true
  port: 9292
audit:
  data_dir: /tmp/aegis-audit
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host: expected 0.0.0.0, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.Classifier.EnableML {
		t.Error("enable_ml: expected false")
	}
	if cfg.Metrics.Port != 9292 {
		t.Errorf("metrics port: expected 9292, got %d", cfg.Metrics.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`{{{invalid yaml`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port: expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host should be default 127.0.0.1, got %q", cfg.Server.Host)
	}
}

func TestLoad_InvalidPortFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  host: "127.0.0.1"
  port: 70000
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}

func TestLoad_EmptyHostFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  host: ""
  port: 8766
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for empty host")
	}
}

func TestWriteDefault_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after WriteDefault: %v", err)
	}

	if cfg.Server.Port != 8766 {
		t.Errorf("roundtrip port: expected 8766, got %d", cfg.Server.Port)
	}
	if cfg.ControlPlane.Port != 8767 {
		t.Errorf("roundtrip control-plane port: expected 8767, got %d", cfg.ControlPlane.Port)
	}
}

func TestDefaultDirNotEmpty(t *testing.T) {
	if DefaultDir() == "" {
		t.Error("DefaultDir should never return an empty string")
	}
}
