package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitProspectorDirCreatesStructure(t *testing.T) {
	dir := t.TempDir()
	if err := InitProspectorDir(dir); err != nil {
		t.Fatalf("InitProspectorDir failed: %v", err)
	}
	for _, sub := range []string{
		filepath.Join(ProspectorDir, "logs"),
		filepath.Join(ProspectorDir, "state"),
		DataDirName,
	} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Fatalf("expected %s to exist: %v", sub, err)
		}
	}
	raw, err := os.ReadFile(filepath.Join(dir, ProspectorDir, "config.yaml"))
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(raw), "topic:") {
		t.Fatalf("default config missing topic: %s", raw)
	}
}

func TestInitProspectorDirKeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	if err := InitProspectorDir(dir); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	custom := "version: 1\ntopic: custom topic\n"
	path := filepath.Join(dir, ProspectorDir, "config.yaml")
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if err := InitProspectorDir(dir); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != custom {
		t.Fatalf("existing config was overwritten: %s", raw)
	}
}

func TestNewConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.Topic() == "" {
		t.Fatalf("default topic should be populated")
	}
	if cfg.Project.Limits.MaxParallel != 4 {
		t.Fatalf("default max_parallel = %d, want 4", cfg.Project.Limits.MaxParallel)
	}
	if got := cfg.Project.Limits.CallTimeout(); got != 30*time.Second {
		t.Fatalf("default call timeout = %v", got)
	}
}

func TestNewConfigNormalizesEndpoints(t *testing.T) {
	dir := t.TempDir()
	if err := InitProspectorDir(dir); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	payload := `
version: 1
topic: "  signage shows  "
research:
  endpoint: "https://research.example/ "
  model: sonar
writer:
  endpoint: https://writer.example/v1
  model: gpt-4o-mini
`
	path := filepath.Join(dir, ProspectorDir, "config.yaml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	cfg, err := NewConfig(dir)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.Topic() != "signage shows" {
		t.Fatalf("topic not trimmed: %q", cfg.Topic())
	}
	if cfg.Project.Research.Endpoint != "https://research.example" {
		t.Fatalf("endpoint not normalized: %q", cfg.Project.Research.Endpoint)
	}
}

func TestNewConfigRejectsBadEndpoint(t *testing.T) {
	dir := t.TempDir()
	if err := InitProspectorDir(dir); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	payload := `
version: 1
research:
  endpoint: ftp://research.example
  model: sonar
`
	path := filepath.Join(dir, ProspectorDir, "config.yaml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if _, err := NewConfig(dir); err == nil {
		t.Fatalf("expected error for non-http endpoint")
	}
}

func TestCredentialsComeFromEnvironment(t *testing.T) {
	t.Setenv(ResearchKeyEnv, "  research-key ")
	t.Setenv(WriterKeyEnv, "writer-key")
	cfg, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.ResearchKey() != "research-key" {
		t.Fatalf("research key not trimmed: %q", cfg.ResearchKey())
	}
	if cfg.WriterKey() != "writer-key" {
		t.Fatalf("writer key mismatch: %q", cfg.WriterKey())
	}
}
