// internal/config/config.go
//
// This package handles configuration and the .prospector directory structure.
// Every project that uses Prospector gets a .prospector/ folder created next
// to the data directory that holds the stage CSVs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProspectorDir is the name of the directory we create in each project.
	ProspectorDir = ".prospector"

	// DataDirName holds the per-stage CSV artifacts.
	DataDirName = "data"

	// Environment variables carrying the API credentials. Credentials never
	// live in config.yaml.
	ResearchKeyEnv = "PROSPECTOR_RESEARCH_KEY"
	WriterKeyEnv   = "PROSPECTOR_WRITER_KEY"

	defaultTopic = "large-format signage and graphics trade shows"
)

const defaultProjectConfigYAML = `# prospector project configuration
version: 1

# Domain description the scout stage searches for.
topic: large-format signage and graphics trade shows

research:
  endpoint: https://api.perplexity.ai
  model: sonar

writer:
  endpoint: https://api.openai.com/v1
  model: gpt-4o-mini

limits:
  max_parallel: 4
  call_timeout_seconds: 30
  scout_retries: 3
  max_message_chars: 1500
`

// ServiceConfig points one stage capability at its chat-completions endpoint.
type ServiceConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// Limits bounds external-service usage across all stages.
type Limits struct {
	MaxParallel        int `yaml:"max_parallel"`
	CallTimeoutSeconds int `yaml:"call_timeout_seconds"`
	ScoutRetries       int `yaml:"scout_retries"`
	MaxMessageChars    int `yaml:"max_message_chars"`
}

// CallTimeout returns the per-call deadline as a duration.
func (l Limits) CallTimeout() time.Duration {
	return time.Duration(l.CallTimeoutSeconds) * time.Second
}

// ProjectConfig models .prospector/config.yaml.
type ProjectConfig struct {
	Version  int           `yaml:"version"`
	Topic    string        `yaml:"topic"`
	Research ServiceConfig `yaml:"research"`
	Writer   ServiceConfig `yaml:"writer"`
	Limits   Limits        `yaml:"limits"`
}

// Config holds the runtime configuration for Prospector.
type Config struct {
	// ProjectDir is the directory where the user ran `prospector` from.
	ProjectDir string

	// ProspectorProjectDir is ProjectDir/.prospector.
	ProspectorProjectDir string

	Project ProjectConfig
}

// InitProspectorDir creates the directory structure in the given project
// directory. Called on every CLI start.
//
// Structure created:
// .prospector/
// ├── logs/     <- run logbook
// └── state/    <- persisted run state between invocations
// data/         <- per-stage CSV artifacts
func InitProspectorDir(projectDir string) error {
	prospectorDir := filepath.Join(projectDir, ProspectorDir)
	dirs := []string{
		filepath.Join(prospectorDir, "logs"),
		filepath.Join(prospectorDir, "state"),
		filepath.Join(projectDir, DataDirName),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(prospectorDir, "config.yaml"))
}

// NewConfig creates a Config populated from .prospector/config.yaml, falling
// back to defaults when the file is absent.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:           projectDir,
		ProspectorProjectDir: filepath.Join(projectDir, ProspectorDir),
		Project:              defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DataDir returns the directory holding stage CSV artifacts.
func (c *Config) DataDir() string {
	return filepath.Join(c.ProjectDir, DataDirName)
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.ProspectorProjectDir, "logs")
}

// StateDir returns the path to the state directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.ProspectorProjectDir, "state")
}

// RunStatePath returns the persisted run-state JSON location.
func (c *Config) RunStatePath() string {
	return filepath.Join(c.StateDir(), "run.json")
}

// ManualEventsPath returns the optional manually curated seed file.
func (c *Config) ManualEventsPath() string {
	return filepath.Join(c.DataDir(), "manual_events.csv")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ProspectorProjectDir, "config.yaml")
}

// Topic returns the scout search topic.
func (c *Config) Topic() string {
	return c.Project.Topic
}

// ResearchKey reads the research-service credential from the environment.
func (c *Config) ResearchKey() string {
	return strings.TrimSpace(os.Getenv(ResearchKeyEnv))
}

// WriterKey reads the writer-service credential from the environment.
func (c *Config) WriterKey() string {
	return strings.TrimSpace(os.Getenv(WriterKeyEnv))
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	cfg := ProjectConfig{Version: 1}
	cfg.applyDefaults()
	return cfg
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Topic == "" {
		pc.Topic = defaultTopic
	}
	if pc.Research.Endpoint == "" {
		pc.Research.Endpoint = "https://api.perplexity.ai"
	}
	if pc.Research.Model == "" {
		pc.Research.Model = "sonar"
	}
	if pc.Writer.Endpoint == "" {
		pc.Writer.Endpoint = "https://api.openai.com/v1"
	}
	if pc.Writer.Model == "" {
		pc.Writer.Model = "gpt-4o-mini"
	}
	if pc.Limits.MaxParallel == 0 {
		pc.Limits.MaxParallel = 4
	}
	if pc.Limits.CallTimeoutSeconds == 0 {
		pc.Limits.CallTimeoutSeconds = 30
	}
	if pc.Limits.ScoutRetries == 0 {
		pc.Limits.ScoutRetries = 3
	}
	if pc.Limits.MaxMessageChars == 0 {
		pc.Limits.MaxMessageChars = 1500
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Topic = strings.TrimSpace(pc.Topic)
	pc.Research.normalize()
	pc.Writer.normalize()
}

func (sc *ServiceConfig) normalize() {
	sc.Endpoint = strings.TrimRight(strings.TrimSpace(sc.Endpoint), "/")
	sc.Model = strings.TrimSpace(sc.Model)
}

func (pc ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if err := pc.Research.validate(); err != nil {
		return fmt.Errorf("research: %w", err)
	}
	if err := pc.Writer.validate(); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	if pc.Limits.MaxParallel < 1 {
		return fmt.Errorf("limits.max_parallel must be >= 1")
	}
	if pc.Limits.CallTimeoutSeconds < 1 {
		return fmt.Errorf("limits.call_timeout_seconds must be >= 1")
	}
	if pc.Limits.MaxMessageChars < 1 {
		return fmt.Errorf("limits.max_message_chars must be >= 1")
	}
	return nil
}

func (sc ServiceConfig) validate() error {
	if sc.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if !strings.HasPrefix(sc.Endpoint, "http://") && !strings.HasPrefix(sc.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL")
	}
	if sc.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
