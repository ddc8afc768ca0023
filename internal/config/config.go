// Package config loads the optional sitemigrator.yaml file. Every value it
// holds can also be given on the command line, and flags win.
package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
)

// CurrentVersion is the only configuration version this build reads.
const CurrentVersion = "1.0"

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "sitemigrator.yaml"

// Config is the root of sitemigrator.yaml.
type Config struct {
	Version   string          `yaml:"version"`
	Migration MigrationConfig `yaml:"migration"`
	Journal   JournalConfig   `yaml:"journal,omitempty"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Report    ReportConfig    `yaml:"report,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MigrationConfig holds defaults for the migrate command.
type MigrationConfig struct {
	Source    string `yaml:"source,omitempty"`
	Dest      string `yaml:"dest,omitempty"`
	Engine    string `yaml:"engine,omitempty"` // forces an engine by name
	Clean     bool   `yaml:"clean"`
	KeepGoing bool   `yaml:"keep_going"`
}

// JournalConfig enables the sqlite run journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig enables publishing run summaries to NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Retries int    `yaml:"retries,omitempty"` // publish retries after the first failure
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ReportConfig enables the JSON run report.
type ReportConfig struct {
	JSON string `yaml:"json,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{Version: CurrentVersion}
	applyDefaults(c)
	return c
}

// Load reads, expands, normalizes and validates the configuration at path.
// .env files next to the configuration are loaded first so ${VAR}
// references can use them.
func Load(path string) (*Config, error) {
	if !fsutil.IsFile(path) {
		return nil, errors.ConfigError("configuration file not found").WithPath(path).Build()
	}
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(err, "read configuration").WithPath(path).Build()
	}
	expanded := os.ExpandEnv(string(data))

	var c Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, errors.ParseError(err, "parse configuration").WithPath(path).Build()
	}
	if c.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithPath(path).
			WithContext("version", c.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}

	for _, w := range Normalize(&c) {
		slog.Warn("config normalization", logfields.Path(path), slog.String("detail", w))
	}
	applyDefaults(&c)
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOptional loads path when it exists and falls back to Default
// otherwise. An explicitly named missing file is still an error.
func LoadOptional(path string, explicit bool) (*Config, error) {
	if !explicit && !fsutil.IsFile(path) {
		return Default(), nil
	}
	return Load(path)
}

func applyDefaults(c *Config) {
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}

// Init writes an example configuration file. An existing file is kept
// unless force is set.
func Init(path string, force bool) error {
	if fsutil.Exists(path) && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").WithPath(path).Build()
	}
	example := Config{
		Version: CurrentVersion,
		Migration: MigrationConfig{
			Source: "./site",
			Dest:   "./jekyll",
			Clean:  true,
		},
		Journal: JournalConfig{Path: "./.sitemigrator/journal.db"},
		Notify:  NotifyConfig{NATSURL: "${NATS_URL}"},
		Report:  ReportConfig{JSON: "./migration-report.json"},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
	var buf bytes.Buffer
	buf.WriteString("# sitemigrator configuration. Command line flags override these values.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(example); err != nil {
		return errors.InternalError("encode example configuration").WithCause(err).Build()
	}
	if err := enc.Close(); err != nil {
		return errors.InternalError("encode example configuration").WithCause(err).Build()
	}
	if err := fsutil.WriteFile(path, buf.Bytes()); err != nil {
		return errors.WriteError(err, "write configuration").WithPath(path).Build()
	}
	return nil
}
