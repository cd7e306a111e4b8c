// Package config handles objrow.toml and objrow.yaml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	executor "github.com/hanpama/objrow/internal/executor"
	serializer "github.com/hanpama/objrow/internal/serializer"
)

// Config is the file configuration.
type Config struct {
	Executor   Executor   `toml:"executor" yaml:"executor"`
	Serializer Serializer `toml:"serializer" yaml:"serializer"`
	Otel       Otel       `toml:"otel" yaml:"otel"`
	Log        Log        `toml:"log" yaml:"log"`
}

// Executor configures evaluation.
type Executor struct {
	Mode      string `toml:"mode" yaml:"mode"`
	CacheSize int    `toml:"cache_size" yaml:"cache_size"`
}

// Serializer selects the serializer backend.
type Serializer struct {
	Backend string `toml:"backend" yaml:"backend"`
}

// Otel configures trace export. An empty endpoint disables it.
type Otel struct {
	Endpoint string `toml:"endpoint" yaml:"endpoint"`
	Service  string `toml:"service" yaml:"service"`
}

// Log configures CLI logging.
type Log struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Executor:   Executor{Mode: string(executor.ModeFallback), CacheSize: 256},
		Serializer: Serializer{Backend: serializer.General.String()},
		Otel:       Otel{Service: "objrow"},
		Log:        Log{Level: "info"},
	}
}

// Load reads the file at path over the defaults. The format is chosen by
// extension: .toml, or .yaml and .yml. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every named setting is recognised.
func (c *Config) Validate() error {
	if _, err := executor.ParseMode(c.Executor.Mode); err != nil {
		return err
	}
	if _, err := serializer.ParseKind(c.Serializer.Backend); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ExecutorOptions returns the executor options for c.
func (c *Config) ExecutorOptions() []executor.Option {
	return []executor.Option{
		executor.WithMode(executor.Mode(c.Executor.Mode)),
		executor.WithCacheSize(c.Executor.CacheSize),
	}
}

// SerializerKind returns the configured backend.
func (c *Config) SerializerKind() serializer.Kind {
	k, _ := serializer.ParseKind(c.Serializer.Backend)
	return k
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logrus.Level {
	l, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
