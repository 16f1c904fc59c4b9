package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/willclark/traceplay/pkg/trace"
)

const (
	DefaultCheckpointInterval = 64
	DefaultLogLevel           = "info"
	DefaultHighlightColor     = "#ff00ff"
)

type Config struct {
	Compression        string           `yaml:"compression"`
	CheckpointInterval int              `yaml:"checkpoint_interval"`
	LogLevel           string           `yaml:"log_level"`
	Visualizer         VisualizerConfig `yaml:"visualizer"`
}

// VisualizerConfig selects which augmentations get attached and whether the
// visualizer starts active.
type VisualizerConfig struct {
	Active       bool     `yaml:"active"`
	CallStats    []string `yaml:"call_stats"`
	Highlight    string   `yaml:"highlight"`
	FrameOverlay bool     `yaml:"frame_overlay"`
}

func DefaultConfig() *Config {
	return &Config{
		Compression:        "zstd",
		CheckpointInterval: DefaultCheckpointInterval,
		LogLevel:           DefaultLogLevel,
		Visualizer: VisualizerConfig{
			Active:    true,
			CallStats: []string{"glDrawArrays", "glDrawElements"},
			Highlight: "",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Compression {
	case "none", "zstd":
	default:
		return fmt.Errorf("unknown compression: %s", c.Compression)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint interval must not be negative")
	}
	return nil
}

// TraceCompression maps the config string to the trace package's type.
func (c *Config) TraceCompression() trace.Compression {
	if c.Compression == "none" {
		return trace.NoCompression
	}
	return trace.ZstdCompression
}

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
