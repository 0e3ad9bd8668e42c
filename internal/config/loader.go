package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"inferd/pkg/types"
)

// Defaults applied by Default and by main when flags leave fields unset.
const (
	DefaultAddr         = ":8080"
	DefaultBackend      = "llama"
	DefaultWorkers      = 4
	DefaultQueueDepth   = 32
	DefaultLogLevel     = "info"
	DefaultLlamaCtx     = 2048
	DefaultLlamaThreads = 4
)

// ModelEntry is one explicit catalog entry in the config file.
type ModelEntry struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type" yaml:"type" toml:"type"`
	Path string `json:"path" yaml:"path" toml:"path"`
}

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr         string       `json:"addr" yaml:"addr" toml:"addr" env:"INFERD_ADDR"`
	ModelsDir    string       `json:"models_dir" yaml:"models_dir" toml:"models_dir" env:"INFERD_MODELS_DIR"`
	Models       []ModelEntry `json:"models" yaml:"models" toml:"models"`
	Backend      string       `json:"backend" yaml:"backend" toml:"backend" env:"INFERD_BACKEND"`
	Workers      int          `json:"workers" yaml:"workers" toml:"workers" env:"INFERD_WORKERS"`
	QueueDepth   int          `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth" env:"INFERD_QUEUE_DEPTH"`
	LogLevel     string       `json:"log_level" yaml:"log_level" toml:"log_level" env:"INFERD_LOG_LEVEL"`
	JournalPath  string       `json:"journal_path" yaml:"journal_path" toml:"journal_path" env:"INFERD_JOURNAL_PATH"`
	InitOnStart  bool         `json:"init_on_start" yaml:"init_on_start" toml:"init_on_start" env:"INFERD_INIT_ON_START"`
	LlamaCtx     int          `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx" env:"INFERD_LLAMA_CTX"`
	LlamaThreads int          `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads" env:"INFERD_LLAMA_THREADS"`
}

// Default returns a config with every field at its default.
func Default() Config {
	return Config{
		Addr:         DefaultAddr,
		Backend:      DefaultBackend,
		Workers:      DefaultWorkers,
		QueueDepth:   DefaultQueueDepth,
		LogLevel:     DefaultLogLevel,
		LlamaCtx:     DefaultLlamaCtx,
		LlamaThreads: DefaultLlamaThreads,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "llama", "echo":
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Workers)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queue_depth must not be negative: %d", c.QueueDepth)
	}
	for _, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("model entry missing name")
		}
		if !types.ModelType(m.Type).Valid() {
			return fmt.Errorf("model %s: unknown type %q", m.Name, m.Type)
		}
	}
	return nil
}

// Specs converts the explicit model entries to catalog specs.
func (c Config) Specs() []types.ModelSpec {
	out := make([]types.ModelSpec, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, types.ModelSpec{
			Name: m.Name,
			Type: types.ModelType(m.Type),
			Path: m.Path,
		})
	}
	return out
}
