// Package config loads and persists the engine configuration from a
// TOML file in the FleetMind home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the per-user directory holding config and data.
const DefaultDirName = ".fleetmind"

// ConfigFileName is the configuration file within the config directory.
const ConfigFileName = "config.toml"

// Config is the full engine configuration. Zero values mean "use the
// built-in default"; Load never fails on missing fields.
type Config struct {
	// DataDir holds the metadata database, vector index and blobs.
	// Defaults to the config directory.
	DataDir string `toml:"data_dir,omitempty"`

	Chunking  ChunkingConfig `toml:"chunking"`
	Fusion    FusionConfig   `toml:"fusion"`
	Embedding ProviderConfig `toml:"embedding"`
	LLM       ProviderConfig `toml:"llm"`
	Records   RecordsConfig  `toml:"records"`
	Chat      ChatConfig     `toml:"chat"`
}

// ChunkingConfig tunes document splitting.
type ChunkingConfig struct {
	// Size is the chunk length in runes.
	Size int `toml:"size,omitempty"`

	// Overlap is how many runes consecutive chunks share.
	Overlap int `toml:"overlap,omitempty"`
}

// FusionConfig tunes context assembly.
type FusionConfig struct {
	// TopK is the number of vector hits per query.
	TopK int `toml:"top_k,omitempty"`

	// MaxRecords caps structured rows per query.
	MaxRecords int `toml:"max_records,omitempty"`

	// Budget is the context size limit in characters.
	Budget int `toml:"budget,omitempty"`

	// StructuredWeight scales table scores against chunk similarities.
	StructuredWeight float64 `toml:"structured_weight,omitempty"`

	// MinSimilarity drops vector hits below this cosine similarity.
	MinSimilarity float64 `toml:"min_similarity,omitempty"`
}

// ProviderConfig selects and configures an external model provider.
type ProviderConfig struct {
	// Provider is "ollama", "openai" or "anthropic".
	Provider string `toml:"provider,omitempty"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url,omitempty"`

	// Model names the model to use.
	Model string `toml:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	// Keys themselves never live in the config file.
	APIKeyEnv string `toml:"api_key_env,omitempty"`
}

// RecordsConfig points at the operational tables database.
type RecordsConfig struct {
	// Path is the SQLite database file with the machine tracking,
	// lifetime and inspection tables.
	Path string `toml:"path,omitempty"`
}

// ChatConfig tunes conversation behaviour.
type ChatConfig struct {
	// HistoryLimit is the number of messages kept per session.
	HistoryLimit int `toml:"history_limit,omitempty"`

	// MaxTokens caps generated answer length.
	MaxTokens int `toml:"max_tokens,omitempty"`

	// Temperature controls generation randomness.
	Temperature float64 `toml:"temperature,omitempty"`
}

// DefaultDir returns the per-user config directory, creating it if
// needed.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, DefaultDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the configuration from dir. A missing file yields the zero
// config, so first runs work without any setup. An empty dir means the
// default directory.
func Load(dir string) (*Config, error) {
	var err error
	if dir == "" {
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{DataDir: dir}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	return &cfg, nil
}

// Save writes the configuration to dir as TOML. An empty dir means the
// default directory.
func Save(dir string, cfg *Config) error {
	var err error
	if dir == "" {
		dir, err = DefaultDir()
		if err != nil {
			return err
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
