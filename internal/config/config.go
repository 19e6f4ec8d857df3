// Package config holds runtime configuration for the Skua daemon and
// the local agent commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	LLM    LLMConfig    `yaml:"llm"`
	Search SearchConfig `yaml:"search"`
	Agent  AgentConfig  `yaml:"agent"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"` // default 7311
	Host string `yaml:"host"` // default "127.0.0.1"
}

type StoreConfig struct {
	Type    string `yaml:"type"`    // "bolt" or "memory"
	DataDir string `yaml:"dataDir"` // default "~/.skua/data"
}

type LLMConfig struct {
	// Provider selects the generation backend: "openai" (any
	// OpenAI-compatible chat-completions endpoint) or "claude-cli".
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"baseURL"`
	// APIKeyEnv names the environment variable holding the API key.
	// The key itself never lives in the config file.
	APIKeyEnv   string  `yaml:"apiKeyEnv"`
	Model       string  `yaml:"model"`
	EmbedModel  string  `yaml:"embedModel"`
	Temperature float64 `yaml:"temperature"`
	ClaudeCLI   string  `yaml:"claudeCLI"` // path to claude binary for the claude-cli provider
}

type SearchConfig struct {
	// APIKeyEnv names the environment variable holding the web-search key.
	APIKeyEnv  string `yaml:"apiKeyEnv"`
	BaseURL    string `yaml:"baseURL"`
	MaxResults int    `yaml:"maxResults"`
}

type AgentConfig struct {
	// Project scopes every resource the local commands touch.
	Project string `yaml:"project"`
	// MaxLoopCalls is the default model-call budget per turn for agents
	// that do not declare their own.
	MaxLoopCalls int `yaml:"maxLoopCalls"`
	// RetrievalTopK is how many chunks the RAG path retrieves.
	RetrievalTopK int `yaml:"retrievalTopK"`
	// ContextTurns is how many trailing thread messages are replayed
	// into a resumed chat session.
	ContextTurns int `yaml:"contextTurns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // default "info"
	Format string `yaml:"format"` // default "console"
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7311,
			Host: "127.0.0.1",
		},
		Store: StoreConfig{
			Type:    "bolt",
			DataDir: defaultDataDir(),
		},
		LLM: LLMConfig{
			Provider:    "openai",
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "gpt-4.1-mini",
			EmbedModel:  "text-embedding-3-small",
			Temperature: 0,
			ClaudeCLI:   "claude",
		},
		Search: SearchConfig{
			APIKeyEnv:  "TAVILY_API_KEY",
			BaseURL:    "https://api.tavily.com",
			MaxResults: 5,
		},
		Agent: AgentConfig{
			Project:       "default",
			MaxLoopCalls:  8,
			RetrievalTopK: 3,
			ContextTurns:  20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the config file at path and merges it over the defaults.
// A missing file is not an error; the defaults apply as-is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the canonical config file location.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ServerAddress returns the listen address in "host:port" format.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerURL returns the base URL CLI clients use to reach the daemon.
func (c *Config) ServerURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// DBPath returns the full path to the BoltDB file.
func (c *Config) DBPath() string {
	return filepath.Join(c.Store.DataDir, "skua.db")
}

// LLMAPIKey resolves the generation API key from the environment.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// SearchAPIKey resolves the web-search API key from the environment.
func (c *Config) SearchAPIKey() string {
	return os.Getenv(c.Search.APIKeyEnv)
}

// configDir resolves "~/.skua", falling back to "/tmp/skua" when the
// home directory cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "skua")
	}
	return filepath.Join(home, ".skua")
}

// defaultDataDir resolves the default data directory.
func defaultDataDir() string {
	return filepath.Join(configDir(), "data")
}
