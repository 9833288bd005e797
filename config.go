package shopchat

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of shopchat.yaml. String values may
// reference environment variables as ${VAR}.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Catalog CatalogConfig `yaml:"catalog"`
	Session SessionConfig `yaml:"session"`
	Agents  AgentsConfig  `yaml:"agents"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type SessionConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	ConversationTTL time.Duration `yaml:"conversation_ttl"`
}

type AgentsConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   "gpt-4o-mini",
		},
		Catalog: CatalogConfig{Path: "catalog.yaml", Watch: true},
	}
}

// LoadConfigFile reads a yaml config file, expanding ${VAR} references from
// the environment, and merges it over the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
