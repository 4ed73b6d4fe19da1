// Package config loads councilflow configuration.
//
// Precedence: built-in defaults, then the YAML file, then environment
// variables (COUNCILFLOW_API_URL, COUNCILFLOW_API_KEY, COUNCILFLOW_CHAIRMAN,
// COUNCILFLOW_DATA_PATH).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/councilflow/council"
)

// Config is the full councilflow configuration.
type Config struct {
	// Council is the ordered member roster.
	Council []council.Member `yaml:"council"`
	// Chairman is the model synthesizing the final answer.
	Chairman string `yaml:"chairman"`
	// TitleModel handles conversation-title generation.
	TitleModel string `yaml:"title_model"`
	// MaxRounds bounds the collaboration stage.
	MaxRounds int `yaml:"max_rounds"`
	// API configures the model backend transport.
	API APIConfig `yaml:"api"`
	// DataPath is the sqlite conversation store location.
	DataPath string `yaml:"data_path"`
}

// APIConfig configures the OpenAI-compatible backend.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	MaxTokens         int           `yaml:"max_tokens"`
	QueryTimeout      time.Duration `yaml:"query_timeout"`
	TitleTimeout      time.Duration `yaml:"title_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Default returns the built-in configuration: a three-member roster with
// distinct personas on a local OpenAI-compatible endpoint.
func Default() *Config {
	return &Config{
		Council: []council.Member{
			{
				ID:          "alice",
				Name:        "Alice",
				Model:       "qwen/qwen3-1.7b",
				Personality: "analytical and methodical",
				Traits:      []string{"logical", "detail-oriented", "skeptical"},
				Role:        "Analyst - breaks down problems systematically",
			},
			{
				ID:          "bob",
				Name:        "Bob",
				Model:       "qwen/qwen3-1.7b",
				Personality: "creative and enthusiastic",
				Traits:      []string{"imaginative", "optimistic", "spontaneous"},
				Role:        "Innovator - generates creative solutions",
			},
			{
				ID:          "charlie",
				Name:        "Charlie",
				Model:       "qwen/qwen3-1.7b",
				Personality: "diplomatic and balanced",
				Traits:      []string{"empathetic", "fair-minded", "collaborative"},
				Role:        "Coordinator - synthesizes different perspectives",
			},
		},
		Chairman:   "qwen/qwen3-1.7b",
		TitleModel: "google/gemini-2.5-flash",
		MaxRounds:  2,
		API: APIConfig{
			BaseURL:      "http://127.0.0.1:1234/v1",
			MaxTokens:    700,
			QueryTimeout: 120 * time.Second,
			TitleTimeout: 30 * time.Second,
		},
		DataPath: "data/conversations.db",
	}
}

// Load reads configuration from path (skipped when empty) over the defaults,
// then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COUNCILFLOW_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("COUNCILFLOW_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("COUNCILFLOW_CHAIRMAN"); v != "" {
		cfg.Chairman = v
	}
	if v := os.Getenv("COUNCILFLOW_DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
}

// Validate checks the roster and required fields.
func (c *Config) Validate() error {
	if len(c.Council) == 0 {
		return fmt.Errorf("config: council roster is empty")
	}
	names := make(map[string]struct{}, len(c.Council))
	for i, m := range c.Council {
		if m.ID == "" || m.Name == "" || m.Model == "" {
			return fmt.Errorf("config: council member %d needs id, name and model", i)
		}
		if _, dup := names[m.Name]; dup {
			// Message delivery resolves recipients by display name.
			return fmt.Errorf("config: duplicate member name %q", m.Name)
		}
		names[m.Name] = struct{}{}
	}
	if c.Chairman == "" {
		return fmt.Errorf("config: chairman model is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("config: api.base_url is required")
	}
	return nil
}

// Roster returns the configured members as a council.Roster.
func (c *Config) Roster() council.Roster {
	return council.Roster(c.Council)
}
