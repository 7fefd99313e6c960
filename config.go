package paperlens

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/brunobiangulo/paperlens/assistant"
)

// Config holds all configuration for the analyzer.
type Config struct {
	// APIKey authenticates against the Assistants API.
	APIKey string `json:"api_key" yaml:"api_key"`

	// BaseURL of the Assistants API. Defaults to https://api.openai.com.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Assistants maps each analysis kind to its preconfigured assistant.
	Assistants Assistants `json:"assistants" yaml:"assistants"`

	// PollInterval is the fixed delay between run status checks.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// RunTimeout bounds a single assistant run. Zero polls until the run
	// reaches a terminal status.
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout"`

	// HTTPTimeout applies to each individual API request.
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout"`
}

// Assistants holds one assistant ID per analysis kind.
type Assistants struct {
	MindMap       string `json:"mind_map" yaml:"mind_map"`
	Insights      string `json:"insights" yaml:"insights"`
	Achievements  string `json:"achievements" yaml:"achievements"`
	ResearchIdeas string `json:"research_ideas" yaml:"research_ideas"`
}

// ID returns the assistant configured for k.
func (a Assistants) ID(k Kind) string {
	switch k {
	case KindMindMap:
		return a.MindMap
	case KindInsights:
		return a.Insights
	case KindAchievements:
		return a.Achievements
	case KindResearchIdeas:
		return a.ResearchIdeas
	}
	return ""
}

// DefaultConfig returns a Config with the public endpoint and the 2s poll
// interval. API key and assistant IDs have no defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:      assistant.DefaultBaseURL,
		PollInterval: assistant.DefaultPollInterval,
		HTTPTimeout:  120 * time.Second,
	}
}

// Validate checks that the credential and all four assistant IDs are set.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}
	for _, k := range Kinds {
		if c.Assistants.ID(k) == "" {
			return fmt.Errorf("%w: assistant id for %s is required", ErrInvalidConfig, k)
		}
	}
	if c.PollInterval < 0 || c.RunTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}

// envBindings maps config keys to environment variables, in precedence
// order.
var envBindings = map[string][]string{
	"api_key":                   {"PAPERLENS_API_KEY", "OPENAI_API_KEY"},
	"base_url":                  {"PAPERLENS_BASE_URL"},
	"assistants.mind_map":       {"PAPERLENS_ASSISTANT_MINDMAP_ID"},
	"assistants.insights":       {"PAPERLENS_ASSISTANT_INSIGHTS_ID"},
	"assistants.achievements":   {"PAPERLENS_ASSISTANT_ACHIEVEMENTS_ID"},
	"assistants.research_ideas": {"PAPERLENS_ASSISTANT_RESEARCH_ID"},
	"poll_interval":             {"PAPERLENS_POLL_INTERVAL"},
	"run_timeout":               {"PAPERLENS_RUN_TIMEOUT"},
	"http_timeout":              {"PAPERLENS_HTTP_TIMEOUT"},
}

// LoadConfig reads configuration using Viper. An explicit path must exist.
// With an empty path a paperlens.yaml in the working directory or
// ~/.paperlens is used when present. Environment variables override the file.
// The result is not validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("poll_interval", cfg.PollInterval)
	v.SetDefault("run_timeout", cfg.RunTimeout)
	v.SetDefault("http_timeout", cfg.HTTPTimeout)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("paperlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".paperlens"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, fmt.Errorf("reading paperlens.yaml: %w", err)
			}
		}
	}

	cfg.APIKey = v.GetString("api_key")
	cfg.BaseURL = v.GetString("base_url")
	cfg.Assistants = Assistants{
		MindMap:       v.GetString("assistants.mind_map"),
		Insights:      v.GetString("assistants.insights"),
		Achievements:  v.GetString("assistants.achievements"),
		ResearchIdeas: v.GetString("assistants.research_ideas"),
	}
	cfg.PollInterval = v.GetDuration("poll_interval")
	cfg.RunTimeout = v.GetDuration("run_timeout")
	cfg.HTTPTimeout = v.GetDuration("http_timeout")

	return cfg, nil
}
