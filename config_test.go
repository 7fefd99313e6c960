package paperlens

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.RunTimeout != 0 {
		t.Errorf("RunTimeout = %v, want unbounded", cfg.RunTimeout)
	}
	if cfg.BaseURL != "https://api.openai.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.APIKey = "sk"
	valid.Assistants = Assistants{MindMap: "a", Insights: "b", Achievements: "c", ResearchIdeas: "d"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "no research assistant", mutate: func(c *Config) { c.Assistants.ResearchIdeas = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.RunTimeout = -time.Second }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paperlens.yaml")
	yaml := `api_key: sk-file
assistants:
  mind_map: asst_file_mm
  insights: asst_file_in
poll_interval: 5s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PAPERLENS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("PAPERLENS_ASSISTANT_INSIGHTS_ID", "asst_env_in")
	t.Setenv("PAPERLENS_RUN_TIMEOUT", "3m")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.APIKey != "sk-openai" {
		t.Errorf("APIKey = %q, want the OPENAI_API_KEY fallback", cfg.APIKey)
	}
	if cfg.Assistants.MindMap != "asst_file_mm" {
		t.Errorf("MindMap = %q, want value from file", cfg.Assistants.MindMap)
	}
	if cfg.Assistants.Insights != "asst_env_in" {
		t.Errorf("Insights = %q, want env override", cfg.Assistants.Insights)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.RunTimeout != 3*time.Minute {
		t.Errorf("RunTimeout = %v, want 3m", cfg.RunTimeout)
	}
	if cfg.BaseURL != "https://api.openai.com" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}
