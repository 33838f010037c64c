package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/grokparty/grokparty/pkg/conversation"
	"github.com/grokparty/grokparty/pkg/grok"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// apiKeyEnvVar is where the key is looked up after a .env file, if present,
// has been loaded.
const apiKeyEnvVar = "GROK_API_KEY"

// PartyConfig holds the user-tunable settings, loaded from
// ~/.config/grokparty/config.yaml when that file exists. Durations are
// strings in time.ParseDuration syntax ("500ms", "2s").
type PartyConfig struct {
	DefaultModel         string  `yaml:"default_model"`
	DecisionModel        string  `yaml:"decision_model"`
	Mood                 string  `yaml:"mood"`
	HistoryWindow        int     `yaml:"history_window"`
	MaxRetries           int     `yaml:"max_retries"`
	RetryBackoff         string  `yaml:"retry_backoff"`
	TurnDelay            string  `yaml:"turn_delay"`
	ReplyTemperature     float64 `yaml:"reply_temperature"`
	SelectionTemperature float64 `yaml:"selection_temperature"`
	ExportDir            string  `yaml:"export_dir"`
	BaseURL              string  `yaml:"base_url"`
}

// DefaultPartyConfig returns the settings used when no config file exists.
func DefaultPartyConfig() PartyConfig {
	return PartyConfig{
		DefaultModel:         grok.DefaultModel,
		DecisionModel:        grok.DefaultModel,
		Mood:                 "friendly",
		HistoryWindow:        conversation.DefaultHistoryWindow,
		MaxRetries:           3,
		RetryBackoff:         "500ms",
		TurnDelay:            "2s",
		ReplyTemperature:     0.8,
		SelectionTemperature: 0.3,
	}
}

func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "grokparty", "config.yaml"), nil
}

// LoadPartyConfig reads the config file over the defaults. A missing file is
// not an error.
func LoadPartyConfig() (PartyConfig, error) {
	cfg := DefaultPartyConfig()

	path, err := configFilePath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// EngineConfig converts the file settings into engine tunables.
func (c PartyConfig) EngineConfig() (conversation.EngineConfig, error) {
	backoff, err := parseDurationField("retry_backoff", c.RetryBackoff)
	if err != nil {
		return conversation.EngineConfig{}, err
	}
	delay, err := parseDurationField("turn_delay", c.TurnDelay)
	if err != nil {
		return conversation.EngineConfig{}, err
	}
	return conversation.EngineConfig{
		HistoryWindow:        c.HistoryWindow,
		MaxRetries:           c.MaxRetries,
		RetryBackoff:         backoff,
		TurnDelay:            delay,
		ReplyTemperature:     c.ReplyTemperature,
		SelectionTemperature: c.SelectionTemperature,
		ExportDir:            c.ExportDir,
	}, nil
}

func parseDurationField(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return d, nil
}

// resolveAPIKey finds the API key: explicit flag first, then the environment
// (after loading a .env file when one is present in the working directory).
// An empty result is not an error here; interactive setup may still prompt
// for it.
func resolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	// A missing .env file is the normal case.
	godotenv.Load()
	return os.Getenv(apiKeyEnvVar)
}
