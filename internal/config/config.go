package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	BackendURL       string     `yaml:"backend_url"`
	BackendTimeoutMs int        `yaml:"backend_timeout_ms"`
	DBPath           string     `yaml:"db_path"`
	CatalogPath      string     `yaml:"catalog_path,omitempty"`
	KeywordsPath     string     `yaml:"keywords_path,omitempty"`
	TelemetryEnabled bool       `yaml:"telemetry_enabled"`
	ColorOutput      bool       `yaml:"color_output"`
	Speech           Speech     `yaml:"speech"`
	Thresholds       Thresholds `yaml:"thresholds"`
}

// Speech holds synthesizer tuning and turn-taking timing
type Speech struct {
	Rate          float64 `yaml:"rate"`
	Pitch         float64 `yaml:"pitch"`
	Volume        float64 `yaml:"volume"`
	SettleDelayMs int     `yaml:"settle_delay_ms"`
}

// Thresholds holds confidence floors for transcripts and matches
type Thresholds struct {
	TranscriptConfidence float64 `yaml:"transcript_confidence"`
	ElementScore         float64 `yaml:"element_score"`
}

// Default returns the default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		BackendURL:       "http://localhost:8000",
		BackendTimeoutMs: 5000,
		DBPath:           filepath.Join(homeDir, ".voicepilot", "voicepilot.db"),
		TelemetryEnabled: false,
		ColorOutput:      false,
		Speech: Speech{
			Rate:          0.95,
			Pitch:         1.0,
			Volume:        0.9,
			SettleDelayMs: 300,
		},
		Thresholds: Thresholds{
			TranscriptConfidence: 0.7,
			ElementScore:         0.3,
		},
	}
}

// Load reads configuration from file, creating with defaults if it doesn't exist
func Load(path string) (*Config, error) {
	// If file doesn't exist, create it with defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Read existing file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default() // Start with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".voicepilot", "config.yaml")
}
