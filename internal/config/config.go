// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags or environment variables.
type Config struct {
	// Source selection
	VideoURL string `json:"video_url,omitempty"` // Reference video URL (mutually exclusive with Query)
	Query    string `json:"query,omitempty"`     // Free-text search for a reference video

	// Credentials
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`    // Generation backend key
	YouTubeAPIKey    string `json:"youtube_api_key,omitempty"`   // Media lookup key
	SheetsCredential string `json:"sheets_credential,omitempty"` // Service account JSON file for the sheet sink
	SpreadsheetID    string `json:"spreadsheet_id,omitempty"`    // Target spreadsheet
	SheetName        string `json:"sheet_name,omitempty"`        // Target sheet tab (default Sheet1)
	DatabaseURL      string `json:"database_url,omitempty"`      // Optional PostgreSQL run history

	// Generation behavior
	Models         []string `json:"models,omitempty"`          // Static priority list; empty means discover
	MaxAttempts    int      `json:"max_attempts,omitempty"`    // Retries per model on rate limiting
	BackoffSeconds int      `json:"backoff_seconds,omitempty"` // Delay between retries
	Temperature    *float64 `json:"temperature,omitempty"`     // Sampling temperature
	Variant        string   `json:"variant,omitempty"`         // "single" or "dual" engine output

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed progress information
}

// PreferredModels is the static priority order used when capability discovery
// is skipped, and the preference applied on top of a discovered list: fast
// and cheap first, higher quality as fallback.
var PreferredModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked later, after flag and environment merging.
func (c *Config) Validate() error {
	if c.VideoURL != "" && c.Query != "" {
		return fmt.Errorf("config error: 'video_url' and 'query' are mutually exclusive")
	}

	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.BackoffSeconds < 0 {
		return fmt.Errorf("config error: 'backoff_seconds' must be non-negative")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 2")
	}

	switch c.Variant {
	case "", "single", "dual":
	default:
		return fmt.Errorf("config error: 'variant' must be \"single\" or \"dual\"")
	}

	if c.SheetsCredential != "" {
		if _, err := os.Stat(c.SheetsCredential); os.IsNotExist(err) {
			return fmt.Errorf("config error: sheets credential file not found: %s", c.SheetsCredential)
		}
	}

	return nil
}
