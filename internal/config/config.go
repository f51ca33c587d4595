// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Default values applied when neither config file, environment, nor flags
// provide one.
const (
	DefaultPort         = 8787
	DefaultTemplatesDir = "templates"
	DefaultArtifactsDir = "artifacts"
)

// Config holds every tunable the tool reads. All fields are optional in the
// JSON file; missing values fall back to environment variables and defaults.
type Config struct {
	// Services
	GeminiAPIKey string `json:"gemini_api_key,omitempty"` // Gemini API key
	DatabaseURL  string `json:"database_url,omitempty"`   // PostgreSQL connection URL; empty runs the in-memory archive

	// Paths
	TemplatesDir string `json:"templates_dir,omitempty"` // Directory of .tex templates
	ArtifactsDir string `json:"artifacts_dir,omitempty"` // Directory compiled PDFs land in

	// Server
	Port int `json:"port,omitempty"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Headless browser fallback for SPA postings
	Verbose    bool `json:"verbose,omitempty"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
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

// FromEnv builds a Config from environment variables. godotenv has already
// loaded .env by the time this runs.
func FromEnv() Config {
	cfg := Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		TemplatesDir: os.Getenv("TEMPLATES_DIR"),
		ArtifactsDir: os.Getenv("ARTIFACTS_DIR"),
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Port = n
		}
	}
	return cfg
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Flag values merge over file values merge over env values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TemplatesDir == "" {
		result.TemplatesDir = defaults.TemplatesDir
	}
	if result.ArtifactsDir == "" {
		result.ArtifactsDir = defaults.ArtifactsDir
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if !result.UseBrowser {
		result.UseBrowser = defaults.UseBrowser
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}
	return result
}

// Finalize fills remaining zero values with the built-in defaults.
func (c *Config) Finalize() {
	if c.TemplatesDir == "" {
		c.TemplatesDir = DefaultTemplatesDir
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = DefaultArtifactsDir
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.TemplatesDir != "" {
		if info, err := os.Stat(c.TemplatesDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: 'templates_dir' is not a directory: %s", c.TemplatesDir)
		}
	}
	return nil
}
