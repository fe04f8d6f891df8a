package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the cardinal scraping pipeline
type Config struct {
	// Source site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Headless browser settings for dynamic profile pages
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Rate limiting toward the source site
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Reasoning service settings
	Reasoning ReasoningConfig `yaml:"reasoning" json:"reasoning"`

	// Storage settings (collection files and the vector database)
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds settings for the college report site
type SiteConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Headless    bool          `yaml:"headless" json:"headless"`
	PageTimeout time.Duration `yaml:"page_timeout" json:"page_timeout"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
	MaxLoadMore int           `yaml:"max_load_more" json:"max_load_more"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	EntityDelay       time.Duration `yaml:"entity_delay" json:"entity_delay"`
}

// ReasoningConfig holds reasoning service configuration
type ReasoningConfig struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model" json:"model"`
	BaseURL     string  `yaml:"base_url" json:"base_url"`
	APIKey      string  `yaml:"-" json:"-"` // resolved via auth stores or env, never serialized
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	// MaxProfileChars caps the narrative text embedded in the prompt
	MaxProfileChars int `yaml:"max_profile_chars" json:"max_profile_chars"`
}

// StorageConfig holds data directory and database settings
type StorageConfig struct {
	DataDir      string `yaml:"data_dir" json:"data_dir"`
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:        "https://collegeofcardinalsreport.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
		},
		Browser: BrowserConfig{
			Headless:    true,
			PageTimeout: 90 * time.Second,
			SettleDelay: time.Second,
			MaxLoadMore: 25,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			EntityDelay:       time.Second,
		},
		Reasoning: ReasoningConfig{
			Provider:        "groq",
			Model:           "llama-3.3-70b-versatile",
			Temperature:     0.2,
			MaxTokens:       1000,
			MaxProfileChars: 1500,
		},
		Storage: StorageConfig{
			DataDir:      "./data",
			DatabasePath: "./data/cardinals.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("CARDSCRAPER_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if userAgent := os.Getenv("CARDSCRAPER_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}
	if rpm := os.Getenv("CARDSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if provider := os.Getenv("CARDSCRAPER_PROVIDER"); provider != "" {
		c.Reasoning.Provider = provider
	}
	if model := os.Getenv("CARDSCRAPER_MODEL"); model != "" {
		c.Reasoning.Model = model
	}
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		c.Reasoning.APIKey = apiKey
	}
	if dataDir := os.Getenv("CARDSCRAPER_DATA_DIR"); dataDir != "" {
		c.Storage.DataDir = dataDir
	}
	if dbPath := os.Getenv("CARDSCRAPER_DATABASE"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if logLevel := os.Getenv("CARDSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".cardscraper.yaml",
		".cardscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "cardscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "cardscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".cardscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if c.Site.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Site.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.EntityDelay < 0 {
		errs = append(errs, errors.New("entity delay cannot be negative"))
	}

	if c.Browser.PageTimeout <= 0 {
		errs = append(errs, errors.New("page timeout must be positive"))
	}
	if c.Browser.MaxLoadMore <= 0 {
		errs = append(errs, errors.New("max load more clicks must be positive"))
	}

	if c.Reasoning.Temperature < 0 || c.Reasoning.Temperature > 2 {
		errs = append(errs, errors.New("temperature must be between 0 and 2"))
	}
	if c.Reasoning.MaxTokens <= 0 {
		errs = append(errs, errors.New("max tokens must be positive"))
	}
	if c.Reasoning.MaxProfileChars <= 0 {
		errs = append(errs, errors.New("max profile chars must be positive"))
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".cardscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
