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

const (
	// MaxPageSize is the largest page the timeline endpoint will return
	MaxPageSize = 200

	// DefaultMaxIterations matches the request budget of one rate limit window
	DefaultMaxIterations = 900

	FormatCSV    = "csv"
	FormatDict   = "dict"
	FormatSQLite = "sqlite"

	RateLimitSliding = "sliding"
	RateLimitBucket  = "bucket"
	RateLimitNone    = "none"
)

// Config holds all configuration options for the timeline scraper
type Config struct {
	// Account being collected
	Account AccountConfig `yaml:"account" json:"account"`

	// Upstream API settings
	API APIConfig `yaml:"api" json:"api"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration for page fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AccountConfig describes the collection target
type AccountConfig struct {
	Handle        string `yaml:"handle" json:"handle"`
	PageSize      int    `yaml:"page_size" json:"page_size"`
	MaxIterations int    `yaml:"max_iterations" json:"max_iterations"`
}

// APIConfig holds timeline API settings. The bearer token is handed to the
// client explicitly; nothing below the CLI reads it from the environment.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	BearerToken string        `yaml:"bearer_token" json:"bearer_token"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Strategy string        `yaml:"strategy" json:"strategy"`
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// RetryConfig bounds retries of a single page fetch
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// OutputConfig holds output configuration
type OutputConfig struct {
	Directory     string `yaml:"directory" json:"directory"`
	Filename      string `yaml:"filename" json:"filename"`
	Format        string `yaml:"format" json:"format"`
	SkipMalformed bool   `yaml:"skip_malformed" json:"skip_malformed"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			PageSize:      MaxPageSize,
			MaxIterations: DefaultMaxIterations,
		},
		API: APIConfig{
			BaseURL:   "https://api.twitter.com",
			UserAgent: "twscraper/1.0",
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Strategy: RateLimitSliding,
			Requests: 900,
			Window:   15 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    time.Minute,
		},
		Output: OutputConfig{
			Directory: ".",
			Format:    FormatCSV,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if handle := os.Getenv("TWSCRAPER_HANDLE"); handle != "" {
		c.Account.Handle = handle
	}
	if token := os.Getenv("TWSCRAPER_BEARER_TOKEN"); token != "" {
		c.API.BearerToken = token
	}
	if baseURL := os.Getenv("TWSCRAPER_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}

	if pageSize := os.Getenv("TWSCRAPER_PAGE_SIZE"); pageSize != "" {
		var val int
		if _, err := fmt.Sscanf(pageSize, "%d", &val); err != nil {
			return fmt.Errorf("invalid TWSCRAPER_PAGE_SIZE %q: %w", pageSize, err)
		}
		c.Account.PageSize = val
	}
	if maxIter := os.Getenv("TWSCRAPER_MAX_ITERATIONS"); maxIter != "" {
		var val int
		if _, err := fmt.Sscanf(maxIter, "%d", &val); err != nil {
			return fmt.Errorf("invalid TWSCRAPER_MAX_ITERATIONS %q: %w", maxIter, err)
		}
		c.Account.MaxIterations = val
	}

	if outputDir := os.Getenv("TWSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if format := os.Getenv("TWSCRAPER_OUTPUT_FORMAT"); format != "" {
		c.Output.Format = strings.ToLower(format)
	}

	if logLevel := os.Getenv("TWSCRAPER_LOG_LEVEL"); logLevel != "" {
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
			return nil
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
	home := os.Getenv("HOME")
	locations := []string{
		".twscraper.yaml",
		".twscraper.yml",
		filepath.Join(home, ".config", "twscraper", "config.yaml"),
		filepath.Join(home, ".config", "twscraper", "config.yml"),
		filepath.Join(home, ".twscraper.yaml"),
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

	if strings.TrimSpace(c.Account.Handle) == "" {
		errs = append(errs, errors.New("account handle is required"))
	}
	if c.Account.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Account.MaxIterations < 0 {
		errs = append(errs, errors.New("max iterations cannot be negative"))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	validStrategies := map[string]bool{RateLimitSliding: true, RateLimitBucket: true, RateLimitNone: true}
	if !validStrategies[strings.ToLower(c.RateLimit.Strategy)] {
		errs = append(errs, fmt.Errorf("invalid rate limit strategy: %s", c.RateLimit.Strategy))
	}
	if strings.ToLower(c.RateLimit.Strategy) != RateLimitNone && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	validFormats := map[string]bool{FormatCSV: true, FormatDict: true, FormatSQLite: true}
	if !validFormats[c.Output.Format] {
		errs = append(errs, fmt.Errorf("invalid output format: %s", c.Output.Format))
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

// OutputPath returns the sink destination, defaulting the file name to the
// account handle plus a format-specific suffix.
func (c *Config) OutputPath() string {
	name := c.Output.Filename
	if name == "" {
		handle := strings.TrimPrefix(c.Account.Handle, "@")
		switch c.Output.Format {
		case FormatDict:
			name = handle + "_tweets.json"
		case FormatSQLite:
			name = handle + "_tweets.db"
		default:
			name = handle + "_tweets.csv"
		}
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Directory, name)
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

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if handle, ok := flags["handle"].(string); ok && handle != "" {
		c.Account.Handle = handle
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Account.PageSize = pageSize
	}
	if maxIter, ok := flags["max-iterations"].(int); ok && maxIter >= 0 {
		c.Account.MaxIterations = maxIter
	}
	if token, ok := flags["bearer-token"].(string); ok && token != "" {
		c.API.BearerToken = token
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if outputDir, ok := flags["output-dir"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if filename, ok := flags["output"].(string); ok && filename != "" {
		c.Output.Filename = filename
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Output.Format = strings.ToLower(format)
	}
	if skip, ok := flags["skip-malformed"].(bool); ok {
		c.Output.SkipMalformed = skip
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Resolve builds a configuration from all sources without validating it.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".twscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if config.Account.PageSize > MaxPageSize {
		config.Account.PageSize = MaxPageSize
	}

	return config, nil
}

// Load resolves and validates configuration
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Resolve(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
