package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the image crawler
type Config struct {
	// Crawl job defaults
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Headless browser settings
	Headless HeadlessConfig `yaml:"headless" json:"headless"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CrawlConfig holds the per-job crawl settings
type CrawlConfig struct {
	Concurrency    int               `yaml:"concurrency" json:"concurrency"`
	MaxPages       int               `yaml:"max_pages" json:"max_pages"`
	PageDelayMs    int               `yaml:"page_delay_ms" json:"page_delay_ms"`
	FetchTimeoutMs int               `yaml:"fetch_timeout_ms" json:"fetch_timeout_ms"`
	UseHeadless    bool              `yaml:"use_headless" json:"use_headless"`
	Headers        map[string]string `yaml:"headers" json:"headers"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	StorageRoot      string `yaml:"storage_root" json:"storage_root"`
	Directory        string `yaml:"directory" json:"directory"`
	PreserveExisting bool   `yaml:"preserve_existing" json:"preserve_existing"`
	WriteManifest    bool   `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds image download configuration
type DownloadConfig struct {
	RetryAttempts     int `yaml:"retry_attempts" json:"retry_attempts"`
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"` // 0 means unlimited
}

// HeadlessConfig holds headless rendering configuration
type HeadlessConfig struct {
	ScrollSteps  int    `yaml:"scroll_steps" json:"scroll_steps"`
	ScrollWaitMs int    `yaml:"scroll_wait_ms" json:"scroll_wait_ms"`
	BrowserPath  string `yaml:"browser_path" json:"browser_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			Concurrency:    5,
			MaxPages:       10,
			PageDelayMs:    500,
			FetchTimeoutMs: 15000,
			UseHeadless:    false,
			Headers:        map[string]string{},
		},
		Output: OutputConfig{
			StorageRoot:      "storage",
			Directory:        "images",
			PreserveExisting: false,
			WriteManifest:    false,
		},
		Download: DownloadConfig{
			RetryAttempts:     1,
			RequestsPerMinute: 0,
		},
		Headless: HeadlessConfig{
			ScrollSteps:  12,
			ScrollWaitMs: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

var truthy = regexp.MustCompile(`(?i)^(1|true|yes)$`)

// ParseBool reports whether s is one of 1, true or yes (case-insensitive)
func ParseBool(s string) bool {
	return truthy.MatchString(strings.TrimSpace(s))
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	intVar := func(name string, dst *int) {
		raw := os.Getenv(name)
		if raw == "" {
			return
		}
		val, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = val
	}

	intVar("IMGCRAWLER_CONCURRENCY", &c.Crawl.Concurrency)
	intVar("IMGCRAWLER_MAX_PAGES", &c.Crawl.MaxPages)
	intVar("IMGCRAWLER_PAGE_DELAY_MS", &c.Crawl.PageDelayMs)
	intVar("IMGCRAWLER_FETCH_TIMEOUT_MS", &c.Crawl.FetchTimeoutMs)
	intVar("IMGCRAWLER_RETRY_ATTEMPTS", &c.Download.RetryAttempts)
	intVar("IMGCRAWLER_REQUESTS_PER_MINUTE", &c.Download.RequestsPerMinute)

	if headless := os.Getenv("IMGCRAWLER_USE_HEADLESS"); headless != "" {
		c.Crawl.UseHeadless = ParseBool(headless)
	}

	// Output
	if root := os.Getenv("IMGCRAWLER_STORAGE_ROOT"); root != "" {
		c.Output.StorageRoot = root
	}
	if dir := os.Getenv("IMGCRAWLER_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}

	if browser := os.Getenv("IMGCRAWLER_BROWSER_PATH"); browser != "" {
		c.Headless.BrowserPath = browser
	}

	// Logging
	if logLevel := os.Getenv("IMGCRAWLER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("IMGCRAWLER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
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
	home := os.Getenv("HOME")
	locations := []string{
		".imgcrawler.yaml",
		".imgcrawler.yml",
		filepath.Join(home, ".config", "imgcrawler", "config.yaml"),
		filepath.Join(home, ".config", "imgcrawler", "config.yml"),
		filepath.Join(home, ".imgcrawler.yaml"),
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

	checkRange := func(name string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, v))
		}
	}

	checkRange("concurrency", c.Crawl.Concurrency, 1, 10)
	checkRange("max pages", c.Crawl.MaxPages, 1, 50)
	checkRange("page delay", c.Crawl.PageDelayMs, 0, 2000)
	checkRange("fetch timeout", c.Crawl.FetchTimeoutMs, 1000, 60000)

	if c.Download.RetryAttempts < 1 {
		errs = append(errs, errors.New("retry attempts must be at least 1"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Headless.ScrollSteps < 1 {
		errs = append(errs, errors.New("scroll steps must be positive"))
	}
	if c.Headless.ScrollWaitMs < 0 {
		errs = append(errs, errors.New("scroll wait cannot be negative"))
	}

	if c.Output.StorageRoot == "" {
		errs = append(errs, errors.New("storage root is required"))
	}
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	for name := range c.Crawl.Headers {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("header names cannot be empty"))
			break
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
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

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["concurrency"].(int); ok {
		c.Crawl.Concurrency = v
	}
	if v, ok := flags["max-pages"].(int); ok {
		c.Crawl.MaxPages = v
	}
	if v, ok := flags["page-delay"].(int); ok {
		c.Crawl.PageDelayMs = v
	}
	if v, ok := flags["fetch-timeout"].(int); ok {
		c.Crawl.FetchTimeoutMs = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Crawl.UseHeadless = v
	}
	if headers, ok := flags["headers"].(map[string]string); ok {
		if c.Crawl.Headers == nil {
			c.Crawl.Headers = map[string]string{}
		}
		for k, v := range headers {
			c.Crawl.Headers[k] = v
		}
	}
	if v, ok := flags["storage-root"].(string); ok && v != "" {
		c.Output.StorageRoot = v
	}
	if v, ok := flags["out-dir"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["preserve-existing"].(bool); ok {
		c.Output.PreserveExisting = v
	}
	if v, ok := flags["manifest"].(bool); ok {
		c.Output.WriteManifest = v
	}
	if v, ok := flags["retries"].(int); ok {
		c.Download.RetryAttempts = v
	}
	if v, ok := flags["rate-limit"].(int); ok {
		c.Download.RequestsPerMinute = v
	}
	if v, ok := flags["browser-path"].(string); ok && v != "" {
		c.Headless.BrowserPath = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imgcrawler.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
