package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Refdata RefdataConfig `yaml:"refdata" envconfig:"REFDATA"`
	Geocode GeocodeConfig `yaml:"geocode" envconfig:"GEOCODE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	RefdataDir  string `yaml:"refdata_dir" envconfig:"REFDATA_DIR" default:"data/refdata"`
	ProfilesDir string `yaml:"profiles_dir" envconfig:"PROFILES_DIR" default:"configs/funds"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// RefdataConfig controls where the reference tables come from
type RefdataConfig struct {
	CountryCodesURL   string `yaml:"country_codes_url" envconfig:"COUNTRY_CODES_URL" default:"https://www.iban.com/country-codes"`
	CurrencyCodesURL  string `yaml:"currency_codes_url" envconfig:"CURRENCY_CODES_URL" default:"https://www.iban.com/currency-codes"`
	CountryCodesFile  string `yaml:"country_codes_file" envconfig:"COUNTRY_CODES_FILE" default:"InternationalCountryCodes.csv"`
	CurrencyCodesFile string `yaml:"currency_codes_file" envconfig:"CURRENCY_CODES_FILE" default:"CleanedCurrencyCodes.csv"`
}

// GeocodeConfig controls the reverse-geocoding backfill
type GeocodeConfig struct {
	BaseURL      string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent    string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"supercli-holdings-etl"`
	RequestDelay time.Duration `yaml:"request_delay" envconfig:"REQUEST_DELAY" default:"1500ms"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("SUPER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.FilePath == "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Paths.ReportsDir == "" {
		envConfig.Paths.ReportsDir = fileConfig.Paths.ReportsDir
	}
	if envConfig.Paths.RefdataDir == "" {
		envConfig.Paths.RefdataDir = fileConfig.Paths.RefdataDir
	}
	if envConfig.Paths.ProfilesDir == "" {
		envConfig.Paths.ProfilesDir = fileConfig.Paths.ProfilesDir
	}
	if envConfig.Refdata.CountryCodesURL == "" {
		envConfig.Refdata = fileConfig.Refdata
	}
	if envConfig.Geocode.BaseURL == "" {
		envConfig.Geocode = fileConfig.Geocode
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if c.Geocode.RequestDelay <= 0 {
		return fmt.Errorf("geocode request delay must be positive")
	}
	if c.Geocode.Timeout <= 0 {
		return fmt.Errorf("geocode timeout must be positive")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// CountryCodesPath returns the resolved path of the country code table.
func (c *Config) CountryCodesPath() string {
	return filepath.Join(c.Paths.RefdataDir, c.Refdata.CountryCodesFile)
}

// CurrencyCodesPath returns the resolved path of the currency code table.
func (c *Config) CurrencyCodesPath() string {
	return filepath.Join(c.Paths.RefdataDir, c.Refdata.CurrencyCodesFile)
}

// EnsureDirectories creates the configured directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ReportsDir, c.Paths.RefdataDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:     "data",
			ReportsDir:  "data/reports",
			RefdataDir:  "data/refdata",
			ProfilesDir: "configs/funds",
			LogsDir:     "logs",
		},
		Refdata: RefdataConfig{
			CountryCodesURL:   "https://www.iban.com/country-codes",
			CurrencyCodesURL:  "https://www.iban.com/currency-codes",
			CountryCodesFile:  "InternationalCountryCodes.csv",
			CurrencyCodesFile: "CleanedCurrencyCodes.csv",
		},
		Geocode: GeocodeConfig{
			BaseURL:      "https://nominatim.openstreetmap.org",
			UserAgent:    "supercli-holdings-etl",
			RequestDelay: 1500 * time.Millisecond,
			Timeout:      10 * time.Second,
		},
	}
}
