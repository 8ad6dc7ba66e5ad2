package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL    = "https://hacker-news.firebaseio.com/v0"
	defaultSearchBaseURL = "https://hn.algolia.com/api/v1"
	defaultDBPath        = "hn.db"
	defaultPageSize      = 30
)

// Config holds runtime settings for the CLI app. Values come from an
// optional YAML file, overridden by environment variables.
type Config struct {
	APIBaseURL    string `yaml:"api_base_url"`
	SearchBaseURL string `yaml:"search_base_url"`
	DBPath        string `yaml:"db_path"`
	PageSize      int    `yaml:"page_size"`
}

// Load reads the config file named by HN_CONFIG (or the default location),
// applies environment overrides, fills defaults and validates. A missing
// file is not an error.
func Load() (Config, error) {
	cfg, err := loadFile(configFilePath())
	if err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = defaultSearchBaseURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("HN_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hn-cli", "config.yaml")
}

func loadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HN_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("HN_SEARCH_BASE_URL"); v != "" {
		cfg.SearchBaseURL = v
	}
	if v := os.Getenv("HN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("HN_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if strings.HasSuffix(c.APIBaseURL, "/") {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	if c.SearchBaseURL == "" {
		return errors.New("SearchBaseURL is required")
	}
	if strings.HasSuffix(c.SearchBaseURL, "/") {
		return fmt.Errorf("SearchBaseURL must not end with '/': %s", c.SearchBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("PageSize must be between 1 and 100: %d", c.PageSize)
	}
	return nil
}
