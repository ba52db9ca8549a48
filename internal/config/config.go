// Package config loads farescan settings from a YAML (or JSON) file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Search SearchConfig `yaml:"search"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
}

// APIConfig describes the upstream flight-search endpoint.
type APIConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Params  map[string]string `yaml:"params"`
	Timeout time.Duration     `yaml:"timeout"`
}

// SearchConfig holds run defaults.
type SearchConfig struct {
	Concurrency int             `yaml:"concurrency"`
	MileValue   decimal.Decimal `yaml:"mile_value"`
	Adults      int             `yaml:"adults"`
	Days        int             `yaml:"days"`
}

// StoreConfig selects where raw responses are persisted.
type StoreConfig struct {
	Path     string        `yaml:"path"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		API: APIConfig{
			URL:     "http://localhost:9001/v1/airlines/search",
			Headers: map[string]string{},
			Params: map[string]string{
				"adults":                "1",
				"children":              "0",
				"infants":               "0",
				"currencyCode":          "BRL",
				"isFlexibleDateChecked": "false",
				"tripType":              "2",
				"forceCongener":         "true",
				"cabinType":             "all",
			},
			Timeout: 20 * time.Second,
		},
		Search: SearchConfig{
			Concurrency: 10,
			MileValue:   decimal.RequireFromString("0.0175"),
			Adults:      1,
			Days:        10,
		},
		Store: StoreConfig{
			Path: "data/responses.json",
			TTL:  24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			CacheTTL:   5 * time.Minute,
			RateLimit:  10,
			RateWindow: time.Minute,
		},
	}
}

// Load reads path over the defaults and applies FARESCAN_* environment overrides.
// An empty path skips the file; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s not found", path)
			}
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		// JSON is valid YAML, so the same sections may be written as JSON.
		// Unknown keys are rejected rather than silently falling back to defaults.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	switch {
	case c.API.URL == "":
		return fmt.Errorf("api.url is required")
	case c.API.Timeout <= 0:
		return fmt.Errorf("api.timeout must be positive")
	case c.Search.Concurrency < 1:
		return fmt.Errorf("search.concurrency must be at least 1")
	case c.Search.MileValue.IsNegative():
		return fmt.Errorf("search.mile_value must not be negative")
	case c.Search.Adults < 1:
		return fmt.Errorf("search.adults must be at least 1")
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FARESCAN_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("FARESCAN_API_KEY"); v != "" {
		if c.API.Headers == nil {
			c.API.Headers = map[string]string{}
		}
		c.API.Headers["x-api-key"] = v
	}
	if v := os.Getenv("FARESCAN_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("FARESCAN_REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	}
	if v := os.Getenv("FARESCAN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FARESCAN_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FARESCAN_CONCURRENCY: %w", err)
		}
		c.Search.Concurrency = n
	}
	if v := os.Getenv("FARESCAN_MILE_VALUE"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("FARESCAN_MILE_VALUE: %w", err)
		}
		c.Search.MileValue = d
	}
	return nil
}
