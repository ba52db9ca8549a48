package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alex-user-go/farescan/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Search.Concurrency)
	}
	if !cfg.Search.MileValue.Equal(decimal.RequireFromString("0.0175")) {
		t.Errorf("MileValue = %s, want 0.0175", cfg.Search.MileValue)
	}
	if cfg.Store.Path != "data/responses.json" {
		t.Errorf("Store.Path = %s", cfg.Store.Path)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "farescan.yaml", `
api:
  url: https://api.example.com/v1/airlines/search
  timeout: 5s
  headers:
    x-api-key: abc
    region: BRASIL
  params:
    currencyCode: USD
search:
  concurrency: 4
  mile_value: 0.02
  adults: 2
store:
  path: /tmp/responses.json
  ttl: 1h
server:
  addr: ":9090"
  cache_ttl: 30s
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.URL != "https://api.example.com/v1/airlines/search" {
		t.Errorf("API.URL = %s", cfg.API.URL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %s, want 5s", cfg.API.Timeout)
	}
	if cfg.API.Headers["x-api-key"] != "abc" || cfg.API.Headers["region"] != "BRASIL" {
		t.Errorf("API.Headers = %v", cfg.API.Headers)
	}
	if cfg.API.Params["currencyCode"] != "USD" {
		t.Errorf("currencyCode = %s, want USD", cfg.API.Params["currencyCode"])
	}
	if cfg.API.Params["tripType"] != "2" {
		t.Errorf("tripType = %s, want default 2 kept", cfg.API.Params["tripType"])
	}
	if cfg.Search.Concurrency != 4 || cfg.Search.Adults != 2 {
		t.Errorf("Search = %+v", cfg.Search)
	}
	if !cfg.Search.MileValue.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("MileValue = %s, want 0.02", cfg.Search.MileValue)
	}
	if cfg.Store.TTL != time.Hour {
		t.Errorf("Store.TTL = %s, want 1h", cfg.Store.TTL)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.CacheTTL != 30*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.RateLimit != 10 {
		t.Errorf("RateLimit = %d, want default 10", cfg.Server.RateLimit)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "smiles.json", `{
  "api": {
    "url": "https://api.example.com/search",
    "headers": {"channel": "web"},
    "params": {"r": "br"}
  }
}`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != "https://api.example.com/search" || cfg.API.Headers["channel"] != "web" || cfg.API.Params["r"] != "br" {
		t.Errorf("API = %+v", cfg.API)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FARESCAN_API_URL", "http://mock:9001/search")
	t.Setenv("FARESCAN_API_KEY", "from-env")
	t.Setenv("FARESCAN_CONCURRENCY", "3")
	t.Setenv("FARESCAN_MILE_VALUE", "0.03")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.URL != "http://mock:9001/search" {
		t.Errorf("API.URL = %s", cfg.API.URL)
	}
	if cfg.API.Headers["x-api-key"] != "from-env" {
		t.Errorf("x-api-key = %s", cfg.API.Headers["x-api-key"])
	}
	if cfg.Search.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Search.Concurrency)
	}
	if !cfg.Search.MileValue.Equal(decimal.RequireFromString("0.03")) {
		t.Errorf("MileValue = %s, want 0.03", cfg.Search.MileValue)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{name: "bad yaml", content: "api: [unclosed", wantErr: "failed to parse config"},
		{name: "bad duration", content: "api:\n  timeout: soon\n", wantErr: "failed to parse config"},
		{name: "zero concurrency", content: "search:\n  concurrency: 0\n", wantErr: "search.concurrency"},
		{name: "negative mile value", content: "search:\n  mile_value: -1\n", wantErr: "search.mile_value"},
		{name: "empty url", content: "api:\n  url: \"\"\n", wantErr: "api.url is required"},
		{name: "unknown section", content: "url: https://api.example.com\n", wantErr: "field url not found"},
		{name: "mistyped key", content: "search:\n  mile_valu: 0.02\n", wantErr: "field mile_valu not found"},
		{name: "bad env concurrency", content: "", env: map[string]string{"FARESCAN_CONCURRENCY": "many"}, wantErr: "FARESCAN_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, "farescan.yaml", tt.content)

			_, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := config.Load(writeFile(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != config.Default().API.URL {
		t.Errorf("API.URL = %s, want default", cfg.API.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}
