package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alex-user-go/farescan/internal/store"
)

func TestFileStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		bodies []string
	}{
		{name: "several bodies", bodies: []string{`{"a":1}`, `{"requestedFlightSegmentList":[]}`, "not json at all"}},
		{name: "unicode", bodies: []string{`{"city":"São Paulo"}`}},
		{name: "empty", bodies: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "responses.json")
			s := store.NewFileStore(path)

			if err := s.Save(context.Background(), tt.bodies); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := s.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !slices.Equal(got, tt.bodies) {
				t.Errorf("Load() = %q, want %q", got, tt.bodies)
			}
		})
	}
}

func TestFileStore_WritesJSONArrayOfStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.json")
	s := store.NewFileStore(path)

	if err := s.Save(context.Background(), []string{`{"x":1}`, `{"y":2}`}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a JSON array of strings: %v", err)
	}
	if len(raw) != 2 || raw[0] != `{"x":1}` {
		t.Errorf("unexpected file contents: %s", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the responses file, found %d entries", len(entries))
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s := store.NewFileStore(filepath.Join(t.TempDir(), "responses.json"))
	ctx := context.Background()

	if err := s.Save(ctx, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, []string{"d"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(got, []string{"d"}) {
		t.Errorf("Load() = %q, want [d]", got)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := s.Load(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.json")
	if err := os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := store.NewFileStore(path).Load(context.Background())
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Error("corrupt file must not be reported as missing")
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	s := store.NewFileStore(filepath.Join(t.TempDir(), "responses.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Save(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
}

// TestRedisStore_RoundTrip needs a reachable server, e.g. FARESCAN_TEST_REDIS_URL=redis://localhost:6379/15.
func TestRedisStore_RoundTrip(t *testing.T) {
	url := os.Getenv("FARESCAN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FARESCAN_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	s, err := store.NewRedisStore(ctx, url, "test-"+t.Name(), time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer s.Close()

	bodies := []string{`{"a":1}`, `{"b":2}`}
	if err := s.Save(ctx, bodies); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(got, bodies) {
		t.Errorf("Load() = %q, want %q", got, bodies)
	}

	missing := store.NewRedisStoreWithClient(redisClientFor(t, url), "never-saved-"+t.Name(), 0)
	if _, err := missing.Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load() on missing key error = %v, want ErrNotFound", err)
	}
}

func redisClientFor(t *testing.T, url string) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := store.NewRedisStore(context.Background(), "http://not-redis", "x", 0)
	if err == nil {
		t.Fatal("expected error for non-redis url")
	}
}

func TestRedisStore_ErrorsNameKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := store.NewRedisStoreWithClient(client, "gru-jfk", time.Minute)

	ctx := context.Background()
	if err := s.Save(ctx, []string{"{}"}); err == nil || !strings.Contains(err.Error(), "farescan:responses:gru-jfk") {
		t.Errorf("Save() error = %v, want it to name the key", err)
	}
	if _, err := s.Load(ctx); err == nil || !strings.Contains(err.Error(), "farescan:responses:gru-jfk") {
		t.Errorf("Load() error = %v, want it to name the key", err)
	}
}
