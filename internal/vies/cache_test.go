package vies

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	r := Result{VATNumber: "DE123456789", CountryCode: "DE", Valid: true}
	if err := c.Put(ctx, r, now.Add(time.Hour)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get(ctx, "DE123456789")
	if !ok || !got.Valid {
		t.Fatalf("expected a fresh hit, got %+v, %v", got, ok)
	}

	now = now.Add(time.Hour)
	if _, ok := c.Get(ctx, "DE123456789"); ok {
		t.Error("expected entry to expire at its deadline")
	}
	if c.Len() != 1 {
		t.Errorf("expected expired entry to stay until overwritten, got %d", c.Len())
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	if _, ok := NewMemoryCache().Get(context.Background(), "FR12345678901"); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{}, nil)
	if c.endpoint != DefaultEndpoint {
		t.Errorf("endpoint: want %q, got %q", DefaultEndpoint, c.endpoint)
	}
	if c.client.Timeout != 10*time.Second {
		t.Errorf("timeout: want 10s, got %v", c.client.Timeout)
	}
	if _, ok := c.cache.(*MemoryCache); !ok {
		t.Errorf("expected a memory cache, got %T", c.cache)
	}

	cache := NewMemoryCache()
	c = NewClient(Options{Cache: cache}, nil)
	if c.cache != Cache(cache) {
		t.Error("expected the provided cache to be used")
	}
}
