//go:build integration

package vies

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/autonomo/api/internal/testutil"
)

var testDB *testutil.TestDB

func TestMain(m *testing.M) {
	db, err := testutil.SetupTestDB()
	if err != nil {
		log.Fatalf("setting up test database: %v", err)
	}
	testDB = db

	code := m.Run()
	db.Close()
	os.Exit(code)
}

func TestPGCache_RoundTrip(t *testing.T) {
	testDB.Truncate(t)
	cache := NewPGCache(testDB.Pool)
	ctx := context.Background()

	checked := time.Now().UTC().Truncate(time.Second)
	r := Result{VATNumber: "ESB12345674", CountryCode: "ES", Valid: true, Name: "Estudio Norte S.L.", CheckedAt: checked}
	if err := cache.Put(ctx, r, checked.Add(time.Hour)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := cache.Get(ctx, "ESB12345674")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Valid || got.Name != r.Name || got.Address != "" || got.CountryCode != "ES" {
		t.Errorf("unexpected result %+v", got)
	}
	if !got.CheckedAt.Equal(checked) {
		t.Errorf("CheckedAt: want %v, got %v", checked, got.CheckedAt)
	}

	r.Valid = false
	if err := cache.Put(ctx, r, checked.Add(time.Hour)); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, _ = cache.Get(ctx, "ESB12345674")
	if got.Valid {
		t.Error("expected upsert to replace the cached answer")
	}
}

func TestPGCache_ExpiredIsMissAndPurged(t *testing.T) {
	testDB.Truncate(t)
	cache := NewPGCache(testDB.Pool)
	ctx := context.Background()

	past := time.Now().UTC().Add(-2 * time.Hour)
	if err := cache.Put(ctx, Result{VATNumber: "DE123456789", CountryCode: "DE", CheckedAt: past}, past.Add(time.Hour)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := cache.Get(ctx, "DE123456789"); ok {
		t.Error("expected expired entry to miss")
	}

	n, err := cache.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged row, got %d", n)
	}
}
