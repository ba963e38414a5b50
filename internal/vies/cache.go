package vies

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Cache stores VIES answers until they expire.
type Cache interface {
	Get(ctx context.Context, vatNumber string) (Result, bool)
	Put(ctx context.Context, r Result, expiresAt time.Time) error
}

type memoryEntry struct {
	result    Result
	expiresAt time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, vatNumber string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[vatNumber]
	if !ok || !c.now().Before(e.expiresAt) {
		return Result{}, false
	}
	return e.result, true
}

func (c *MemoryCache) Put(_ context.Context, r Result, expiresAt time.Time) error {
	c.mu.Lock()
	c.entries[r.VATNumber] = memoryEntry{result: r, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// PGCache keeps VIES answers in the vies_checks table so they survive
// restarts and are shared between instances.
type PGCache struct {
	pool *pgxpool.Pool
}

// NewPGCache creates a Postgres-backed cache.
func NewPGCache(pool *pgxpool.Pool) *PGCache {
	return &PGCache{pool: pool}
}

// Get treats lookup errors as misses.
func (c *PGCache) Get(ctx context.Context, vatNumber string) (Result, bool) {
	r := Result{VATNumber: vatNumber}
	var name, address *string

	err := c.pool.QueryRow(ctx, `
		SELECT country_code, is_valid, company_name, company_address, checked_at
		FROM vies_checks
		WHERE vat_number = $1 AND expires_at > now()
	`, vatNumber).Scan(&r.CountryCode, &r.Valid, &name, &address, &r.CheckedAt)
	if err != nil {
		return Result{}, false
	}

	if name != nil {
		r.Name = *name
	}
	if address != nil {
		r.Address = *address
	}
	return r, true
}

func (c *PGCache) Put(ctx context.Context, r Result, expiresAt time.Time) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO vies_checks (vat_number, country_code, is_valid, company_name, company_address, checked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vat_number) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			is_valid = EXCLUDED.is_valid,
			company_name = EXCLUDED.company_name,
			company_address = EXCLUDED.company_address,
			checked_at = EXCLUDED.checked_at,
			expires_at = EXCLUDED.expires_at
	`, r.VATNumber, r.CountryCode, r.Valid, nilIfEmpty(r.Name), nilIfEmpty(r.Address), r.CheckedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("upserting VIES check: %w", err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (c *PGCache) Purge(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM vies_checks WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purging VIES checks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
