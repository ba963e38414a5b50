// Package archive keeps a write-once copy of every filed declaration.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("archived document not found")
	ErrExists   = errors.New("archived document already exists")
)

// Archive stores filed documents. Implementations never overwrite a key.
type Archive interface {
	// Put stores body under key and returns its URL.
	Put(ctx context.Context, key string, body []byte, contentType string) (url string, err error)

	// Get returns the document stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// URL returns a link to key valid for at least expiry.
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Key is the object path of a filed document.
func Key(ownerID uuid.UUID, year int, documentNumber string) string {
	return fmt.Sprintf("filings/%s/%d/%s.json", ownerID, year, documentNumber)
}
