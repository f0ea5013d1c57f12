// Package store persists parsed diagrams for the server API. Two backends
// are provided: an in-memory store for tests and single-process use, and a
// MongoDB store for deployments that need durability.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mermaid/pkg/mermaid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("diagram not found")

// Record is a stored diagram: the original source together with its parse
// result, identified by a server-assigned UUID.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name,omitempty" bson:"name,omitempty"`
	Source    string          `json:"source" bson:"source"`
	Result    *mermaid.Result `json:"result" bson:"result"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
}

// Store is the persistence interface shared by all backends.
type Store interface {
	// Put inserts a record, assigning ID and CreatedAt when unset.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first. A non-positive
	// limit returns all records.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes a record by ID. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// prepare fills the server-assigned fields of a record before insert.
func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}
