package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	DocumentStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Snapshot is a document read from the store.
type Snapshot struct {
	Collection string
	ID         string
	Data       map[string]any
}

// DocumentStore provides document CRUD and where-queries.
// Collection arguments are full collection paths ("packs/base/units").
type DocumentStore interface {
	// SetDocument creates or overwrites a document. With merge, data is
	// deep-merged into the existing document instead.
	SetDocument(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	// AddDocument creates a document with a generated ID.
	AddDocument(ctx context.Context, collection string, data map[string]any) (string, error)
	// GetDocument returns ErrKeyNotFound if the document does not exist.
	GetDocument(ctx context.Context, collection, id string) (map[string]any, error)
	// UpdateDocument returns ErrKeyNotFound if the document does not exist.
	UpdateDocument(ctx context.Context, collection, id string, updates []update.Update) error
	// DeleteDocument is a no-op for missing documents. Subcollections are kept.
	DeleteDocument(ctx context.Context, collection, id string) error
	// RunQuery applies the query constraints as chained where filters.
	RunQuery(ctx context.Context, q *query.Query) ([]Snapshot, error)
}
