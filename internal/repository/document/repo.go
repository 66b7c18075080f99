package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain"
	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
)

// store is the consumer interface for documents (ISP).
type store interface {
	SetDocument(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	AddDocument(ctx context.Context, collection string, data map[string]any) (string, error)
	GetDocument(ctx context.Context, collection, id string) (map[string]any, error)
	UpdateDocument(ctx context.Context, collection, id string, updates []update.Update) error
	DeleteDocument(ctx context.Context, collection, id string) error
	RunQuery(ctx context.Context, q *query.Query) ([]db.Snapshot, error)
}

// Repo implements usecase/document.Repository.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Set writes a document, merging into the stored one when merge is set.
func (r *Repo) Set(ctx context.Context, doc *domdoc.Document, merge bool) error {
	if err := r.store.SetDocument(ctx, doc.Collection(), doc.ID(), doc.Data(), merge); err != nil {
		return fmt.Errorf("set %s: %w", doc.Path(), err)
	}
	return nil
}

// Add stores data under a generated ID and returns the new document.
func (r *Repo) Add(ctx context.Context, collection string, data map[string]any) (domdoc.Document, error) {
	id, err := r.store.AddDocument(ctx, collection, data)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("add to %s: %w", collection, err)
	}
	return domdoc.Reconstruct(collection, id, data), nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, collection, id string) (domdoc.Document, error) {
	data, err := r.store.GetDocument(ctx, collection, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return domdoc.Reconstruct(collection, id, data), nil
}

// Update applies field updates to an existing document.
func (r *Repo) Update(ctx context.Context, collection, id string, updates []update.Update) error {
	if err := r.store.UpdateDocument(ctx, collection, id, updates); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrDocumentNotFound
		}
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	if err := r.store.DeleteDocument(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query runs a compound where-query against the store.
func (r *Repo) Query(ctx context.Context, q *query.Query) ([]domdoc.Document, error) {
	snaps, err := r.store.RunQuery(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection(), err)
	}
	return fromSnapshots(snaps), nil
}
