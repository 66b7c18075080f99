package firedoc

import (
	"context"
	"fmt"
	"strings"
	"time"

	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

// DocumentSnapshot is a document read from the store.
type DocumentSnapshot struct {
	ID         string
	Collection string
	Data       map[string]any
}

// Path is the full document path.
func (s DocumentSnapshot) Path() string { return s.Collection + "/" + s.ID }

// Field returns the value at a dot path ("stats.hp").
func (s DocumentSnapshot) Field(path string) (any, bool) {
	return filter.Lookup(s.Data, path)
}

func toSnapshot(d domdoc.Document) DocumentSnapshot {
	return DocumentSnapshot{ID: d.ID(), Collection: d.Collection(), Data: d.Data()}
}

func toSnapshots(docs []domdoc.Document) []DocumentSnapshot {
	out := make([]DocumentSnapshot, len(docs))
	for i, d := range docs {
		out[i] = toSnapshot(d)
	}
	return out
}

// CollectionRef points at a collection.
type CollectionRef struct {
	client *Client
	path   string
}

// Path is the full collection path.
func (r *CollectionRef) Path() string { return r.path }

// ID is the last path segment.
func (r *CollectionRef) ID() string { return domdoc.GroupID(r.path) }

// Parent returns the document holding a subcollection, or nil for a root collection.
func (r *CollectionRef) Parent() *DocumentRef {
	doc := domdoc.Parent(r.path)
	i := strings.LastIndexByte(doc, '/')
	if i < 0 {
		return nil
	}
	return &DocumentRef{client: r.client, collection: doc[:i], id: doc[i+1:]}
}

// Doc returns a reference to the document with the given ID.
func (r *CollectionRef) Doc(id string) *DocumentRef {
	return &DocumentRef{client: r.client, collection: r.path, id: id}
}

// Add stores data under a generated ID.
func (r *CollectionRef) Add(ctx context.Context, data map[string]any) (*DocumentRef, error) {
	start := time.Now()
	d, err := r.client.docs.Add(ctx, r.path, data)
	r.client.obs.observe("add", r.path, start, err)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return r.Doc(d.ID()), nil
}

// All returns the documents of the collection up to the default limit.
func (r *CollectionRef) All(ctx context.Context) ([]DocumentSnapshot, error) {
	start := time.Now()
	docs, err := r.client.docs.List(ctx, r.path, 0)
	r.client.obs.observe("list", r.path, start, err)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return toSnapshots(docs), nil
}

// Where starts a query on the collection.
func (r *CollectionRef) Where(field, op string, value any) *Query {
	q := &Query{client: r.client, target: r.path}
	return q.Where(field, op, value)
}

// Limit starts a query on the collection capped at n documents.
func (r *CollectionRef) Limit(n int) *Query {
	q := &Query{client: r.client, target: r.path}
	return q.Limit(n)
}

// DocumentRef points at a document.
type DocumentRef struct {
	client     *Client
	collection string
	id         string
}

// ID is the document ID.
func (r *DocumentRef) ID() string { return r.id }

// Path is the full document path.
func (r *DocumentRef) Path() string { return r.collection + "/" + r.id }

// Parent returns the collection holding the document.
func (r *DocumentRef) Parent() *CollectionRef {
	return &CollectionRef{client: r.client, path: r.collection}
}

// Collection returns a subcollection of the document.
func (r *DocumentRef) Collection(id string) *CollectionRef {
	return &CollectionRef{client: r.client, path: r.Path() + "/" + id}
}

// Set creates or overwrites the document.
func (r *DocumentRef) Set(ctx context.Context, data map[string]any) error {
	return r.write(ctx, "set", data, false)
}

// Merge deep-merges data into the document, creating it if missing.
func (r *DocumentRef) Merge(ctx context.Context, data map[string]any) error {
	return r.write(ctx, "merge", data, true)
}

func (r *DocumentRef) write(ctx context.Context, op string, data map[string]any, merge bool) error {
	start := time.Now()
	_, err := r.client.docs.Create(ctx, r.collection, r.id, data, merge)
	r.client.obs.observe(op, r.Path(), start, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get reads the document. Missing documents fail with ErrDocumentNotFound.
func (r *DocumentRef) Get(ctx context.Context) (DocumentSnapshot, error) {
	start := time.Now()
	d, err := r.client.docs.Get(ctx, r.collection, r.id)
	r.client.obs.observe("get", r.Path(), start, err)
	if err != nil {
		return DocumentSnapshot{}, fmt.Errorf("get: %w", err)
	}
	return toSnapshot(d), nil
}

// Update sets fields by dot path ("stats.hp") on an existing document.
func (r *DocumentRef) Update(ctx context.Context, fields map[string]any) error {
	start := time.Now()
	err := r.client.docs.Update(ctx, r.collection, r.id, update.FromMap(fields, nil))
	r.client.obs.observe("update", r.Path(), start, err)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// DeleteField removes one field by dot path.
func (r *DocumentRef) DeleteField(ctx context.Context, field string) error {
	start := time.Now()
	err := r.client.docs.DeleteField(ctx, r.collection, r.id, field)
	r.client.obs.observe("delete_field", r.Path(), start, err)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return nil
}

// Delete removes the document. Subcollections are left in place.
func (r *DocumentRef) Delete(ctx context.Context) error {
	start := time.Now()
	err := r.client.docs.Delete(ctx, r.collection, r.id)
	r.client.obs.observe("delete", r.Path(), start, err)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
