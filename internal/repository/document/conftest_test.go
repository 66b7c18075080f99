package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	setFn    func(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	addFn    func(ctx context.Context, collection string, data map[string]any) (string, error)
	getFn    func(ctx context.Context, collection, id string) (map[string]any, error)
	updateFn func(ctx context.Context, collection, id string, updates []update.Update) error
	deleteFn func(ctx context.Context, collection, id string) error
	queryFn  func(ctx context.Context, q *query.Query) ([]db.Snapshot, error)
}

func (m *mockStore) SetDocument(
	ctx context.Context, collection, id string, data map[string]any, merge bool,
) error {
	if m.setFn != nil {
		return m.setFn(ctx, collection, id, data, merge)
	}
	return nil
}

func (m *mockStore) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	if m.addFn != nil {
		return m.addFn(ctx, collection, data)
	}
	return "generated", nil
}

func (m *mockStore) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	if m.getFn != nil {
		return m.getFn(ctx, collection, id)
	}
	return map[string]any{}, nil
}

func (m *mockStore) UpdateDocument(ctx context.Context, collection, id string, updates []update.Update) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, collection, id, updates)
	}
	return nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, id)
	}
	return nil
}

func (m *mockStore) RunQuery(ctx context.Context, q *query.Query) ([]db.Snapshot, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}
