package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain"
	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

// --- Set ---

func TestSet_PassesPathAndMerge(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc, err := domdoc.New("packs/base/units", "pikeman", map[string]any{"health": 10})
	if err != nil {
		t.Fatal(err)
	}

	var gotMerge bool
	ms.setFn = func(_ context.Context, collection, id string, data map[string]any, merge bool) error {
		if collection != "packs/base/units" || id != "pikeman" {
			t.Errorf("unexpected target %s/%s", collection, id)
		}
		if data["health"] != 10 {
			t.Errorf("unexpected data: %v", data)
		}
		gotMerge = merge
		return nil
	}

	if err := repo.Set(context.Background(), &doc, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotMerge {
		t.Error("merge flag not passed to store")
	}
}

func TestSet_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := domdoc.Reconstruct("units", "a", nil)
	ms.setFn = func(context.Context, string, string, map[string]any, bool) error {
		return errors.New("unavailable")
	}

	if err := repo.Set(context.Background(), &doc, false); err == nil {
		t.Fatal("expected error")
	}
}

// --- Add ---

func TestAdd_ReturnsGeneratedID(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.addFn = func(_ context.Context, _ string, _ map[string]any) (string, error) {
		return "abc123", nil
	}

	doc, err := repo.Add(context.Background(), "units", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "abc123" || doc.Collection() != "units" {
		t.Errorf("unexpected document %s", doc.Path())
	}
}

// --- Get ---

func TestGet_Found(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _, _ string) (map[string]any, error) {
		return map[string]any{"name": "Pikeman"}, nil
	}

	doc, err := repo.Get(context.Background(), "units", "pikeman")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Data()["name"] != "Pikeman" || doc.Path() != "units/pikeman" {
		t.Errorf("unexpected document: %s %v", doc.Path(), doc.Data())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _, _ string) (map[string]any, error) {
		return nil, db.ErrKeyNotFound
	}

	_, err := repo.Get(context.Background(), "units", "ghost")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _, _ string) (map[string]any, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("timeout")}
	}

	_, err := repo.Get(context.Background(), "units", "a")
	if err == nil || errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

// --- Update ---

func TestUpdate_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.updateFn = func(_ context.Context, _, _ string, _ []update.Update) error {
		return db.ErrKeyNotFound
	}

	err := repo.Update(context.Background(), "units", "ghost", []update.Update{update.Set("a", 1)})
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- Delete ---

func TestDelete_Success(t *testing.T) {
	repo, ms := newTestRepo(t)
	called := false
	ms.deleteFn = func(_ context.Context, collection, id string) error {
		called = collection == "units" && id == "a"
		return nil
	}

	if err := repo.Delete(context.Background(), "units", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("store delete not called with expected target")
	}
}

// --- Query ---

func TestQuery_MapsSnapshots(t *testing.T) {
	repo, ms := newTestRepo(t)
	q, err := query.New("units", []filter.Constraint{filter.New("age", ">", 5)}, 10)
	if err != nil {
		t.Fatal(err)
	}

	ms.queryFn = func(_ context.Context, got *query.Query) ([]db.Snapshot, error) {
		if got.Collection() != "units" || got.Limit() != 10 {
			t.Errorf("unexpected query: %s limit %d", got.Collection(), got.Limit())
		}
		return []db.Snapshot{
			{Collection: "units", ID: "a", Data: map[string]any{"age": 30}},
			{Collection: "units", ID: "b"},
		}, nil
	}

	docs, err := repo.Query(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].ID() != "a" || docs[0].Data()["age"] != 30 {
		t.Errorf("unexpected first doc: %s %v", docs[0].ID(), docs[0].Data())
	}
	if docs[1].Data() == nil {
		t.Error("nil snapshot data should hydrate as empty map")
	}
}

func TestQuery_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	q, _ := query.New("units", nil, 0)
	ms.queryFn = func(context.Context, *query.Query) ([]db.Snapshot, error) {
		return nil, errors.New("index required")
	}

	if _, err := repo.Query(context.Background(), &q); err == nil {
		t.Fatal("expected error")
	}
}
