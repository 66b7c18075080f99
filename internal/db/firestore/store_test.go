package firestore

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

func TestRelativePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"projects/p/databases/(default)/documents/units", "units"},
		{"projects/p/databases/(default)/documents/packs/base/units", "packs/base/units"},
		{"units", "units"},
	}
	for _, tt := range tests {
		if got := relativePath(tt.in); got != tt.want {
			t.Errorf("relativePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToUpdates(t *testing.T) {
	got := toUpdates([]update.Update{
		update.Set("stats.health", 12),
		update.DeleteField("old"),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].FieldPath, firestore.FieldPath{"stats", "health"}) || got[0].Value != 12 {
		t.Errorf("unexpected set update: %+v", got[0])
	}
	if !reflect.DeepEqual(got[1].FieldPath, firestore.FieldPath{"old"}) || got[1].Value != firestore.Delete {
		t.Errorf("unexpected delete update: %+v", got[1])
	}
}

func TestStoreErr(t *testing.T) {
	if err := storeErr(db.OpGet, status.Error(codes.NotFound, "no doc")); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("NotFound: got %v", err)
	}

	err := storeErr(db.OpQuery, status.Error(codes.FailedPrecondition, "index required"))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpQuery {
		t.Errorf("expected *db.Error with QUERY op, got %v", err)
	}

	if err := storeErr(db.OpGet, context.Canceled); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: got %v", err)
	}
}

func TestNewStore_RequiresProject(t *testing.T) {
	if _, err := NewStore(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without project id")
	}
}

// --- emulator tests ---

func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	host := os.Getenv(emulatorHostEnv)
	if host == "" {
		t.Skip(emulatorHostEnv + " not set")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, Config{ProjectID: "firedoc-test", EmulatorHost: host})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.WaitForReady(ctx, 10*time.Second); err != nil {
		t.Fatalf("emulator not ready: %v", err)
	}
	return s
}

func TestEmulator_DocumentLifecycle(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	coll := "units_" + uuid.NewString()[:8]

	if err := s.SetDocument(ctx, coll, "pikeman", map[string]any{
		"name":  "Pikeman",
		"stats": map[string]any{"health": int64(10), "speed": int64(3)},
	}, false); err != nil {
		t.Fatalf("SetDocument: %v", err)
	}

	if err := s.SetDocument(ctx, coll, "pikeman", map[string]any{
		"stats": map[string]any{"health": int64(12)},
	}, true); err != nil {
		t.Fatalf("SetDocument merge: %v", err)
	}

	err := s.UpdateDocument(ctx, coll, "pikeman", []update.Update{
		update.Set("tier", int64(2)),
		update.DeleteField("stats.speed"),
	})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	got, err := s.GetDocument(ctx, coll, "pikeman")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	want := map[string]any{
		"name":  "Pikeman",
		"tier":  int64(2),
		"stats": map[string]any{"health": int64(12)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("document = %v, want %v", got, want)
	}

	if err := s.DeleteDocument(ctx, coll, "pikeman"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, coll, "pikeman"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
	if err := s.UpdateDocument(ctx, coll, "pikeman", []update.Update{update.Set("a", 1)}); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound updating missing doc, got %v", err)
	}
}

func TestEmulator_Query(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	coll := "people_" + uuid.NewString()[:8]

	for id, age := range map[string]int64{"bob": 30, "tim": 3, "ann": 41} {
		if err := s.SetDocument(ctx, coll, id, map[string]any{"age": age, "job": "smith"}, false); err != nil {
			t.Fatalf("SetDocument: %v", err)
		}
	}

	q, err := query.New(coll, []filter.Constraint{
		filter.New("job", "==", "smith"),
		filter.New("age", ">", 5),
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := s.RunQuery(ctx, &q)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 results, got %d", len(snaps))
	}
	for _, snap := range snaps {
		if snap.Collection != coll {
			t.Errorf("collection = %q, want %q", snap.Collection, coll)
		}
	}

	id, err := s.AddDocument(ctx, "packs/base/"+coll, map[string]any{"age": int64(50)})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	gq, err := query.NewGroup(coll, []filter.Constraint{filter.New("age", ">=", 50)}, 10)
	if err != nil {
		t.Fatal(err)
	}
	snaps, err = s.RunQuery(ctx, &gq)
	if err != nil {
		t.Fatalf("RunQuery group: %v", err)
	}
	if len(snaps) != 1 || snaps[0].ID != id || snaps[0].Collection != "packs/base/"+coll {
		t.Errorf("unexpected group result: %+v", snaps)
	}
}
