package firestore

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
)

// SetDocument creates or overwrites a document, merging all fields when merge is set.
func (s *Store) SetDocument(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data, opts...); err != nil {
		return storeErr(db.OpSet, err)
	}
	return nil
}

// AddDocument stores data under a Firestore-generated ID.
func (s *Store) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", storeErr(db.OpAdd, err)
	}
	return ref.ID, nil
}

// GetDocument returns the document fields.
func (s *Store) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeErr(db.OpGet, err)
	}
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// UpdateDocument applies field updates natively. Firestore fails with
// NotFound when the document does not exist.
func (s *Store) UpdateDocument(ctx context.Context, collection, id string, updates []update.Update) error {
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(updates)); err != nil {
		return storeErr(db.OpUpdate, err)
	}
	return nil
}

// DeleteDocument removes a document. Subcollections are left in place.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return storeErr(db.OpDelete, err)
	}
	return nil
}

func toUpdates(updates []update.Update) []firestore.Update {
	out := make([]firestore.Update, len(updates))
	for i, u := range updates {
		out[i] = firestore.Update{FieldPath: fieldPath(u.Path), Value: u.Value}
		if u.Delete {
			out[i].Value = firestore.Delete
		}
	}
	return out
}

// fieldPath splits a dot path so segments are sent verbatim.
func fieldPath(path string) firestore.FieldPath {
	return firestore.FieldPath(strings.Split(path, "."))
}
