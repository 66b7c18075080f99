package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

// SetDocument creates or overwrites a document. With merge, data is
// deep-merged into the stored document inside a check-and-set transaction.
func (s *Store) SetDocument(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	key := s.docKey(collection, id)
	if !merge {
		return s.writeDoc(ctx, key, data)
	}
	return s.rewrite(ctx, key, func(current map[string]any, _ bool) (map[string]any, error) {
		update.Merge(current, data)
		return current, nil
	})
}

// AddDocument stores data under a generated ID.
func (s *Store) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := newID()
	if err := s.writeDoc(ctx, s.docKey(collection, id), data); err != nil {
		return "", err
	}
	return id, nil
}

// GetDocument returns the document fields.
func (s *Store) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	return s.readDoc(ctx, s.docKey(collection, id))
}

// UpdateDocument applies field updates to an existing document inside a
// check-and-set transaction, so a concurrent delete is not undone.
func (s *Store) UpdateDocument(ctx context.Context, collection, id string, updates []update.Update) error {
	key := s.docKey(collection, id)

	// skips taking a dedicated connection for missing documents
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return db.ErrKeyNotFound
	}

	return s.rewrite(ctx, key, func(current map[string]any, found bool) (map[string]any, error) {
		if !found {
			return nil, db.ErrKeyNotFound
		}
		update.Apply(current, updates)
		return current, nil
	})
}

// DeleteDocument removes a document. Documents in its subcollections are kept.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	return s.Del(ctx, s.docKey(collection, id))
}

// RunQuery scans the target collection (or every collection of a group),
// loads the documents and keeps those matching all constraints.
// Results are ordered by collection path, then document ID.
func (s *Store) RunQuery(ctx context.Context, q *query.Query) ([]db.Snapshot, error) {
	pattern := escapeGlob(s.prefix) + "*"
	if !q.IsGroup() {
		pattern = escapeGlob(s.prefix+q.Collection()+"/") + "*"
	}

	keys, err := s.Scan(ctx, pattern)
	if err != nil {
		return nil, err
	}

	refs := make([]db.Snapshot, 0, len(keys))
	for _, key := range keys {
		collection, id, ok := s.parseKey(key)
		if !ok {
			continue
		}
		if q.IsGroup() {
			if document.GroupID(collection) != q.Collection() {
				continue
			}
		} else if collection != q.Collection() {
			continue
		}
		refs = append(refs, db.Snapshot{Collection: collection, ID: id})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Collection != refs[j].Collection {
			return refs[i].Collection < refs[j].Collection
		}
		return refs[i].ID < refs[j].ID
	})

	docKeys := make([]string, len(refs))
	for i, r := range refs {
		docKeys[i] = s.docKey(r.Collection, r.ID)
	}
	raws, err := s.JSONGetMulti(ctx, docKeys)
	if err != nil {
		return nil, err
	}

	var out []db.Snapshot
	for i, raw := range raws {
		if raw == nil {
			// deleted between SCAN and JSON.GET
			continue
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", docKeys[i], err)
		}
		if !filter.MatchesAll(data, q.Constraints()) {
			continue
		}
		snap := refs[i]
		snap.Data = data
		out = append(out, snap)
		if q.Limit() > 0 && len(out) >= q.Limit() {
			break
		}
	}
	return out, nil
}

func (s *Store) readDoc(ctx context.Context, key string) (map[string]any, error) {
	raw, err := s.JSONGet(ctx, key)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func (s *Store) writeDoc(ctx context.Context, key string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.JSONSet(ctx, key, "$", raw)
}

func (s *Store) docKey(collection, id string) string {
	return s.prefix + collection + "/" + id
}

// parseKey splits a document key into its collection path and ID.
func (s *Store) parseKey(key string) (collection, id string, ok bool) {
	path, found := strings.CutPrefix(key, s.prefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// escapeGlob quotes SCAN MATCH metacharacters.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
