package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/kailas-cloud/firedoc/internal/db"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
)

// RunQuery chains the constraints as where filters on the collection or
// collection group and drains the result iterator.
func (s *Store) RunQuery(ctx context.Context, q *query.Query) ([]db.Snapshot, error) {
	fq := s.baseQuery(q)
	for _, c := range q.Constraints() {
		fq = fq.WherePath(fieldPath(c.Field), string(c.Comparator), c.Value)
	}
	if q.Limit() > 0 {
		fq = fq.Limit(q.Limit())
	}

	it := fq.Documents(ctx)
	defer it.Stop()

	var out []db.Snapshot
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storeErr(db.OpQuery, err)
		}
		out = append(out, db.Snapshot{
			Collection: relativePath(snap.Ref.Parent.Path),
			ID:         snap.Ref.ID,
			Data:       snap.Data(),
		})
	}
	return out, nil
}

func (s *Store) baseQuery(q *query.Query) firestore.Query {
	if q.IsGroup() {
		return s.client.CollectionGroup(q.Collection()).Query
	}
	return s.client.Collection(q.Collection()).Query
}

// relativePath strips "projects/<p>/databases/<d>/documents/" from a resource name.
func relativePath(name string) string {
	if _, rel, ok := strings.Cut(name, "/documents/"); ok {
		return rel
	}
	return name
}
