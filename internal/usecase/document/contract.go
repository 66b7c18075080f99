package document

import (
	"context"

	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Set(ctx context.Context, doc *domdoc.Document, merge bool) error
	Add(ctx context.Context, collection string, data map[string]any) (domdoc.Document, error)
	Get(ctx context.Context, collection, id string) (domdoc.Document, error)
	Update(ctx context.Context, collection, id string, updates []update.Update) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q *query.Query) ([]domdoc.Document, error)
}
