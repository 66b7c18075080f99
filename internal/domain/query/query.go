// Package query holds the compound where-query value object.
package query

import (
	"fmt"

	"github.com/kailas-cloud/firedoc/internal/domain"
	"github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

// MaxLimit caps the number of documents a single query returns.
const MaxLimit = 10000

// Query is a conjunction of constraints over one collection or a collection group.
// Constraints are not checked for compatibility here; see filter.Check.
type Query struct {
	collection  string
	group       bool
	constraints []filter.Constraint
	limit       int
}

// New creates a query over a collection path. limit <= 0 means no limit.
func New(collectionPath string, constraints []filter.Constraint, limit int) (Query, error) {
	if err := document.ValidateCollectionPath(collectionPath); err != nil {
		return Query{}, err
	}
	return newQuery(collectionPath, false, constraints, limit)
}

// NewGroup creates a query over every collection whose last path segment is groupID.
func NewGroup(groupID string, constraints []filter.Constraint, limit int) (Query, error) {
	if err := document.ValidateID(groupID); err != nil {
		return Query{}, fmt.Errorf("collection group: %w", err)
	}
	return newQuery(groupID, true, constraints, limit)
}

func newQuery(target string, group bool, constraints []filter.Constraint, limit int) (Query, error) {
	if limit > MaxLimit {
		return Query{}, fmt.Errorf("limit %d exceeds max %d: %w", limit, MaxLimit, domain.ErrInvalidFilter)
	}
	if limit < 0 {
		limit = 0
	}
	cs := make([]filter.Constraint, len(constraints))
	copy(cs, constraints)
	return Query{collection: target, group: group, constraints: cs, limit: limit}, nil
}

// Collection returns the collection path, or the group ID for group queries.
func (q Query) Collection() string { return q.collection }

// IsGroup reports whether this is a collection group query.
func (q Query) IsGroup() bool { return q.group }

// Constraints returns the where constraints in order.
func (q Query) Constraints() []filter.Constraint { return q.constraints }

// Limit returns the result limit, 0 meaning unlimited.
func (q Query) Limit() int { return q.limit }

// Check runs the filter compatibility check over the query constraints.
func (q Query) Check() filter.Result { return filter.Check(q.constraints) }
