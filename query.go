package firedoc

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
	documentuc "github.com/kailas-cloud/firedoc/internal/usecase/document"
)

// Comparison operators accepted by Where.
const (
	OpEqual            = "=="
	OpNotEqual         = "!="
	OpLess             = "<"
	OpLessOrEqual      = "<="
	OpGreater          = ">"
	OpGreaterOrEqual   = ">="
	OpArrayContains    = "array-contains"
	OpArrayContainsAny = "array-contains-any"
	OpIn               = "in"
	OpNotIn            = "not-in"
)

// Query is an immutable where-query builder. Each method returns a new Query.
// Constraints are validated once, when the query runs.
type Query struct {
	client      *Client
	target      string
	group       bool
	constraints []filter.Constraint
	limit       int
}

// Where adds a constraint. Constraints on a query are AND-ed.
func (q *Query) Where(field, op string, value any) *Query {
	next := q.clone()
	next.constraints = append(next.constraints, filter.New(field, op, value))
	return next
}

// Limit caps the number of documents returned. Zero means the default limit.
func (q *Query) Limit(n int) *Query {
	next := q.clone()
	next.limit = n
	return next
}

// Validate reports whether the store can serve the query, without running it.
func (q *Query) Validate() error {
	res := q.client.docs.Check(q.constraints)
	if res.Valid {
		return nil
	}
	return fmt.Errorf("%s: %w", documentuc.Describe(res), ErrInvalidFilter)
}

// Documents runs the query. Constraint lists the store cannot serve fail
// with ErrInvalidFilter before any request is made.
func (q *Query) Documents(ctx context.Context) ([]DocumentSnapshot, error) {
	op := "query"
	if q.group {
		op = "query_group"
	}

	start := time.Now()
	var err error
	var snaps []DocumentSnapshot
	if q.group {
		docs, qerr := q.client.docs.QueryGroup(ctx, q.target, q.constraints, q.limit)
		snaps, err = toSnapshots(docs), qerr
	} else {
		docs, qerr := q.client.docs.Query(ctx, q.target, q.constraints, q.limit)
		snaps, err = toSnapshots(docs), qerr
	}
	q.client.obs.observe(op, q.target, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return snaps, nil
}

func (q *Query) clone() *Query {
	next := *q
	next.constraints = slices.Clone(q.constraints)
	return &next
}
