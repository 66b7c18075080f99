package document

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/firedoc/internal/domain"
	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
	logpkg "github.com/kailas-cloud/firedoc/internal/logger"
	"github.com/kailas-cloud/firedoc/internal/metrics"
)

// MaxMembershipValues is the largest list accepted by in, not-in and array-contains-any.
const MaxMembershipValues = 30

// Rejection reasons reported in logs and metrics besides the checker's own.
const (
	reasonEmptyField       = "empty_field"
	reasonMembershipValue  = "invalid_membership_value"
	reasonLimitOutOfBounds = "limit_out_of_bounds"
)

// Service wraps the document store with path validation and the
// filter-compatibility check on every query.
type Service struct {
	repo         Repository
	logger       *zap.Logger
	defaultLimit int
	maxLimit     int
}

// New creates a document service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		logger:       logger,
		defaultLimit: 100,
		maxLimit:     query.MaxLimit,
	}
}

// WithLimits configures the default and maximum number of documents a read returns.
func (s *Service) WithLimits(defaultLimit, maxLimit int) *Service {
	if maxLimit > 0 && maxLimit <= query.MaxLimit {
		s.maxLimit = maxLimit
	}
	if defaultLimit > 0 {
		s.defaultLimit = min(defaultLimit, s.maxLimit)
	}
	return s
}

// Create writes a document under a caller-chosen ID. With merge the fields
// are merged into an existing document instead of replacing it.
func (s *Service) Create(
	ctx context.Context, collection, id string, data map[string]any, merge bool,
) (domdoc.Document, error) {
	doc, err := domdoc.New(collection, id, data)
	if err != nil {
		return domdoc.Document{}, s.record("set", err)
	}
	if err := s.repo.Set(ctx, &doc, merge); err != nil {
		return domdoc.Document{}, s.record("set", fmt.Errorf("set document: %w", err))
	}
	return doc, s.record("set", nil)
}

// Add writes a document under a store-generated ID.
func (s *Service) Add(ctx context.Context, collection string, data map[string]any) (domdoc.Document, error) {
	if err := domdoc.ValidateCollectionPath(collection); err != nil {
		return domdoc.Document{}, s.record("add", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	doc, err := s.repo.Add(ctx, collection, data)
	if err != nil {
		return domdoc.Document{}, s.record("add", fmt.Errorf("add document: %w", err))
	}
	return doc, s.record("add", nil)
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, collection, id string) (domdoc.Document, error) {
	if err := validateTarget(collection, id); err != nil {
		return domdoc.Document{}, s.record("get", err)
	}
	doc, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return domdoc.Document{}, s.record("get", fmt.Errorf("get document: %w", err))
	}
	return doc, s.record("get", nil)
}

// List returns the documents of a collection, up to limit.
func (s *Service) List(ctx context.Context, collection string, limit int) ([]domdoc.Document, error) {
	return s.run(ctx, "list", collection, false, nil, limit)
}

// Query returns the documents of a collection matching every constraint.
// Constraint lists the store cannot serve fail with domain.ErrInvalidFilter.
func (s *Service) Query(
	ctx context.Context, collection string, constraints []filter.Constraint, limit int,
) ([]domdoc.Document, error) {
	return s.run(ctx, "query", collection, false, constraints, limit)
}

// QueryGroup runs Query across every collection with the given ID.
func (s *Service) QueryGroup(
	ctx context.Context, groupID string, constraints []filter.Constraint, limit int,
) ([]domdoc.Document, error) {
	return s.run(ctx, "query_group", groupID, true, constraints, limit)
}

// Check runs the compatibility check and the value checks without touching the store.
func (s *Service) Check(constraints []filter.Constraint) filter.Result {
	return CheckConstraints(constraints)
}

// CheckConstraints is Check for callers without a store, such as offline tooling.
func CheckConstraints(constraints []filter.Constraint) filter.Result {
	return checkValues(filter.Check(constraints), constraints)
}

// checkValues extends a passing compatibility result with the value checks.
func checkValues(res filter.Result, constraints []filter.Constraint) filter.Result {
	if !res.Valid {
		return res
	}
	for i, c := range constraints {
		if reason := valueProblem(c); reason != "" {
			return filter.Result{
				Reason:     filter.Reason(reason),
				Index:      i,
				Field:      c.Field,
				Comparator: c.Comparator,
			}
		}
	}
	return res
}

// Update applies dot-path field updates to an existing document.
func (s *Service) Update(ctx context.Context, collection, id string, updates []update.Update) error {
	if err := validateTarget(collection, id); err != nil {
		return s.record("update", err)
	}
	if err := update.Validate(updates); err != nil {
		return s.record("update", err)
	}
	if err := s.repo.Update(ctx, collection, id, updates); err != nil {
		return s.record("update", fmt.Errorf("update document: %w", err))
	}
	return s.record("update", nil)
}

// DeleteField removes one field from an existing document.
func (s *Service) DeleteField(ctx context.Context, collection, id, field string) error {
	if err := validateTarget(collection, id); err != nil {
		return s.record("delete_field", err)
	}
	updates := []update.Update{update.DeleteField(field)}
	if err := update.Validate(updates); err != nil {
		return s.record("delete_field", err)
	}
	if err := s.repo.Update(ctx, collection, id, updates); err != nil {
		return s.record("delete_field", fmt.Errorf("delete field: %w", err))
	}
	return s.record("delete_field", nil)
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if err := validateTarget(collection, id); err != nil {
		return s.record("delete", err)
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return s.record("delete", fmt.Errorf("delete document: %w", err))
	}
	return s.record("delete", nil)
}

func (s *Service) run(
	ctx context.Context, op, target string, group bool, constraints []filter.Constraint, limit int,
) ([]domdoc.Document, error) {
	limit, err := s.resolveLimit(limit)
	if err != nil {
		s.reject(ctx, target, filter.Result{Reason: reasonLimitOutOfBounds})
		return nil, s.record(op, err)
	}

	var q query.Query
	if group {
		q, err = query.NewGroup(target, constraints, limit)
	} else {
		q, err = query.New(target, constraints, limit)
	}
	if err != nil {
		return nil, s.record(op, err)
	}

	if err := s.admit(ctx, &q); err != nil {
		return nil, s.record(op, err)
	}

	docs, err := s.repo.Query(ctx, &q)
	if err != nil {
		return nil, s.record(op, fmt.Errorf("run query: %w", err))
	}
	metrics.QueryResultsReturned.Observe(float64(len(docs)))
	return docs, s.record(op, nil)
}

// admit rejects constraint lists before they reach the store.
func (s *Service) admit(ctx context.Context, q *query.Query) error {
	res := checkValues(q.Check(), q.Constraints())
	if res.Valid {
		return nil
	}
	s.reject(ctx, q.Collection(), res)
	return fmt.Errorf("%s: %w", Describe(res), domain.ErrInvalidFilter)
}

// reject logs through the request logger when ctx carries one.
func (s *Service) reject(ctx context.Context, target string, res filter.Result) {
	logpkg.FromContext(ctx, s.logger).Warn("Query rejected",
		zap.String("collection", target),
		zap.String("reason", string(res.Reason)),
		zap.String("field", res.Field),
		zap.String("conflicting_field", res.ConflictingField),
		zap.String("comparator", string(res.Comparator)),
	)
	metrics.QueryRejectedTotal.WithLabelValues(string(res.Reason)).Inc()
}

func (s *Service) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, fmt.Errorf("limit must not be negative: %w", domain.ErrInvalidFilter)
	case limit == 0:
		return s.defaultLimit, nil
	case limit > s.maxLimit:
		return s.maxLimit, nil
	default:
		return limit, nil
	}
}

// record counts the operation outcome and returns err unchanged.
func (s *Service) record(op string, err error) error {
	metrics.DocumentOperationsTotal.WithLabelValues(op, outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrInvalidDocument):
		return "invalid"
	default:
		return "error"
	}
}

func validateTarget(collection, id string) error {
	if err := domdoc.ValidateCollectionPath(collection); err != nil {
		return err
	}
	return domdoc.ValidateID(id)
}

// valueProblem returns a rejection reason for a constraint whose value the
// comparator cannot take, or "".
func valueProblem(c filter.Constraint) string {
	if c.Field == "" {
		return reasonEmptyField
	}
	if c.Comparator.IsMembership() {
		n := filter.ListLen(c.Value)
		if n < 1 || n > MaxMembershipValues {
			return reasonMembershipValue
		}
	}
	return ""
}

// Describe renders a Check result as a human-readable message.
func Describe(res filter.Result) string {
	switch res.Reason {
	case reasonEmptyField:
		return fmt.Sprintf("constraint %d has no field", res.Index)
	case reasonMembershipValue:
		return fmt.Sprintf("%s on field %q needs a list of 1 to %d values",
			res.Comparator, res.Field, MaxMembershipValues)
	default:
		return res.String()
	}
}
