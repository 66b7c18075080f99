package document

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/firedoc/internal/domain"
	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	"github.com/kailas-cloud/firedoc/internal/domain/query"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
	logpkg "github.com/kailas-cloud/firedoc/internal/logger"
	"github.com/kailas-cloud/firedoc/internal/metrics"
)

// --- Mocks ---

type mockDocRepo struct {
	setErr    error
	setMerge  bool
	addResult domdoc.Document
	addErr    error
	getResult domdoc.Document
	getErr    error
	updateErr error
	updates   []update.Update
	deleteErr error
	queryDocs []domdoc.Document
	queryErr  error
	lastQuery *query.Query
	calls     int
}

func (m *mockDocRepo) Set(_ context.Context, _ *domdoc.Document, merge bool) error {
	m.calls++
	m.setMerge = merge
	return m.setErr
}
func (m *mockDocRepo) Add(_ context.Context, _ string, _ map[string]any) (domdoc.Document, error) {
	m.calls++
	return m.addResult, m.addErr
}
func (m *mockDocRepo) Get(_ context.Context, _, _ string) (domdoc.Document, error) {
	m.calls++
	return m.getResult, m.getErr
}
func (m *mockDocRepo) Update(_ context.Context, _, _ string, updates []update.Update) error {
	m.calls++
	m.updates = updates
	return m.updateErr
}
func (m *mockDocRepo) Delete(_ context.Context, _, _ string) error {
	m.calls++
	return m.deleteErr
}
func (m *mockDocRepo) Query(_ context.Context, q *query.Query) ([]domdoc.Document, error) {
	m.calls++
	m.lastQuery = q
	return m.queryDocs, m.queryErr
}

func newObservedService(repo Repository) (*Service, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return New(repo, zap.New(core)), logs
}

// --- Create / Add ---

func TestCreate_Success(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, zap.NewNop())

	doc, err := svc.Create(context.Background(), "units", "pikeman", map[string]any{"health": 10}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Path() != "units/pikeman" {
		t.Errorf("unexpected path %q", doc.Path())
	}
	if !repo.setMerge {
		t.Error("merge flag not forwarded")
	}
}

func TestCreate_InvalidPath(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, nil)

	_, err := svc.Create(context.Background(), "units/pikeman", "x", nil, false)
	if !errors.Is(err, domain.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("repository must not be called for invalid paths")
	}
}

func TestAdd_RepoError(t *testing.T) {
	repo := &mockDocRepo{addErr: errors.New("unavailable")}
	svc := New(repo, nil)

	if _, err := svc.Add(context.Background(), "units", map[string]any{}); err == nil {
		t.Fatal("expected error")
	}
}

// --- Get / Update / Delete ---

func TestGet_NotFound(t *testing.T) {
	repo := &mockDocRepo{getErr: domain.ErrDocumentNotFound}
	svc := New(repo, nil)

	before := testutil.ToFloat64(metrics.DocumentOperationsTotal.WithLabelValues("get", "not_found"))
	_, err := svc.Get(context.Background(), "units", "ghost")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	after := testutil.ToFloat64(metrics.DocumentOperationsTotal.WithLabelValues("get", "not_found"))
	if after != before+1 {
		t.Errorf("expected not_found counter to grow by 1, got %f -> %f", before, after)
	}
}

func TestUpdate_InvalidUpdates(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, nil)

	err := svc.Update(context.Background(), "units", "a", []update.Update{
		update.Set("stats", 1),
		update.Set("stats.health", 2),
	})
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("repository must not be called")
	}
}

func TestDeleteField_SendsDeleteUpdate(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, nil)

	if err := svc.DeleteField(context.Background(), "units", "a", "stats.speed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.updates) != 1 || !repo.updates[0].Delete || repo.updates[0].Path != "stats.speed" {
		t.Errorf("unexpected updates: %+v", repo.updates)
	}
}

func TestDelete_InvalidID(t *testing.T) {
	svc := New(&mockDocRepo{}, nil)
	if err := svc.Delete(context.Background(), "units", "__reserved__"); !errors.Is(err, domain.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

// --- Query ---

func TestQuery_Valid(t *testing.T) {
	repo := &mockDocRepo{queryDocs: []domdoc.Document{domdoc.Reconstruct("people", "bob", nil)}}
	svc := New(repo, nil)

	docs, err := svc.Query(context.Background(), "people", []filter.Constraint{
		filter.New("job", "==", "smith"),
		filter.New("age", ">", 5),
		filter.New("age", "<", 90),
	}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if repo.lastQuery.Limit() != 100 {
		t.Errorf("expected default limit 100, got %d", repo.lastQuery.Limit())
	}
}

func TestQuery_RejectsTwoRestrictiveFields(t *testing.T) {
	repo := &mockDocRepo{}
	svc, logs := newObservedService(repo)

	rejected := metrics.QueryRejectedTotal.WithLabelValues("multiple_restrictive_fields")
	before := testutil.ToFloat64(rejected)

	_, err := svc.Query(context.Background(), "people", []filter.Constraint{
		filter.New("age", ">", 5),
		filter.New("height", "<", 200),
	}, 10)
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("store must not be queried for rejected constraints")
	}
	if got := testutil.ToFloat64(rejected); got != before+1 {
		t.Errorf("expected rejection counter to grow by 1, got %f -> %f", before, got)
	}

	entries := logs.FilterMessage("Query rejected").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["field"] != "height" || fields["conflicting_field"] != "age" {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestQuery_RejectLogsWithRequestLogger(t *testing.T) {
	svc, serviceLogs := newObservedService(&mockDocRepo{})

	core, requestLogs := observer.New(zapcore.WarnLevel)
	reqLogger := zap.New(core).With(zap.String("request_id", "req-42"))
	ctx := logpkg.ContextWithLogger(context.Background(), reqLogger)

	_, err := svc.QueryGroup(ctx, "units", []filter.Constraint{
		filter.New("cost", "<=", 3),
		filter.New("tier", "!=", 1),
	}, 0)
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}

	if n := serviceLogs.Len(); n != 0 {
		t.Errorf("service logger got %d entries, want the request logger used", n)
	}
	entries := requestLogs.FilterMessage("Query rejected").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-42" || fields["collection"] != "units" || fields["field"] != "tier" {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestQuery_RejectsUnknownComparator(t *testing.T) {
	svc := New(&mockDocRepo{}, nil)
	_, err := svc.Query(context.Background(), "people", []filter.Constraint{
		filter.New("age", "=>", 5),
	}, 0)
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestQuery_MembershipValues(t *testing.T) {
	tooMany := make([]any, MaxMembershipValues+1)
	for i := range tooMany {
		tooMany[i] = i
	}

	tests := []struct {
		name  string
		c     filter.Constraint
		valid bool
	}{
		{"in list", filter.New("job", "in", []any{"smith", "baker"}), true},
		{"in scalar", filter.New("job", "in", "smith"), false},
		{"in empty", filter.New("job", "in", []any{}), false},
		{"not-in too many", filter.New("job", "not-in", tooMany), false},
		{"array-contains scalar", filter.New("tags", "array-contains", "x"), true},
		{"empty field", filter.New("", "==", 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockDocRepo{}, nil)
			_, err := svc.Query(context.Background(), "people", []filter.Constraint{tt.c}, 0)
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, domain.ErrInvalidFilter) {
				t.Fatalf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestQuery_Limits(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, nil).WithLimits(20, 50)

	if _, err := svc.Query(context.Background(), "people", nil, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastQuery.Limit() != 50 {
		t.Errorf("expected limit clamped to 50, got %d", repo.lastQuery.Limit())
	}

	if _, err := svc.List(context.Background(), "people", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastQuery.Limit() != 20 {
		t.Errorf("expected default limit 20, got %d", repo.lastQuery.Limit())
	}

	if _, err := svc.List(context.Background(), "people", -1); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter for negative limit, got %v", err)
	}
}

func TestQueryGroup(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, nil)

	_, err := svc.QueryGroup(context.Background(), "units", []filter.Constraint{
		filter.New("tags", "array-contains", "melee"),
	}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.lastQuery.IsGroup() || repo.lastQuery.Collection() != "units" {
		t.Errorf("expected group query on units, got %+v", repo.lastQuery)
	}

	if _, err := svc.QueryGroup(context.Background(), "packs/units", nil, 0); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for a path as group id, got %v", err)
	}
}

func TestCheck_Describe(t *testing.T) {
	svc := New(&mockDocRepo{}, nil)

	res := svc.Check([]filter.Constraint{filter.New("job", "in", "smith")})
	if res.Valid || string(res.Reason) != reasonMembershipValue {
		t.Fatalf("unexpected result: %+v", res)
	}
	if msg := Describe(res); msg == "" || msg == "ok" {
		t.Errorf("unexpected message %q", msg)
	}

	res = svc.Check([]filter.Constraint{filter.New("age", ">", 1), filter.New("age", "!=", 3)})
	if !res.Valid || res.RangeField != "age" {
		t.Errorf("expected valid result with range field age, got %+v", res)
	}
}
