package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

// maxBodyBytes caps request bodies; Firestore documents are limited to 1 MiB.
const maxBodyBytes = 1 << 20

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInvalidPath      ErrorCode = "invalid_path"
	ErrorCodeInvalidFilter    ErrorCode = "invalid_filter"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeDocumentNotFound ErrorCode = "document_not_found"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DocumentResponse is a single document.
type DocumentResponse struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Path       string         `json:"path"`
	Data       map[string]any `json:"data"`
}

// DocumentListResponse is the result of a list or query.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Count int                `json:"count"`
}

// WhereClause is one constraint of a query request.
type WhereClause struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// QueryRequest is the body of the query endpoints.
type QueryRequest struct {
	Where []WhereClause `json:"where"`
	Limit int           `json:"limit,omitempty"`
}

// CheckRequest is the body of POST /v1/filters/check.
type CheckRequest struct {
	Where []WhereClause `json:"where"`
}

// CheckResponse reports the outcome of the compatibility check.
type CheckResponse struct {
	Valid            bool   `json:"valid"`
	Reason           string `json:"reason,omitempty"`
	Index            *int   `json:"index,omitempty"`
	Field            string `json:"field,omitempty"`
	ConflictingField string `json:"conflicting_field,omitempty"`
	RangeField       string `json:"range_field,omitempty"`
	Message          string `json:"message"`
}

// PatchRequest is the body of PATCH on a document.
type PatchRequest struct {
	Updates map[string]any `json:"updates"`
	Delete  []string       `json:"delete"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	data := doc.Data()
	if data == nil {
		data = map[string]any{}
	}
	return DocumentResponse{
		ID:         doc.ID(),
		Collection: doc.Collection(),
		Path:       doc.Path(),
		Data:       data,
	}
}

func documentsToResponse(docs []domdoc.Document) DocumentListResponse {
	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
	}
	return DocumentListResponse{Items: items, Count: len(items)}
}

func constraintsFromRequest(where []WhereClause) []filter.Constraint {
	cs := make([]filter.Constraint, len(where))
	for i, w := range where {
		cs[i] = filter.New(w.Field, w.Op, w.Value)
	}
	return cs
}

func checkToResponse(res filter.Result, message string) CheckResponse {
	resp := CheckResponse{
		Valid:      res.Valid,
		RangeField: res.RangeField,
		Message:    message,
	}
	if !res.Valid {
		idx := res.Index
		resp.Index = &idx
		resp.Reason = string(res.Reason)
		resp.Field = res.Field
		resp.ConflictingField = res.ConflictingField
	}
	return resp
}

// decodeBody decodes a JSON body into v. Numbers are kept exact: integers
// become int64 and everything else float64.
func decodeBody(r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(raw) > maxBodyBytes {
		return fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	normalizeInto(v)
	return nil
}

func normalizeInto(v any) {
	switch t := v.(type) {
	case *map[string]any:
		*t = normalize(*t).(map[string]any)
	case *QueryRequest:
		normalizeWhere(t.Where)
	case *CheckRequest:
		normalizeWhere(t.Where)
	case *PatchRequest:
		t.Updates, _ = normalize(t.Updates).(map[string]any)
	}
}

func normalizeWhere(where []WhereClause) {
	for i := range where {
		where[i].Value = normalize(where[i].Value)
	}
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		if t == nil {
			return t
		}
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}
