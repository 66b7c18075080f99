package chi

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/firedoc/internal/domain/document/update"
	documentuc "github.com/kailas-cloud/firedoc/internal/usecase/document"
	healthuc "github.com/kailas-cloud/firedoc/internal/usecase/health"
)

// Server serves the document API over chi.
type Server struct {
	documents     *documentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(documents *documentuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		documents:     documents,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Get("/documents", s.ListDocuments)
			r.Post("/documents", s.AddDocument)
			r.Put("/documents/{id}", s.SetDocument)
			r.Get("/documents/{id}", s.GetDocument)
			r.Patch("/documents/{id}", s.PatchDocument)
			r.Delete("/documents/{id}", s.DeleteDocument)
			r.Delete("/documents/{id}/fields/{field}", s.DeleteField)
			r.Post("/query", s.QueryCollection)
		})
		r.Post("/collection-groups/{group}/query", s.QueryGroup)
		r.Post("/filters/check", s.CheckFilters)
	})
}

// SetDocument handles PUT /v1/collections/{collection}/documents/{id}.
func (s *Server) SetDocument(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.documentParams(w, r)
	if !ok {
		return
	}

	var merge bool
	if err := runtime.BindQueryParameter("form", true, false, "merge", r.URL.Query(), &merge); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter merge")
		return
	}

	var data map[string]any
	if err := decodeBody(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.documents.Create(r.Context(), collection, id, data, merge)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// AddDocument handles POST /v1/collections/{collection}/documents.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.pathParam(w, r, "collection")
	if !ok {
		return
	}

	var data map[string]any
	if err := decodeBody(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.documents.Add(r.Context(), collection, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location",
		"/v1/collections/"+url.PathEscape(doc.Collection())+"/documents/"+url.PathEscape(doc.ID()))
	writeJSON(w, http.StatusCreated, documentToResponse(&doc))
}

// ListDocuments handles GET /v1/collections/{collection}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.pathParam(w, r, "collection")
	if !ok {
		return
	}

	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter limit")
		return
	}

	docs, err := s.documents.List(r.Context(), collection, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsToResponse(docs))
}

// GetDocument handles GET /v1/collections/{collection}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.documentParams(w, r)
	if !ok {
		return
	}

	doc, err := s.documents.Get(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// PatchDocument handles PATCH /v1/collections/{collection}/documents/{id}.
func (s *Server) PatchDocument(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.documentParams(w, r)
	if !ok {
		return
	}

	var req PatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.documents.Update(r.Context(), collection, id, update.FromMap(req.Updates, req.Delete)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doc, err := s.documents.Get(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// DeleteDocument handles DELETE /v1/collections/{collection}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.documentParams(w, r)
	if !ok {
		return
	}

	if err := s.documents.Delete(r.Context(), collection, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteField handles DELETE /v1/collections/{collection}/documents/{id}/fields/{field}.
func (s *Server) DeleteField(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.documentParams(w, r)
	if !ok {
		return
	}
	field, ok := s.pathParam(w, r, "field")
	if !ok {
		return
	}

	if err := s.documents.DeleteField(r.Context(), collection, id, field); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryCollection handles POST /v1/collections/{collection}/query.
func (s *Server) QueryCollection(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.pathParam(w, r, "collection")
	if !ok {
		return
	}

	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	docs, err := s.documents.Query(r.Context(), collection, constraintsFromRequest(req.Where), req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsToResponse(docs))
}

// QueryGroup handles POST /v1/collection-groups/{group}/query.
func (s *Server) QueryGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := s.pathParam(w, r, "group")
	if !ok {
		return
	}

	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	docs, err := s.documents.QueryGroup(r.Context(), group, constraintsFromRequest(req.Where), req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsToResponse(docs))
}

// CheckFilters handles POST /v1/filters/check. It runs the same admission
// check as the query endpoints without touching the store. Invalid lists are
// a 200 with valid=false.
func (s *Server) CheckFilters(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res := s.documents.Check(constraintsFromRequest(req.Where))
	writeJSON(w, http.StatusOK, checkToResponse(res, documentuc.Describe(res)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// pathParam binds a path segment. chi routes on RawPath when the request
// carries one, so only then is the segment still escaped; nested collection
// paths travel as "packs%2Fbase%2Funits" and always take that branch.
func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		if raw == "" {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter "+name)
			return "", false
		}
		return raw, true
	}

	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, raw, &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter "+name)
		return "", false
	}
	return v, true
}

func (s *Server) documentParams(w http.ResponseWriter, r *http.Request) (collection, id string, ok bool) {
	if collection, ok = s.pathParam(w, r, "collection"); !ok {
		return "", "", false
	}
	if id, ok = s.pathParam(w, r, "id"); !ok {
		return "", "", false
	}
	return collection, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
