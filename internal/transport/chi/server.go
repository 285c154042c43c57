// Package chi is the HTTP API of evidex on the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/assistant"
	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
	"github.com/kailas-cloud/evidex/internal/logger"
	aisearchuc "github.com/kailas-cloud/evidex/internal/usecase/aisearch"
	cataloguc "github.com/kailas-cloud/evidex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	researchuc "github.com/kailas-cloud/evidex/internal/usecase/research"
	"github.com/kailas-cloud/evidex/internal/version"
)

const maxBodyBytes = 16 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	catalogs      *cataloguc.Service
	research      *researchuc.Service
	ai            *aisearchuc.Service
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalogs *cataloguc.Service,
	research *researchuc.Service,
	ai *aisearchuc.Service,
	health *healthuc.Service,
) *Server {
	s := &Server{
		catalogs: catalogs,
		research: research,
		ai:       ai,
		health:   health,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		validationHandler,
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, ErrorCodeQuotaExceeded),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, ErrorCodeUpstreamError),
		sentinelHandler(domain.ErrAIProviderError, http.StatusBadGateway, ErrorCodeAIProviderError),
		sentinelHandler(domain.ErrNotConfigured, http.StatusNotImplemented, ErrorCodeNotConfigured),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalogs", s.ListCatalogs)
		r.Route("/catalogs/{catalog}", func(r chi.Router) {
			r.Get("/search", s.SearchCatalog)
			r.Get("/records/{id}", s.GetRecord)
			r.Get("/correct", s.CorrectWord)
		})
		r.Get("/pubmed/search", s.SearchPubMed)
		r.Post("/ai-search", s.AISearch)
	})
}

// ListCatalogs handles GET /api/v1/catalogs.
func (s *Server) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	sums := s.catalogs.List(r.Context())
	items := make([]CatalogSummary, len(sums))
	for i, sum := range sums {
		items[i] = summaryToAPI(sum)
	}
	writeJSON(w, http.StatusOK, CatalogListResponse{Items: items})
}

// SearchCatalog handles GET /api/v1/catalogs/{catalog}/search.
func (s *Server) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	params, err := bindCatalogSearch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	page, err := s.catalogs.Search(r.Context(), chi.URLParam(r, "catalog"), cataloguc.Query{
		Text:     deref(params.Q),
		Category: deref(params.Category),
		Offset:   deref(params.Offset),
		Limit:    deref(params.Limit),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToAPI(&page))
}

// GetRecord handles GET /api/v1/catalogs/{catalog}/records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.catalogs.Get(r.Context(), chi.URLParam(r, "catalog"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CorrectWord handles GET /api/v1/catalogs/{catalog}/correct.
func (s *Server) CorrectWord(w http.ResponseWriter, r *http.Request) {
	params, err := bindCorrect(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	c, err := s.catalogs.Correct(r.Context(), chi.URLParam(r, "catalog"), params.Word)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := CorrectionResponse{Word: params.Word}
	if fix, ok := c.Word(); ok {
		resp.Correction = &fix
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchPubMed handles GET /api/v1/pubmed/search.
func (s *Server) SearchPubMed(w http.ResponseWriter, r *http.Request) {
	params, err := bindPubMedSearch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	study, err := pubmed.ParseStudyType(deref(params.StudyType))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.research.Search(r.Context(), pubmed.Request{
		Query:      deref(params.Query),
		Condition:  deref(params.Condition),
		MaxResults: deref(params.MaxResults),
		Page:       deref(params.Page),
		DateFrom:   deref(params.DateFrom),
		DateTo:     deref(params.DateTo),
		StudyType:  study,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AISearch handles POST /api/v1/ai-search.
func (s *Server) AISearch(w http.ResponseWriter, r *http.Request) {
	var req AISearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := s.ai.Search(r.Context(), assistant.Request{Query: req.Query, Context: req.Context})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
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
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
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

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrQuotaExceeded,
		domain.ErrUpstream,
		domain.ErrAIProviderError,
		domain.ErrNotConfigured,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports the offending field of a validation error.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    ErrorCodeValidationFailed,
			"message": msg,
			"field":   ve.Field,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.FromContext(r.Context())
	lg.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	lg.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
