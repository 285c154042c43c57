package chi

import (
	domcat "github.com/kailas-cloud/evidex/internal/domain/catalog"
	cataloguc "github.com/kailas-cloud/evidex/internal/usecase/catalog"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeQuotaExceeded    ErrorCode = "quota_exceeded"
	ErrorCodeUpstreamError    ErrorCode = "upstream_error"
	ErrorCodeAIProviderError  ErrorCode = "ai_provider_error"
	ErrorCodeNotConfigured    ErrorCode = "not_configured"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CatalogSummary is a catalog entry of the catalog list.
type CatalogSummary struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	RecordCount   int    `json:"record_count"`
	CategoryCount int    `json:"category_count"`
}

// CatalogListResponse is the body of GET /api/v1/catalogs.
type CatalogListResponse struct {
	Items []CatalogSummary `json:"items"`
}

// CatalogSearchResponse is one page of catalog records.
type CatalogSearchResponse struct {
	Items          []domcat.Record `json:"items"`
	Total          int             `json:"total"`
	Offset         int             `json:"offset"`
	Limit          int             `json:"limit"`
	HasMore        bool            `json:"has_more"`
	Suggestion     *string         `json:"suggestion,omitempty"`
	CorrectedQuery *string         `json:"corrected_query,omitempty"`
	Outcome        string          `json:"outcome"`
}

// CorrectionResponse is the body of the word correction endpoint.
type CorrectionResponse struct {
	Word       string  `json:"word"`
	Correction *string `json:"correction"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// CatalogSearchParams are the query parameters of a catalog search.
type CatalogSearchParams struct {
	Q        *string
	Category *string
	Offset   *int
	Limit    *int
}

// CorrectParams are the query parameters of a word correction.
type CorrectParams struct {
	Word string
}

// PubMedSearchParams are the query parameters of a research search.
type PubMedSearchParams struct {
	Query      *string
	Condition  *string
	MaxResults *int
	Page       *int
	DateFrom   *string
	DateTo     *string
	StudyType  *string
}

// AISearchRequest is the body of POST /api/v1/ai-search.
type AISearchRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

func summaryToAPI(s domcat.Summary) CatalogSummary {
	return CatalogSummary{
		Name:          s.Name,
		Title:         s.Title,
		RecordCount:   s.Records,
		CategoryCount: s.Categories,
	}
}

func pageToAPI(p *cataloguc.Page) CatalogSearchResponse {
	items := p.Records
	if items == nil {
		items = []domcat.Record{}
	}
	resp := CatalogSearchResponse{
		Items:   items,
		Total:   p.Total,
		Offset:  p.Offset,
		Limit:   p.Limit,
		HasMore: p.Offset+len(p.Records) < p.Total,
		Outcome: string(p.Outcome),
	}
	if p.Suggestion != "" {
		resp.Suggestion = &p.Suggestion
	}
	if p.CorrectedQuery != "" {
		resp.CorrectedQuery = &p.CorrectedQuery
	}
	return resp
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
