package catalog

import (
	domcat "github.com/kailas-cloud/evidex/internal/domain/catalog"
	"github.com/kailas-cloud/evidex/internal/domain/fuzzy"
)

// Query is a catalog search request.
type Query struct {
	Text     string
	Category string // optional category ID filter
	Offset   int
	Limit    int // 0 = default
}

// Page is one page of a catalog search.
type Page struct {
	Records        []domcat.Record
	Total          int
	Offset         int
	Limit          int
	Suggestion     string
	CorrectedQuery string
	Outcome        fuzzy.Outcome
}
