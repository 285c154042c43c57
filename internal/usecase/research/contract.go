package research

import (
	"context"

	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
)

// Literature is the upstream bibliographic database.
type Literature interface {
	Search(ctx context.Context, term string, offset, limit int) (pubmed.SearchResult, error)
	Fetch(ctx context.Context, ids []string) ([]pubmed.Article, error)
}

// Cache stores responses between identical requests.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Put(ctx context.Context, key string, v any)
}

// Speller proposes a corrected query.
type Speller interface {
	CorrectQuery(normalized string) (string, []string, bool)
}
