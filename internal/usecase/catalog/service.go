// Package catalog implements fuzzy search over the static catalogs.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	domcat "github.com/kailas-cloud/evidex/internal/domain/catalog"
	"github.com/kailas-cloud/evidex/internal/domain/fuzzy"
	"github.com/kailas-cloud/evidex/internal/logger"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// lazyMatcher builds a catalog's corpus and matcher on first use.
type lazyMatcher struct {
	once    sync.Once
	cat     *domcat.Catalog
	matcher *fuzzy.Matcher
}

func (l *lazyMatcher) get() *fuzzy.Matcher {
	l.once.Do(func() {
		l.matcher = fuzzy.NewMatcher(l.cat, fuzzy.BuildCorpus(l.cat))
	})
	return l.matcher
}

// Service searches the catalogs.
type Service struct {
	repo         Repository
	matchers     map[string]*lazyMatcher
	defaultLimit int
	maxLimit     int

	vocabOnce sync.Once
	vocab     *fuzzy.Corpus

	searchTotal    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
}

// New creates a catalog search service. Matchers are built lazily, once per catalog.
func New(repo Repository) *Service {
	all := repo.All()
	matchers := make(map[string]*lazyMatcher, len(all))
	for _, c := range all {
		matchers[c.Name] = &lazyMatcher{cat: c}
	}
	return &Service{
		repo:         repo,
		matchers:     matchers,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// WithLimits overrides the default and maximum page sizes.
func (s *Service) WithLimits(def, maxL int) *Service {
	if maxL > 0 {
		s.maxLimit = maxL
	}
	if def > 0 {
		s.defaultLimit = min(def, s.maxLimit)
	}
	return s
}

// WithMetrics attaches search counters. total is labelled {catalog, outcome},
// duration is labelled {catalog}.
func (s *Service) WithMetrics(total *prometheus.CounterVec, duration *prometheus.HistogramVec) *Service {
	s.searchTotal = total
	s.searchDuration = duration
	return s
}

// List returns the catalog summaries, sorted by name.
func (s *Service) List(_ context.Context) []domcat.Summary {
	all := s.repo.All()
	out := make([]domcat.Summary, 0, len(all))
	for _, c := range all {
		out = append(out, c.Summary())
	}
	return out
}

// Search runs the fuzzy matcher over one catalog, then filters by category and paginates.
func (s *Service) Search(ctx context.Context, catalogName string, q Query) (Page, error) {
	limit, err := s.resolveLimit(q.Limit)
	if err != nil {
		return Page{}, err
	}
	if q.Offset < 0 {
		return Page{}, domain.NewValidationError("offset", "must be non-negative")
	}

	cat, m, err := s.matcher(catalogName)
	if err != nil {
		return Page{}, err
	}
	if q.Category != "" && len(cat.Categories) > 0 && !hasCategory(cat, q.Category) {
		return Page{}, domain.NewValidationError("category", fmt.Sprintf("unknown category %q", q.Category))
	}

	start := time.Now()
	res := m.Search(q.Text)
	s.observe(catalogName, res.Outcome, time.Since(start))

	records := res.Records
	if q.Category != "" {
		records = filterCategory(records, q.Category)
	}

	page := Page{
		Total:   len(records),
		Offset:  q.Offset,
		Limit:   limit,
		Outcome: res.Outcome,
	}
	if sug, ok := res.Suggestion(); ok {
		page.Suggestion = sug
	}
	if cq, ok := res.CorrectedQuery(); ok {
		page.CorrectedQuery = cq
	}
	if q.Offset < len(records) {
		end := min(q.Offset+limit, len(records))
		page.Records = records[q.Offset:end]
	}

	logger.FromContext(ctx).Debug("catalog search",
		zap.String("catalog", catalogName),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("total", page.Total),
	)
	return page, nil
}

// Get returns one record of a catalog.
func (s *Service) Get(_ context.Context, catalogName, id string) (domcat.Record, error) {
	cat, err := s.repo.Get(catalogName)
	if err != nil {
		return domcat.Record{}, fmt.Errorf("get catalog: %w", err)
	}
	rec, ok := cat.Record(id)
	if !ok {
		return domcat.Record{}, fmt.Errorf("record %q in %s: %w", id, catalogName, domain.ErrNotFound)
	}
	return rec, nil
}

// Correct proposes a spelling correction for a single word against one catalog's corpus.
func (s *Service) Correct(_ context.Context, catalogName, word string) (fuzzy.Correction, error) {
	w := fuzzy.Normalize(word)
	if w == "" {
		return fuzzy.Uncorrected(), domain.NewValidationError("word", "must not be empty")
	}
	if strings.ContainsFunc(w, unicode.IsSpace) {
		return fuzzy.Uncorrected(), domain.NewValidationError("word", "must be a single word")
	}
	_, m, err := s.matcher(catalogName)
	if err != nil {
		return fuzzy.Uncorrected(), err
	}
	return m.Corpus().Correct(w), nil
}

// Corpus returns the correction corpus of one catalog.
func (s *Service) Corpus(_ context.Context, catalogName string) (*fuzzy.Corpus, error) {
	_, m, err := s.matcher(catalogName)
	if err != nil {
		return nil, err
	}
	return m.Corpus(), nil
}

// Vocabulary returns the corpora of every catalog merged in name order.
// It is built once.
func (s *Service) Vocabulary() *fuzzy.Corpus {
	s.vocabOnce.Do(func() {
		all := s.repo.All()
		corpora := make([]*fuzzy.Corpus, 0, len(all))
		for _, c := range all {
			corpora = append(corpora, s.matchers[c.Name].get().Corpus())
		}
		s.vocab = fuzzy.Merge(corpora...)
	})
	return s.vocab
}

func (s *Service) matcher(name string) (*domcat.Catalog, *fuzzy.Matcher, error) {
	lm, ok := s.matchers[name]
	if !ok {
		return nil, nil, fmt.Errorf("catalog %q: %w", name, domain.ErrNotFound)
	}
	return lm.cat, lm.get(), nil
}

func (s *Service) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, domain.NewValidationError("limit", "must be non-negative")
	case limit == 0:
		return s.defaultLimit, nil
	case limit > s.maxLimit:
		return s.maxLimit, nil
	default:
		return limit, nil
	}
}

func (s *Service) observe(catalogName string, outcome fuzzy.Outcome, d time.Duration) {
	if s.searchTotal != nil {
		s.searchTotal.WithLabelValues(catalogName, string(outcome)).Inc()
	}
	if s.searchDuration != nil {
		s.searchDuration.WithLabelValues(catalogName).Observe(d.Seconds())
	}
}

func hasCategory(cat *domcat.Catalog, id string) bool {
	for _, c := range cat.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func filterCategory(records []domcat.Record, id string) []domcat.Record {
	out := make([]domcat.Record, 0, len(records))
	for i := range records {
		if records[i].Category == id {
			out = append(out, records[i])
		}
	}
	return out
}
