// Package research searches the biomedical literature and suggests spelling
// fixes from the catalog vocabulary.
package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/evidex/internal/domain/fuzzy"
	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
	"github.com/kailas-cloud/evidex/internal/logger"
)

const defaultFlightTimeout = 60 * time.Second

// Service runs literature searches.
type Service struct {
	lit           Literature
	cache         Cache
	speller       Speller
	quality       bool
	flightTimeout time.Duration
	group         singleflight.Group
}

// New creates a research service over the given literature database.
func New(lit Literature) *Service {
	return &Service{lit: lit, flightTimeout: defaultFlightTimeout}
}

// WithFlightTimeout bounds one upstream search. Callers sharing the search
// wait on their own contexts, so one disconnecting does not cancel it.
func (s *Service) WithFlightTimeout(d time.Duration) *Service {
	if d > 0 {
		s.flightTimeout = d
	}
	return s
}

// WithCache enables response caching.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// WithSpeller enables "did you mean" suggestions.
func (s *Service) WithSpeller(sp Speller) *Service {
	s.speller = sp
	return s
}

// WithQualityFilter restricts results to human, English-language trials and reviews.
func (s *Service) WithQualityFilter(on bool) *Service {
	s.quality = on
	return s
}

// Search runs one research query. An empty query without a condition
// returns an empty page.
func (s *Service) Search(ctx context.Context, req pubmed.Request) (*pubmed.Response, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	resp := &pubmed.Response{
		Articles:   []pubmed.Article{},
		Page:       req.Page,
		MaxResults: req.MaxResults,
		Source:     pubmed.Source,
	}
	if req.Empty() {
		return resp, nil
	}

	key := req.CacheKey(s.quality)
	var cached pubmed.Response
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flightTimeout)
		defer cancel()
		return s.fetch(fctx, &req, resp, key)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("research search: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pubmed.Response), nil
	}
}

func (s *Service) fetch(ctx context.Context, req *pubmed.Request, resp *pubmed.Response, key string) (*pubmed.Response, error) {
	start := time.Now()
	term := req.Term(s.quality)

	found, err := s.lit.Search(ctx, term, req.Offset(), req.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	articles, err := s.lit.Fetch(ctx, found.IDs)
	if err != nil {
		return nil, fmt.Errorf("fetch %d articles: %w", len(found.IDs), err)
	}
	if articles != nil {
		resp.Articles = articles
	}
	resp.TotalCount = found.Count
	resp.Query = req.BaseTerm()
	resp.Suggestion = s.suggest(req.Query)

	logger.FromContext(ctx).Info("Research search",
		zap.String("term", term),
		zap.Int("total", found.Count),
		zap.Int("returned", len(resp.Articles)),
		zap.String("suggestion", resp.Suggestion),
		zap.Duration("duration", time.Since(start)),
	)

	if s.cache != nil {
		s.cache.Put(ctx, key, resp)
	}
	return resp, nil
}

func (s *Service) suggest(query string) string {
	if s.speller == nil || query == "" {
		return ""
	}
	corrected, _, changed := s.speller.CorrectQuery(fuzzy.Normalize(query))
	if !changed {
		return ""
	}
	return corrected
}
