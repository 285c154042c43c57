// Package aisearch answers free-text research questions with a chat model.
package aisearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/assistant"
	"github.com/kailas-cloud/evidex/internal/logger"
)

const defaultFlightTimeout = 90 * time.Second

// Service runs assistant requests through cache, budget and provider.
type Service struct {
	provider      Provider
	cache         Cache
	budget        Budget
	flightTimeout time.Duration
	group         singleflight.Group
}

// New creates the AI search service. A nil provider disables the feature.
func New(p Provider) *Service {
	return &Service{provider: p, flightTimeout: defaultFlightTimeout}
}

// WithFlightTimeout bounds one provider call. Callers sharing the call wait
// on their own contexts, so one disconnecting does not cancel it.
func (s *Service) WithFlightTimeout(d time.Duration) *Service {
	if d > 0 {
		s.flightTimeout = d
	}
	return s
}

// WithCache enables answer caching.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// WithBudget enables token budget enforcement.
func (s *Service) WithBudget(b Budget) *Service {
	s.budget = b
	return s
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool { return s.provider != nil }

// Search answers one assistant request.
func (s *Service) Search(ctx context.Context, req assistant.Request) (assistant.Answer, error) {
	if err := req.Normalize(); err != nil {
		return assistant.Answer{}, err
	}
	if s.provider == nil {
		return assistant.Answer{}, fmt.Errorf("ai search: %w", domain.ErrNotConfigured)
	}

	ctx = logger.With(ctx,
		zap.String("provider", s.provider.Provider()),
		zap.String("model", s.provider.Model()),
	)
	key := req.CacheKey(s.provider.Model())
	var cached assistant.Answer
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flightTimeout)
		defer cancel()
		return s.answer(fctx, &req, key)
	})
	select {
	case <-ctx.Done():
		return assistant.Answer{}, fmt.Errorf("ai search: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return assistant.Answer{}, res.Err
		}
		if res.Shared {
			logger.FromContext(ctx).Debug("AI search collapsed", zap.String("query", req.Query))
		}
		return res.Val.(assistant.Answer), nil
	}
}

func (s *Service) answer(ctx context.Context, req *assistant.Request, key string) (assistant.Answer, error) {
	if s.budget != nil {
		if err := s.budget.Check(ctx); err != nil {
			return assistant.Answer{}, err
		}
	}

	start := time.Now()
	c, err := s.provider.Complete(ctx, req)
	if err != nil {
		return assistant.Answer{}, fmt.Errorf("complete: %w", err)
	}
	if s.budget != nil {
		s.budget.Record(int64(c.TotalTokens()))
	}

	a, err := assistant.ParseAnswer(c.Content)
	if err != nil {
		return assistant.Answer{}, err
	}
	a.Query = req.Query
	a.Source = fmt.Sprintf("AI (%s/%s)", s.provider.Provider(), s.provider.Model())

	logger.FromContext(ctx).Info("AI search answered",
		zap.Int("tokens", c.TotalTokens()),
		zap.Duration("duration", time.Since(start)),
	)

	if s.cache != nil {
		s.cache.Put(ctx, key, a)
	}
	return a, nil
}
