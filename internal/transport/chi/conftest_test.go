package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain/assistant"
	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
	catrepo "github.com/kailas-cloud/evidex/internal/repository/catalog"
	aisearchuc "github.com/kailas-cloud/evidex/internal/usecase/aisearch"
	cataloguc "github.com/kailas-cloud/evidex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	researchuc "github.com/kailas-cloud/evidex/internal/usecase/research"
)

type fakeLiterature struct {
	err error
}

func (f *fakeLiterature) Search(_ context.Context, _ string, _, _ int) (pubmed.SearchResult, error) {
	if f.err != nil {
		return pubmed.SearchResult{}, f.err
	}
	return pubmed.SearchResult{IDs: []string{"123"}, Count: 1}, nil
}

func (f *fakeLiterature) Fetch(_ context.Context, ids []string) ([]pubmed.Article, error) {
	return []pubmed.Article{{PMID: ids[0], Title: "Curcumin and inflammation", URL: pubmed.ArticleURL(ids[0])}}, nil
}

type fakeProvider struct {
	content string
	err     error
}

func (f *fakeProvider) Provider() string { return "fake" }
func (f *fakeProvider) Model() string    { return "fake-1" }

func (f *fakeProvider) Complete(context.Context, *assistant.Request) (assistant.Completion, error) {
	return assistant.Completion{Content: f.content, PromptTokens: 1, CompletionTokens: 1}, f.err
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

type testDeps struct {
	lit      *fakeLiterature
	provider aisearchuc.Provider
	health   *healthuc.Service
	apiKeys  []string
	origins  []string
}

func newTestServer(t *testing.T, deps testDeps) http.Handler {
	t.Helper()

	repo, err := catrepo.Embedded()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	catalogs := cataloguc.New(repo)

	lit := deps.lit
	if lit == nil {
		lit = &fakeLiterature{}
	}
	research := researchuc.New(lit).WithSpeller(catalogs.Vocabulary())

	health := deps.health
	if health == nil {
		health = healthuc.New()
	}

	srv := NewServer(catalogs, research, aisearchuc.New(deps.provider), health)
	return NewRouter(srv, RouterConfig{
		APIKeys:     deps.apiKeys,
		CORSOrigins: deps.origins,
		Logger:      zap.NewNop(),
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
