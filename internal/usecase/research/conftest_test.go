package research

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/evidex/internal/domain/fuzzy"
	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
	catrepo "github.com/kailas-cloud/evidex/internal/repository/catalog"
)

type fakeLiterature struct {
	ids      []string
	count    int
	articles []pubmed.Article

	searchErr error
	fetchErr  error

	gate        chan struct{}
	sawCanceled atomic.Bool

	mu       sync.Mutex
	terms    []string
	offsets  []int
	searches atomic.Int32
}

func (f *fakeLiterature) Search(ctx context.Context, term string, offset, _ int) (pubmed.SearchResult, error) {
	f.searches.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if ctx.Err() != nil {
		f.sawCanceled.Store(true)
	}
	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()
	if f.searchErr != nil {
		return pubmed.SearchResult{}, f.searchErr
	}
	return pubmed.SearchResult{IDs: f.ids, Count: f.count}, nil
}

func (f *fakeLiterature) Fetch(_ context.Context, ids []string) ([]pubmed.Article, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return f.articles, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *memCache) Put(_ context.Context, key string, v any) {
	raw, _ := json.Marshal(v)
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
}

// vocabulary merges the corpora of the embedded catalogs.
func vocabulary(t *testing.T) *fuzzy.Corpus {
	t.Helper()
	repo, err := catrepo.Embedded()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	var corpora []*fuzzy.Corpus
	for _, c := range repo.All() {
		corpora = append(corpora, fuzzy.BuildCorpus(c))
	}
	return fuzzy.Merge(corpora...)
}

func sampleArticles() []pubmed.Article {
	return []pubmed.Article{
		{PMID: "111", Title: "Curcumin in knee osteoarthritis", URL: pubmed.ArticleURL("111")},
		{PMID: "222", Title: "Turmeric extract and CRP", URL: pubmed.ArticleURL("222")},
	}
}
