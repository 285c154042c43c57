// Package eutils is a client for the NCBI E-utilities PubMed API.
package eutils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

// DefaultBaseURL is the public E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const maxBodyBytes = 32 << 20

// Config holds the E-utilities client settings.
type Config struct {
	BaseURL    string
	APIKey     string // raises the NCBI rate limit from 3 to 10 req/s
	Tool       string
	Email      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client queries PubMed via esearch and efetch.
type Client struct {
	baseURL string
	apiKey  string
	tool    string
	email   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates an E-utilities client.
func New(cfg *Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		tool:    cfg.Tool,
		email:   cfg.Email,
		http:    hc,
		logger:  lg,
	}
}

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
	Error string `json:"error"`
}

// Search runs esearch for term sorted by relevance.
func (c *Client) Search(ctx context.Context, term string, offset, limit int) (pubmed.SearchResult, error) {
	q := c.params()
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retstart", strconv.Itoa(offset))
	q.Set("retmax", strconv.Itoa(limit))
	q.Set("retmode", "json")
	q.Set("sort", "relevance")

	body, err := c.get(ctx, "esearch", q)
	if err != nil {
		return pubmed.SearchResult{}, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return pubmed.SearchResult{}, fmt.Errorf("esearch: decode response: %w", domain.ErrUpstream)
	}
	if msg := firstNonEmpty(resp.Error, resp.Result.Error); msg != "" {
		return pubmed.SearchResult{}, fmt.Errorf("esearch: %s: %w", msg, domain.ErrUpstream)
	}

	count := 0
	if resp.Result.Count != "" {
		count, err = strconv.Atoi(resp.Result.Count)
		if err != nil {
			return pubmed.SearchResult{}, fmt.Errorf("esearch: bad count %q: %w", resp.Result.Count, domain.ErrUpstream)
		}
	}
	return pubmed.SearchResult{IDs: resp.Result.IDList, Count: count}, nil
}

// Fetch runs efetch for the given PMIDs and parses the articles, in response order.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]pubmed.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := c.params()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	body, err := c.get(ctx, "efetch", q)
	if err != nil {
		return nil, err
	}
	articles, err := ParseArticles(body)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w: %w", err, domain.ErrUpstream)
	}
	c.logger.Debug("efetch parsed", zap.Int("requested", len(ids)), zap.Int("parsed", len(articles)))
	return articles, nil
}

// HealthCheck calls einfo, which is cheap and unauthenticated.
func (c *Client) HealthCheck(ctx context.Context) error {
	q := c.params()
	q.Set("retmode", "json")
	if _, err := c.get(ctx, "einfo", q); err != nil {
		return err
	}
	return nil
}

func (c *Client) params() url.Values {
	q := url.Values{}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	if c.tool != "" {
		q.Set("tool", c.tool)
	}
	if c.email != "" {
		q.Set("email", c.email)
	}
	return q
}

// get performs one E-utilities call and records its metrics.
func (c *Client) get(ctx context.Context, op string, q url.Values) ([]byte, error) {
	endpoint := c.baseURL + "/" + op + ".fcgi?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ResearchRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ResearchRequestsTotal.WithLabelValues(op, "error").Inc()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w: %w", op, err, domain.ErrUpstream)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ResearchRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s: read body: %w: %w", op, err, domain.ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ResearchRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Warn("e-utilities error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 256)),
		)
		return nil, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, domain.ErrUpstream)
	}

	metrics.ResearchRequestsTotal.WithLabelValues(op, "success").Inc()
	return body, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
