// Package assistant models the AI search assistant's request and answer.
package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain"
)

// Limits on what the assistant returns.
const (
	MaxQueryLen   = 500
	MaxContextLen = 2000
	maxTerms      = 8
)

// SystemPrompt instructs the model to answer in the JSON shape ParseAnswer expects.
const SystemPrompt = `You are a research assistant for an integrative medicine evidence archive.
Given a search query and optional context, answer with a JSON object:
{"ai_summary": string, "suggested_terms": [string], "related_topics": [string]}.
ai_summary: two to four sentences on what peer-reviewed research says, noting evidence quality.
suggested_terms: PubMed-friendly search terms, MeSH terms where possible.
related_topics: adjacent compounds, conditions or therapies worth exploring.
Do not give medical advice. Reply with JSON only.`

// Request is a validated assistant query.
type Request struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

// Normalize trims the request and validates it.
func (r *Request) Normalize() error {
	r.Query = strings.Join(strings.Fields(r.Query), " ")
	r.Context = strings.TrimSpace(r.Context)
	if r.Query == "" {
		return domain.NewValidationError("query", "must not be empty")
	}
	if len(r.Query) > MaxQueryLen {
		return domain.NewValidationError("query", fmt.Sprintf("must be at most %d bytes", MaxQueryLen))
	}
	if len(r.Context) > MaxContextLen {
		return domain.NewValidationError("context", fmt.Sprintf("must be at most %d bytes", MaxContextLen))
	}
	return nil
}

// UserPrompt renders the request as the user message.
func (r *Request) UserPrompt() string {
	if r.Context == "" {
		return "Query: " + r.Query
	}
	return "Query: " + r.Query + "\nContext: " + r.Context
}

// CacheKey identifies the request for response caching.
func (r *Request) CacheKey(model string) string {
	return model + "|" + strings.ToLower(r.Query) + "|" + r.Context
}

// Answer is the assistant's response.
type Answer struct {
	Query          string   `json:"query"`
	Summary        string   `json:"ai_summary"`
	SuggestedTerms []string `json:"suggested_terms"`
	RelatedTopics  []string `json:"related_topics"`
	Source         string   `json:"source"`
}

// Completion is a raw model answer with its token usage.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens is the budget cost of the completion.
func (c Completion) TotalTokens() int { return c.PromptTokens + c.CompletionTokens }

// ParseAnswer decodes the model's JSON reply. Code fences around the JSON are tolerated.
func ParseAnswer(content string) (Answer, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var a Answer
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w: %w", err, domain.ErrAIProviderError)
	}
	a.Summary = strings.TrimSpace(a.Summary)
	if a.Summary == "" {
		return Answer{}, fmt.Errorf("answer has no summary: %w", domain.ErrAIProviderError)
	}
	a.SuggestedTerms = cleanTerms(a.SuggestedTerms)
	a.RelatedTopics = cleanTerms(a.RelatedTopics)
	return a, nil
}

func cleanTerms(in []string) []string {
	out := make([]string, 0, min(len(in), maxTerms))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		k := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
		if len(out) == maxTerms {
			break
		}
	}
	return out
}
