package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/assistant"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAIMetrics()
	os.Exit(m.Run())
}

func newTestAssistant(t *testing.T, h http.HandlerFunc) *Assistant {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	a, err := NewAssistant(context.Background(), &Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewAssistant: %v", err)
	}
	return a
}

func TestAssistant_Complete(t *testing.T) {
	answer := `{"ai_summary":"Curcumin reduces CRP.","suggested_terms":["curcumin"],"related_topics":[]}`

	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gen, _ := body["generationConfig"].(map[string]any)
		if gen["responseMimeType"] != "application/json" {
			t.Errorf("responseMimeType = %v", gen["responseMimeType"])
		}
		if _, ok := body["systemInstruction"]; !ok {
			t.Error("systemInstruction missing")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": answer}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     80,
				"candidatesTokenCount": 30,
				"totalTokenCount":      110,
			},
		})
	})

	c, err := a.Complete(context.Background(), &assistant.Request{Query: "curcumin"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if c.Content != answer {
		t.Errorf("content = %q", c.Content)
	}
	if c.PromptTokens != 80 || c.CompletionTokens != 30 {
		t.Errorf("usage = %+v", c)
	}
}

func TestAssistant_APIError(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := a.Complete(context.Background(), &assistant.Request{Query: "x"})
	if !errors.Is(err, domain.ErrAIProviderError) {
		t.Fatalf("expected ErrAIProviderError, got %v", err)
	}
}

func TestNewAssistant_NoKey(t *testing.T) {
	_, err := NewAssistant(context.Background(), &Config{})
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
