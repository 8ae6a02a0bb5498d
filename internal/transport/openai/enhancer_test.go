package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestEnhancer(serverURL string) *Enhancer {
	return NewEnhancer(&Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
		Timeout: 2 * time.Second,
		Logger:  zap.NewNop(),
	})
}

func TestEnhance_Rewrite(t *testing.T) {
	server := chatServer(t, `{"query": "mysql database performance tuning optimization", "confidence": 0.9}`)
	defer server.Close()

	query, confidence, err := newTestEnhancer(server.URL).Enhance(context.Background(), "mysql perf")
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if query != "mysql database performance tuning optimization" {
		t.Errorf("query = %q", query)
	}
	if confidence != 0.9 {
		t.Errorf("confidence = %f, want 0.9", confidence)
	}
}

func TestEnhance_CodeFencedReply(t *testing.T) {
	server := chatServer(t, "```json\n{\"query\": \"postgres vacuum tuning\", \"confidence\": 0.7}\n```")
	defer server.Close()

	query, _, err := newTestEnhancer(server.URL).Enhance(context.Background(), "pg vacuum")
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if query != "postgres vacuum tuning" {
		t.Errorf("query = %q", query)
	}
}

func TestEnhance_MalformedReplyDegrades(t *testing.T) {
	server := chatServer(t, "sure, here is a better query!")
	defer server.Close()

	_, _, err := newTestEnhancer(server.URL).Enhance(context.Background(), "mysql perf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrEnhancerUnavailable) {
		t.Errorf("error = %v, want ErrEnhancerUnavailable", err)
	}
}

func TestEnhance_ServiceUnavailableDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, _, err := newTestEnhancer(server.URL).Enhance(context.Background(), "mysql perf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrEnhancerUnavailable) {
		t.Errorf("error = %v, want ErrEnhancerUnavailable", err)
	}
}

func TestParseRewrite_ConfidenceOutOfRange(t *testing.T) {
	_, confidence, err := parseRewrite(`{"query": "q", "confidence": 3.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confidence != 0 {
		t.Errorf("confidence = %f, want 0 for out-of-range value", confidence)
	}
}
