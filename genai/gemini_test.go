package genai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewGeminiClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestGeminiGenerateText(t *testing.T) {
	var gotPath, gotKey string
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"summary\":\"hi\"}"}]}}]}`))
	})

	out, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if out != `{"summary":"hi"}` {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(gotPath, geminiTextModel) {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header not set, got %q", gotKey)
	}
}

func TestGeminiGenerateImageBuildsDataURI(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"here you go"},{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`))
	})

	out, err := client.GenerateImage(context.Background(), "an image")
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if out != "data:image/png;base64,QUJD" {
		t.Fatalf("unexpected data uri %q", out)
	}
}

func TestGeminiEmptyCandidates(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	if _, err := client.GenerateText(context.Background(), "p"); err != ErrNoOutput {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
}

func TestGeminiAPIError(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.GenerateText(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestGeminiMissingAPIKey(t *testing.T) {
	client := NewGeminiClient("")
	if _, err := client.GenerateText(context.Background(), "p"); err == nil {
		t.Fatal("expected error without api key")
	}
}
