package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forensight/forensight/config"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatalf("missing API key in query")
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["system_instruction"] == nil {
			t.Fatalf("system instruction missing: %v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "completion text"}}}},
			},
		})
	}))
	defer srv.Close()

	c := New(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "models/test-model"})
	got, err := c.Generate(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "completion text" {
		t.Fatalf("unexpected completion: %q", got)
	}
}

func TestGenerateWithImageInlineData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text       string `json:"text"`
					InlineData *struct {
						MimeType string `json:"mime_type"`
						Data     string `json:"data"`
					} `json:"inline_data"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Fatalf("unexpected parts: %+v", req)
		}
		inline := req.Contents[0].Parts[1].InlineData
		if inline == nil || inline.MimeType != "image/png" || inline.Data == "" {
			t.Fatalf("inline data missing: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "looks real"}}}},
			},
		})
	}))
	defer srv.Close()

	c := New(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	got, err := c.GenerateWithImage(context.Background(), "explain", "image/png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("GenerateWithImage: %v", err)
	}
	if got != "looks real" {
		t.Fatalf("unexpected completion: %q", got)
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	c := New(config.LLMConfig{})
	if c.Configured() {
		t.Fatalf("expected unconfigured client")
	}
	if _, err := c.Generate(context.Background(), "", "prompt"); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.Generate(context.Background(), "", "prompt"); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}
