package assemblyai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forensight/forensight/config"
)

func TestTranscribeAudio(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "key" {
			t.Fatalf("missing authorization header")
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio"})
		case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
			var req map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["speaker_labels"] != true || req["sentiment_analysis"] != true {
				t.Fatalf("expected speaker labels and sentiment enabled: %v", req)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/v2/transcript/tr-1":
			polls++
			if polls == 1 {
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-1", "status": "processing"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "tr-1", "status": "completed", "text": "hello there",
				"utterances": []map[string]interface{}{
					{"speaker": "A", "text": "hello there", "start": 10, "end": 900},
				},
				"sentiment_analysis_results": []map[string]string{
					{"sentiment": "POSITIVE"}, {"sentiment": "POSITIVE"}, {"sentiment": "NEUTRAL"},
				},
			})
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "call.mp3")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	c := New(config.TranscriptionConfig{APIKey: "key", BaseURL: srv.URL, PollInterval: time.Millisecond, MaxWait: time.Second})
	report, err := c.TranscribeAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("TranscribeAudio: %v", err)
	}
	if report.TranscriptID != "tr-1" || report.Text != "hello there" {
		t.Fatalf("unexpected report: %#v", report)
	}
	if len(report.Utterances) != 1 || report.Utterances[0].Speaker != "A" {
		t.Fatalf("unexpected utterances: %#v", report.Utterances)
	}
	if report.Sentiment != "POSITIVE" {
		t.Fatalf("unexpected sentiment: %q", report.Sentiment)
	}
}

func TestTranscribeAudioMissingKey(t *testing.T) {
	c := New(config.TranscriptionConfig{})
	if _, err := c.TranscribeAudio(context.Background(), "x.mp3"); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestTranscribeAudioJobError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio"})
		case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-2", "status": "queued"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-2", "status": "error", "error": "unsupported codec"})
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "call.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	c := New(config.TranscriptionConfig{APIKey: "key", BaseURL: srv.URL, PollInterval: time.Millisecond, MaxWait: time.Second})
	if _, err := c.TranscribeAudio(context.Background(), path); err == nil {
		t.Fatalf("expected error for failed transcription job")
	}
}
