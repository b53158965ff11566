// Package assemblyai implements the speech-to-text collaborator: raw upload
// followed by transcript polling.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/forensight/forensight/config"
	"github.com/forensight/forensight/internal/forensics"
)

const defaultBaseURL = "https://api.assemblyai.com"

// Client uploads audio and polls the transcript endpoint until the job
// settles. One blocking call per file.
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

// New builds a client from configuration.
func New(cfg config.TranscriptionConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type transcript struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Text       string `json:"text"`
	Error      string `json:"error"`
	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
		Start   int64  `json:"start"`
		End     int64  `json:"end"`
	} `json:"utterances"`
	SentimentAnalysisResults []struct {
		Sentiment string `json:"sentiment"`
	} `json:"sentiment_analysis_results"`
}

// TranscribeAudio uploads the file, requests a transcript with speaker
// labels and sentiment analysis, and waits for completion.
func (c *Client) TranscribeAudio(ctx context.Context, path string) (forensics.AudioReport, error) {
	if c.apiKey == "" {
		return forensics.AudioReport{}, fmt.Errorf("transcription API key missing")
	}

	uploadURL, err := c.upload(ctx, path)
	if err != nil {
		return forensics.AudioReport{}, err
	}
	transcriptID, err := c.requestTranscript(ctx, uploadURL)
	if err != nil {
		return forensics.AudioReport{}, err
	}
	t, err := c.pollTranscript(ctx, transcriptID)
	if err != nil {
		return forensics.AudioReport{}, err
	}

	report := forensics.AudioReport{
		TranscriptID: t.ID,
		Text:         t.Text,
		Sentiment:    dominantSentiment(t),
	}
	for _, u := range t.Utterances {
		report.Utterances = append(report.Utterances, forensics.Utterance{
			Speaker: u.Speaker,
			Text:    u.Text,
			StartMS: u.Start,
			EndMS:   u.End,
		})
	}
	return report, nil
}

func (c *Client) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", f)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("provider returned no upload URL")
	}
	return out.UploadURL, nil
}

func (c *Client) requestTranscript(ctx context.Context, audioURL string) (string, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"audio_url":          audioURL,
		"speaker_labels":     true,
		"sentiment_analysis": true,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create transcript request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("transcript request returned status %d: %s", resp.StatusCode, string(body))
	}

	var out transcript
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse transcript response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("provider returned no transcript ID")
	}
	return out.ID, nil
}

func (c *Client) pollTranscript(ctx context.Context, transcriptID string) (transcript, error) {
	deadline := time.Now().Add(c.maxWait)
	endpoint := fmt.Sprintf("%s/v2/transcript/%s", c.baseURL, transcriptID)

	for {
		t, err := c.fetchTranscript(ctx, endpoint)
		if err != nil {
			return transcript{}, err
		}
		switch t.Status {
		case "completed":
			return t, nil
		case "error":
			return transcript{}, fmt.Errorf("transcription failed: %s", t.Error)
		}
		if time.Now().After(deadline) {
			return transcript{}, fmt.Errorf("transcription timed out after %v", c.maxWait)
		}
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return transcript{}, ctx.Err()
		}
	}
}

func (c *Client) fetchTranscript(ctx context.Context, endpoint string) (transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return transcript{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transcript{}, fmt.Errorf("transcript poll failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return transcript{}, fmt.Errorf("transcript poll returned status %d", resp.StatusCode)
	}

	var t transcript
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return transcript{}, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return t, nil
}

// dominantSentiment picks the most frequent sentiment label across all
// analyzed sentences.
func dominantSentiment(t transcript) string {
	if len(t.SentimentAnalysisResults) == 0 {
		return ""
	}
	counts := map[string]int{}
	for _, r := range t.SentimentAnalysisResults {
		counts[r.Sentiment]++
	}
	best, bestCount := "", 0
	for sentiment, count := range counts {
		if count > bestCount {
			best, bestCount = sentiment, count
		}
	}
	return best
}
