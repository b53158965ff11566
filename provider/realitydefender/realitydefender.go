// Package realitydefender implements the deepfake-detection collaborator:
// presigned upload followed by result polling.
package realitydefender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/forensight/forensight/config"
)

const defaultBaseURL = "https://api.prd.realitydefender.xyz"

// Client uploads media through presigned URLs and polls for the analysis
// verdict. The polling loop is internal; callers see one blocking call.
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

// New builds a client from configuration.
func New(cfg config.DeepfakeConfig) *Client {
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
		maxWait = 8 * time.Minute
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

// DetectTamper uploads the file and waits for the analysis to finish. It
// returns the tampering percentage (0-100) and the raw provider payload.
func (c *Client) DetectTamper(ctx context.Context, path string) (float64, map[string]interface{}, error) {
	if c.apiKey == "" {
		return 0, nil, fmt.Errorf("deepfake API key not configured")
	}

	signedURL, requestID, err := c.requestPresignedURL(ctx, filepath.Base(path))
	if err != nil {
		return 0, nil, err
	}
	if err := c.uploadToSignedURL(ctx, signedURL, path); err != nil {
		return 0, nil, err
	}
	if requestID == "" {
		requestID = requestIDFromURL(signedURL)
	}
	if requestID == "" {
		return 0, nil, fmt.Errorf("request ID missing from provider response")
	}

	raw, err := c.pollResult(ctx, requestID)
	if err != nil {
		return 0, nil, err
	}
	return finalScore(raw), raw, nil
}

func (c *Client) requestPresignedURL(ctx context.Context, fileName string) (string, string, error) {
	payload, _ := json.Marshal(map[string]string{"fileName": fileName})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/aws-presigned", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("presigned URL request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("presigned URL request returned status %d", resp.StatusCode)
	}

	var out struct {
		SignedURL string `json:"signedUrl"`
		RequestID string `json:"requestId"`
		MediaID   string `json:"mediaId"`
		Response  struct {
			SignedURL string `json:"signedUrl"`
			RequestID string `json:"requestId"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to parse presigned response: %w", err)
	}

	signedURL := out.Response.SignedURL
	if signedURL == "" {
		signedURL = out.SignedURL
	}
	if signedURL == "" {
		return "", "", fmt.Errorf("provider returned no signed URL")
	}
	requestID := out.RequestID
	if requestID == "" {
		requestID = out.Response.RequestID
	}
	if requestID == "" {
		requestID = out.MediaID
	}
	return signedURL, requestID, nil
}

func (c *Client) uploadToSignedURL(ctx context.Context, signedURL, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file for upload: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, f)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	if info, err := f.Stat(); err == nil {
		req.ContentLength = info.Size()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 204 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// pollResult waits for the analysis to leave its queued/processing states,
// within the configured bound.
func (c *Client) pollResult(ctx context.Context, requestID string) (map[string]interface{}, error) {
	deadline := time.Now().Add(c.maxWait)
	endpoint := fmt.Sprintf("%s/api/media/users/%s", c.baseURL, requestID)

	for {
		raw, pending, err := c.fetchResult(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if !pending {
			return raw, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("analysis timed out after %v", c.maxWait)
		}
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Client) fetchResult(ctx context.Context, endpoint string) (map[string]interface{}, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Not ready yet.
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("result request returned status %d", resp.StatusCode)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, false, fmt.Errorf("failed to parse result: %w", err)
	}
	switch resultStatus(raw) {
	case "ANALYZING", "PROCESSING", "QUEUED", "":
		return nil, true, nil
	}
	return raw, false, nil
}

func resultStatus(raw map[string]interface{}) string {
	if summary, ok := raw["resultsSummary"].(map[string]interface{}); ok {
		if s, ok := summary["status"].(string); ok {
			return s
		}
	}
	if s, ok := raw["overallStatus"].(string); ok {
		return s
	}
	return ""
}

func finalScore(raw map[string]interface{}) float64 {
	summary, ok := raw["resultsSummary"].(map[string]interface{})
	if !ok {
		return 0
	}
	metadata, ok := summary["metadata"].(map[string]interface{})
	if !ok {
		return 0
	}
	if score, ok := metadata["finalScore"].(float64); ok {
		return score
	}
	return 0
}

func requestIDFromURL(signedURL string) string {
	u, err := url.Parse(signedURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("x-amz-meta-requestid")
}
