// Package ledger implements the tamper-evidence receipt collaborator. With
// no endpoint configured it issues deterministic stub receipts so the rest
// of the pipeline keeps the same shape in development.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forensight/forensight/config"
)

const defaultChainID = "STUB_TESTNET"

// Client records proof hashes. Endpoint empty means stub mode.
type Client struct {
	endpoint   string
	chainID    string
	httpClient *http.Client
}

// New builds a client from configuration.
func New(cfg config.LedgerConfig) *Client {
	chainID := cfg.ChainID
	if chainID == "" {
		chainID = defaultChainID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		chainID:    chainID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LogProofHash records the hash and returns the receipt. The stub receipt
// derives its transaction ID from the hash itself, so re-stamping identical
// content yields identical receipts.
func (c *Client) LogProofHash(ctx context.Context, hash string) (map[string]interface{}, error) {
	if c.endpoint == "" {
		return c.stubReceipt(hash), nil
	}

	payload, _ := json.Marshal(map[string]string{
		"proof_hash": hash,
		"chain_id":   c.chainID,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(body))
	}

	var receipt map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to parse ledger receipt: %w", err)
	}
	return receipt, nil
}

func (c *Client) stubReceipt(hash string) map[string]interface{} {
	trimmed := strings.TrimPrefix(hash, "0x")
	if len(trimmed) > 16 {
		trimmed = trimmed[:16]
	}
	return map[string]interface{}{
		"tx_hash":    "mock_tx_0x" + trimmed,
		"chain_id":   c.chainID,
		"proof_hash": hash,
	}
}
