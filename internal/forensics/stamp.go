package forensics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
)

// Stamper computes the deterministic proof hash of a finished bundle and
// forwards it to the tamper-evidence ledger.
type Stamper struct {
	ledger Ledger
	logger *log.Logger
}

// NewStamper wires a stamper. ledger may be nil; stamping then produces the
// hash with an error marker in place of a receipt.
func NewStamper(ledger Ledger, logger *log.Logger) *Stamper {
	if logger == nil {
		logger = log.New(log.Writer(), "[STAMP] ", log.LstdFlags)
	}
	return &Stamper{ledger: ledger, logger: logger}
}

// CanonicalJSON serializes v with lexicographically sorted keys and no
// insignificant whitespace, so semantically identical values always encode
// identically regardless of field-insertion order.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling value: %w", err)
	}
	// Round-trip through generic maps: encoding/json emits map keys in
	// sorted order, which gives us the canonical form.
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("normalizing value: %w", err)
	}
	return json.Marshal(generic)
}

// ProofHash returns the hex SHA-256 digest of v's canonical serialization.
func ProofHash(v interface{}) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Stamp computes the proof hash over the bundle as it stands (before any
// receipt is attached) and then logs it to the ledger. The hash is always
// produced; the receipt is best-effort and failure leaves an explicit
// error marker instead.
func (s *Stamper) Stamp(ctx context.Context, bundle *FinalBundle) error {
	bundle.ProofHash = ""
	bundle.LedgerReceipt = nil

	hash, err := ProofHash(bundle)
	if err != nil {
		return fmt.Errorf("computing proof hash: %w", err)
	}
	bundle.ProofHash = hash

	if s.ledger == nil {
		bundle.LedgerReceipt = map[string]interface{}{"error": "ledger not configured"}
		return nil
	}
	receipt, err := s.ledger.LogProofHash(ctx, "0x"+hash)
	if err != nil {
		s.logger.Printf("ledger logging failed: %v", err)
		bundle.LedgerReceipt = map[string]interface{}{"error": err.Error()}
		return nil
	}
	bundle.LedgerReceipt = receipt
	return nil
}

// StampReport is the single-file counterpart of Stamp.
func (s *Stamper) StampReport(ctx context.Context, report *VerificationReport) error {
	report.ProofHash = ""
	report.LedgerReceipt = nil

	hash, err := ProofHash(report)
	if err != nil {
		return fmt.Errorf("computing proof hash: %w", err)
	}
	report.ProofHash = hash

	if s.ledger == nil {
		report.LedgerReceipt = map[string]interface{}{"error": "ledger not configured"}
		return nil
	}
	receipt, err := s.ledger.LogProofHash(ctx, "0x"+hash)
	if err != nil {
		s.logger.Printf("ledger logging failed: %v", err)
		report.LedgerReceipt = map[string]interface{}{"error": err.Error()}
		return nil
	}
	report.LedgerReceipt = receipt
	return nil
}
