package forensics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensight/forensight/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Analysis.MaxWorkers = 4
	cfg.Analysis.FrameStrideSeconds = 2.0
	cfg.Analysis.FakeFrameThreshold = 60.0
	cfg.Analysis.DefaultFPS = 30.0
	cfg.Analysis.EvidenceCharLimit = 25000
	return cfg
}

func testDeps(llm LLMProvider, led Ledger) Deps {
	return Deps{
		Detector: stubDetector{fn: func(ctx context.Context, path string) (float64, map[string]interface{}, error) {
			return 10, nil, nil
		}},
		Transcriber: stubTranscriber{fn: func(ctx context.Context, path string) (AudioReport, error) {
			return AudioReport{}, fmt.Errorf("transcription API key missing")
		}},
		Sampler: stubSampler{
			probe: func(ctx context.Context, path string) (float64, int, error) { return 30, 300, nil },
			sample: func(ctx context.Context, path string, strideFrames int, dir string) ([]string, error) {
				return framesFor(300, strideFrames, dir), nil
			},
		},
		Extract: func(path string) (string, error) {
			data, err := os.ReadFile(path)
			return string(data), err
		},
		LLM:    llm,
		Ledger: led,
	}
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestProcessSessionTwoDocuments(t *testing.T) {
	dir := t.TempDir()
	doc1 := writeTempFile(t, dir, "doc1.txt", "send the package to the usual place, burn this note")
	doc2 := writeTempFile(t, dir, "doc2.txt", "meeting notes: quarterly budget review")

	llm := stubLLM{
		configured: true,
		generate: func(ctx context.Context, system, prompt string) (string, error) {
			// Per-file document scoring uses the investigator system prompt;
			// the session synthesis uses the meta prompt.
			if system == metaSystemPrompt {
				return `{"final_summary": "one document shows covert coordination", "entities": ["sender"], "relations": []}`, nil
			}
			return `{"misinformationAnalysis": {"dangerScore": 75, "flags": [], "explanation": "covert tone"}, "summary": "suspicious", "finalReport": {"findings": "f", "recommendations": "r"}}`, nil
		},
	}
	led := stubLedger{fn: func(ctx context.Context, hash string) (map[string]interface{}, error) {
		return map[string]interface{}{"tx_hash": "mock_tx_0x" + hash[2:18], "chain_id": "STUB_TESTNET", "proof_hash": hash}, nil
	}}

	orch, err := NewOrchestrator(testConfig(), discardLogger(), testDeps(llm, led))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	bundle, err := orch.ProcessSession(context.Background(), SessionRequest{
		SessionID:    "session-1",
		Paths:        []string{doc1, doc2, filepath.Join(dir, "ignored.xyz")},
		Instructions: "check documents for fraud",
	})
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}

	if bundle.SessionID != "session-1" {
		t.Fatalf("unexpected session id: %s", bundle.SessionID)
	}
	// Unsupported files are silently dropped at classification.
	if len(bundle.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(bundle.Results))
	}
	if bundle.Results[0].File != "doc1.txt" || bundle.Results[1].File != "doc2.txt" {
		t.Fatalf("unexpected result order: %s, %s", bundle.Results[0].File, bundle.Results[1].File)
	}
	if len(bundle.FileSummaries) != 2 || bundle.FileSummaries[0] != "doc1.txt: DANGER SCORE 75/100." {
		t.Fatalf("unexpected summaries: %#v", bundle.FileSummaries)
	}
	if bundle.FinalSummary != "one document shows covert coordination" {
		t.Fatalf("unexpected final summary: %q", bundle.FinalSummary)
	}
	if len(bundle.ProofHash) != 64 {
		t.Fatalf("unexpected proof hash: %q", bundle.ProofHash)
	}
	if bundle.LedgerReceipt["chain_id"] != "STUB_TESTNET" {
		t.Fatalf("unexpected receipt: %#v", bundle.LedgerReceipt)
	}
}

func TestProcessSessionMixedFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	doc := writeTempFile(t, dir, "notes.txt", "hello world")
	audio := writeTempFile(t, dir, "call.mp3", "not real audio")

	llm := stubLLM{
		configured: true,
		generate: func(ctx context.Context, system, prompt string) (string, error) {
			if system == metaSystemPrompt {
				return `{"final_summary": "done", "entities": [], "relations": []}`, nil
			}
			return `{"misinformationAnalysis": {"dangerScore": 5, "flags": [], "explanation": "benign"}, "summary": "ok", "finalReport": {"findings": "f", "recommendations": "r"}}`, nil
		},
	}

	orch, err := NewOrchestrator(testConfig(), discardLogger(), testDeps(llm, nil))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	bundle, err := orch.ProcessSession(context.Background(), SessionRequest{
		Paths:        []string{doc, audio},
		Instructions: "",
	})
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}
	if bundle.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
	if len(bundle.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(bundle.Results))
	}
	// Transcriber is unconfigured: the audio file fails, the document still
	// succeeds, and the session completes with the error inside the bundle.
	var audioResult *FileResult
	for i := range bundle.Results {
		if bundle.Results[i].Type == "audio" {
			audioResult = &bundle.Results[i]
		}
	}
	if audioResult == nil || !audioResult.Failed() {
		t.Fatalf("expected failed audio result: %#v", bundle.Results)
	}
	if bundle.LedgerReceipt["error"] != "ledger not configured" {
		t.Fatalf("unexpected receipt: %#v", bundle.LedgerReceipt)
	}
}

func TestProcessSessionProofHashStability(t *testing.T) {
	dir := t.TempDir()
	doc := writeTempFile(t, dir, "doc1.txt", "identical content")

	llm := stubLLM{
		configured: true,
		generate: func(ctx context.Context, system, prompt string) (string, error) {
			if system == metaSystemPrompt {
				return `{"final_summary": "stable", "entities": [], "relations": []}`, nil
			}
			return `{"misinformationAnalysis": {"dangerScore": 10, "flags": [], "explanation": "e"}, "summary": "s", "finalReport": {"findings": "f", "recommendations": "r"}}`, nil
		},
	}

	run := func() string {
		orch, err := NewOrchestrator(testConfig(), discardLogger(), testDeps(llm, nil))
		if err != nil {
			t.Fatalf("NewOrchestrator: %v", err)
		}
		bundle, err := orch.ProcessSession(context.Background(), SessionRequest{
			SessionID: "fixed", Paths: []string{doc},
		})
		if err != nil {
			t.Fatalf("ProcessSession: %v", err)
		}
		return bundle.ProofHash
	}
	if h1, h2 := run(), run(); h1 != h2 {
		t.Fatalf("identical sessions hashed differently: %s vs %s", h1, h2)
	}
}

func TestVerifyFileUnsupported(t *testing.T) {
	orch, err := NewOrchestrator(testConfig(), discardLogger(), testDeps(stubLLM{}, nil))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if _, err := orch.VerifyFile(context.Background(), "evidence.xyz"); err != ErrUnsupportedFile {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestVerifyFileImage(t *testing.T) {
	orch, err := NewOrchestrator(testConfig(), discardLogger(), testDeps(stubLLM{}, nil))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := orch.VerifyFile(context.Background(), "/evidence/selfie.png")
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if report.Verdict != "Likely Original" {
		t.Fatalf("unexpected verdict: %q", report.Verdict)
	}
	if report.Details["file_type"] != "Image" {
		t.Fatalf("unexpected details: %#v", report.Details)
	}
	if len(report.ProofHash) != 64 {
		t.Fatalf("report must be stamped: %#v", report)
	}
}

func TestVerifyFileFailedAnalysis(t *testing.T) {
	deps := testDeps(stubLLM{}, nil)
	deps.Detector = stubDetector{fn: func(ctx context.Context, path string) (float64, map[string]interface{}, error) {
		return 0, nil, fmt.Errorf("detector offline")
	}}
	orch, err := NewOrchestrator(testConfig(), discardLogger(), deps)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if _, err := orch.VerifyFile(context.Background(), "img.png"); err == nil {
		t.Fatalf("expected error for failed single-file analysis")
	}
}
