package forensics

import (
	"context"
	"fmt"
	"io"
	"log"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubDetector struct {
	fn func(ctx context.Context, path string) (float64, map[string]interface{}, error)
}

func (d stubDetector) DetectTamper(ctx context.Context, path string) (float64, map[string]interface{}, error) {
	return d.fn(ctx, path)
}

type stubTranscriber struct {
	fn func(ctx context.Context, path string) (AudioReport, error)
}

func (t stubTranscriber) TranscribeAudio(ctx context.Context, path string) (AudioReport, error) {
	return t.fn(ctx, path)
}

type stubLLM struct {
	configured bool
	generate   func(ctx context.Context, systemPrompt, prompt string) (string, error)
	withImage  func(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

func (l stubLLM) Configured() bool { return l.configured }

func (l stubLLM) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if l.generate == nil {
		return "", fmt.Errorf("generate not stubbed")
	}
	return l.generate(ctx, systemPrompt, prompt)
}

func (l stubLLM) GenerateWithImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	if l.withImage == nil {
		return "", fmt.Errorf("generateWithImage not stubbed")
	}
	return l.withImage(ctx, prompt, mimeType, data)
}

type stubLedger struct {
	fn func(ctx context.Context, hash string) (map[string]interface{}, error)
}

func (l stubLedger) LogProofHash(ctx context.Context, hash string) (map[string]interface{}, error) {
	return l.fn(ctx, hash)
}

type stubSampler struct {
	probe  func(ctx context.Context, path string) (float64, int, error)
	sample func(ctx context.Context, path string, strideFrames int, dir string) ([]string, error)
}

func (s stubSampler) Probe(ctx context.Context, path string) (float64, int, error) {
	return s.probe(ctx, path)
}

func (s stubSampler) Sample(ctx context.Context, path string, strideFrames int, dir string) ([]string, error) {
	return s.sample(ctx, path, strideFrames, dir)
}

// stubAdapter lets scheduler tests control per-file behavior directly.
type stubAdapter struct {
	fn func(ctx context.Context, file SourceFile) FileResult
}

func (a stubAdapter) Analyze(ctx context.Context, file SourceFile) FileResult {
	return a.fn(ctx, file)
}
