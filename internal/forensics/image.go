package forensics

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const imageExplanationPrompt = `You are a deepfake detection expert.

The tamperingPercentage represents the estimated probability this media is manipulated (0 = no tampering, 100 = highly manipulated).

The tamperingPercentage is: %.1f%%

Write a concise but detailed 5-7 sentence report for a regular person:
- Clearly mention the tampering percentage as part of the analysis
- If it looks real, explain WHY visually (texture, lighting consistency, edges, etc.)
- If manipulated, explain WHAT looks fake or mismatched
- Do NOT mention the detection vendors by name
- Do NOT return JSON, only natural English text`

// ImageAdapter analyzes a single image for tampering via the external
// detection service, with a best-effort natural-language explanation.
type ImageAdapter struct {
	detector TamperDetector
	llm      LLMProvider
	logger   *log.Logger
	timeout  time.Duration
}

// NewImageAdapter wires an image adapter. llm may be nil; explanations are
// then omitted.
func NewImageAdapter(detector TamperDetector, llm LLMProvider, logger *log.Logger, timeout time.Duration) *ImageAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[IMAGE] ", log.LstdFlags)
	}
	return &ImageAdapter{detector: detector, llm: llm, logger: logger, timeout: timeout}
}

// Analyze runs deepfake detection on one image. Collaborator failures are
// converted into an error FileResult, never propagated.
func (a *ImageAdapter) Analyze(ctx context.Context, file SourceFile) FileResult {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	report, err := a.analyze(ctx, file.Path)
	if err != nil {
		a.logger.Printf("analysis failed for %s: %v", file.DisplayName, err)
		return FileResult{File: file.DisplayName, Type: CategoryImages.Label(), Error: err.Error()}
	}
	return FileResult{File: file.DisplayName, Type: CategoryImages.Label(), Report: report}
}

func (a *ImageAdapter) analyze(ctx context.Context, path string) (ImageReport, error) {
	tamperPct, _, err := a.detector.DetectTamper(ctx, path)
	if err != nil {
		return ImageReport{}, fmt.Errorf("tamper detection: %w", err)
	}

	score := (100.0 - tamperPct) / 100.0
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return ImageReport{
		Verdict:             tamperVerdict(tamperPct),
		AuthenticityScore:   score,
		TamperingPercentage: tamperPct,
		Explanation:         a.explain(ctx, path, tamperPct),
	}, nil
}

func tamperVerdict(tamperPct float64) string {
	switch {
	case tamperPct < 25:
		return "Likely Original"
	case tamperPct < 60:
		return "Possibly Manipulated"
	default:
		return "Likely Deepfake / Manipulated"
	}
}

// explain asks the language model for a human-readable report. Best-effort:
// any failure degrades to a placeholder so detection results still surface.
func (a *ImageAdapter) explain(ctx context.Context, path string, tamperPct float64) string {
	const fallback = "No explanation available."
	if a.llm == nil || !a.llm.Configured() {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Printf("reading image for explanation failed: %v", err)
		return fallback
	}
	prompt := fmt.Sprintf(imageExplanationPrompt, tamperPct)
	text, err := a.llm.GenerateWithImage(ctx, prompt, imageMimeType(path), data)
	if err != nil {
		a.logger.Printf("explanation generation failed: %v", err)
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}

func imageMimeType(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
