package forensics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

const documentSystemPrompt = `You are an expert Digital Forensic Investigator analyzing chat logs and documents.

YOUR TASK: Detect criminal intent, social engineering, fraud, coercion, or security threats.

SCORING RULES (misinformationAnalysis.dangerScore):
- 0-20:  Normal conversation.
- 21-50: Suspicious or high-pressure.
- 51-80: Clear Scam / Threat / Harassment.
- 81-100: Immediate Danger / Criminal Conspiracy / Clandestine Operation.

CRITICAL: You MUST populate the 'dangerScore' with a number based on the evidence.

Output STRICT JSON with this shape:
{
  "misinformationAnalysis": {"dangerScore": number, "flags": [{"claim": string, "reasoning": string}], "explanation": string},
  "summary": string,
  "toneAnalysis": {"detectedTone": string},
  "contentAnalysis": {"sensitiveInfo": [{"type": string, "text": string}], "inappropriateContent": [string]},
  "keywordDetection": {"keywordsFound": [{"keyword": string, "context": string}]},
  "factChecking": {"claims": [{"claim": string, "verification": string, "source": string}]},
  "finalReport": {"findings": string, "recommendations": string}
}`

// TextExtractor pulls plain text out of a document file.
type TextExtractor func(path string) (string, error)

// DocumentAdapter extracts document text and scores it with the risk
// language model.
type DocumentAdapter struct {
	extract TextExtractor
	llm     LLMProvider
	logger  *log.Logger
	timeout time.Duration
}

// NewDocumentAdapter wires a document adapter.
func NewDocumentAdapter(extract TextExtractor, llm LLMProvider, logger *log.Logger, timeout time.Duration) *DocumentAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[DOC] ", log.LstdFlags)
	}
	return &DocumentAdapter{extract: extract, llm: llm, logger: logger, timeout: timeout}
}

// Analyze extracts the document's text and asks the risk model for a
// structured assessment. Extraction failure yields empty text for this
// file, not a fatal error; a missing model credential is the one failure
// that surfaces as an error FileResult.
func (a *DocumentAdapter) Analyze(ctx context.Context, file SourceFile) FileResult {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if a.llm == nil || !a.llm.Configured() {
		return FileResult{File: file.DisplayName, Type: CategoryDocuments.Label(), Error: "risk model credential missing"}
	}

	text, err := a.extract(file.Path)
	if err != nil {
		a.logger.Printf("text extraction failed for %s: %v", file.DisplayName, err)
		text = ""
	}
	labeled := ""
	if strings.TrimSpace(text) != "" {
		labeled = fmt.Sprintf("\n--- START OF FILE: %s ---\n%s\n--- END OF FILE: %s ---\n", file.DisplayName, text, file.DisplayName)
	}

	report := a.score(ctx, labeled)
	return FileResult{
		File:   file.DisplayName,
		Type:   CategoryDocuments.Label(),
		Report: report,
		Text:   labeled,
	}
}

// score runs the structured risk analysis. Empty input returns a benign
// zero-score report; a model call or parse failure returns the degraded
// default with dangerScore 50, a sentinel meaning "needs human review".
func (a *DocumentAdapter) score(ctx context.Context, text string) DocumentReport {
	if strings.TrimSpace(text) == "" {
		return DocumentReport{
			MisinformationAnalysis: MisinformationAnalysis{
				DangerScore: 0,
				Flags:       []ThreatFlag{},
				Explanation: "No text content found.",
			},
			Summary: "Empty file.",
			FinalReport: FinalReportSection{
				Findings:        "No content.",
				Recommendations: "Check file input.",
			},
		}
	}

	raw, err := a.llm.Generate(ctx, documentSystemPrompt, text)
	if err != nil {
		a.logger.Printf("risk analysis failed: %v", err)
		return degradedDocumentReport(err.Error())
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		a.logger.Printf("risk analysis returned no parseable JSON: %v", err)
		return degradedDocumentReport("unparseable model response")
	}
	var report DocumentReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		a.logger.Printf("risk analysis JSON did not match schema: %v", err)
		return degradedDocumentReport("model response did not match schema")
	}
	a.logger.Printf("risk analysis complete, danger score %.0f", report.MisinformationAnalysis.DangerScore)
	return report
}

func degradedDocumentReport(reason string) DocumentReport {
	return DocumentReport{
		MisinformationAnalysis: MisinformationAnalysis{
			// Medium alert on error so a human reviews it.
			DangerScore: 50,
			Flags:       []ThreatFlag{{Claim: "Analysis Error", Reasoning: reason}},
			Explanation: "Risk analysis failed to process this file.",
		},
		Summary: "Error during analysis.",
		FinalReport: FinalReportSection{
			Findings:        "System Error.",
			Recommendations: "Retry analysis.",
		},
	}
}
