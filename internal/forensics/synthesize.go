package forensics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

const metaSystemPrompt = `You are the 'Meta-Investigator' AI. You receive per-file forensic findings from a multi-file evidence session and produce one cross-file synthesis.

Return STRICT JSON with exactly these fields:
{"final_summary": string, "entities": [..], "relations": [..]}`

// Synthesizer produces the cross-file meta report from the aggregated
// evidence corpus.
type Synthesizer struct {
	llm       LLMProvider
	logger    *log.Logger
	charLimit int
}

// NewSynthesizer wires a synthesizer. charLimit caps the evidence corpus
// embedded in the prompt (25000 when zero).
func NewSynthesizer(llm LLMProvider, logger *log.Logger, charLimit int) *Synthesizer {
	if logger == nil {
		logger = log.New(log.Writer(), "[META] ", log.LstdFlags)
	}
	if charLimit <= 0 {
		charLimit = 25000
	}
	return &Synthesizer{llm: llm, logger: logger, charLimit: charLimit}
}

// Synthesize builds one prompt from the user instructions, per-file
// summaries and (truncated) evidence text and parses the model's
// three-field JSON answer. Every failure degrades to a valid MetaReport;
// synthesis never fails the session.
func (s *Synthesizer) Synthesize(ctx context.Context, aggregateText, instructions string, fileSummaries []string) MetaReport {
	if s.llm == nil || !s.llm.Configured() {
		return MetaReport{FinalSummary: "AI key missing.", Entities: []interface{}{}, Relations: []interface{}{}}
	}

	summariesJSON, err := json.MarshalIndent(fileSummaries, "", "  ")
	if err != nil {
		summariesJSON = []byte("[]")
	}
	prompt := fmt.Sprintf(`USER INSTRUCTIONS: %s
FILE SUMMARIES: %s
EVIDENCE: %s`, instructions, summariesJSON, TruncateEvidence(aggregateText, s.charLimit))

	raw, err := s.llm.Generate(ctx, metaSystemPrompt, prompt)
	if err != nil {
		s.logger.Printf("meta synthesis call failed: %v", err)
		return MetaReport{
			FinalSummary: fmt.Sprintf("Synthesis unavailable: %v", err),
			Entities:     []interface{}{},
			Relations:    []interface{}{},
		}
	}

	report, ok := parseMetaReport(raw)
	if !ok {
		s.logger.Printf("meta synthesis returned no parseable JSON, degrading to raw text")
		return MetaReport{
			FinalSummary: truncateRunes(raw, 500),
			Entities:     []interface{}{},
			Relations:    []interface{}{},
		}
	}
	return report
}

func parseMetaReport(raw string) (MetaReport, bool) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return MetaReport{}, false
	}
	var report MetaReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return MetaReport{}, false
	}
	if report.Entities == nil {
		report.Entities = []interface{}{}
	}
	if report.Relations == nil {
		report.Relations = []interface{}{}
	}
	return report, true
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
