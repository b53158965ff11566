package forensics

import (
	"fmt"
	"strings"
)

// Aggregate folds an ordered result sequence into the session's evidence
// bundle. Documents contribute a labeled text block and a danger-score
// summary line; audio contributes a labeled transcript block; video
// contributes a fake-ratio summary line only; images contribute nothing
// here (their findings surface inside Results).
func Aggregate(sessionID string, results []FileResult) EvidenceBundle {
	var (
		textParts []string
		summaries []string
	)

	for _, r := range results {
		switch r.Type {
		case "document":
			if r.Text != "" {
				textParts = append(textParts, fmt.Sprintf("--- DOCUMENT: %s ---\n%s\n", r.File, r.Text))
			}
			if report, ok := documentReport(r); ok {
				summaries = append(summaries, fmt.Sprintf("%s: DANGER SCORE %.0f/100.", r.File, report.MisinformationAnalysis.DangerScore))
			}
		case "audio":
			if report, ok := audioReport(r); ok && report.Text != "" {
				textParts = append(textParts, fmt.Sprintf("--- AUDIO: %s ---\n%s\n", r.File, report.Text))
			}
		case "video":
			if report, ok := videoReport(r); ok {
				summaries = append(summaries, fmt.Sprintf("%s: Video Fake Ratio: %g%%", r.File, report.FrameAnalysis.FakeRatioPercent))
			}
		}
	}

	return EvidenceBundle{
		SessionID:     sessionID,
		Results:       results,
		AggregateText: strings.Join(textParts, "\n"),
		FileSummaries: summaries,
	}
}

// TruncateEvidence caps the corpus handed to synthesis. This is a token
// budget, not a data-integrity guarantee: long corpora reach the model as
// a prefix.
func TruncateEvidence(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	// Back off to a rune boundary so the prefix stays valid UTF-8.
	cut := limit
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}

func documentReport(r FileResult) (DocumentReport, bool) {
	switch rep := r.Report.(type) {
	case DocumentReport:
		return rep, true
	case *DocumentReport:
		if rep != nil {
			return *rep, true
		}
	}
	return DocumentReport{}, false
}

func audioReport(r FileResult) (AudioReport, bool) {
	switch rep := r.Report.(type) {
	case AudioReport:
		return rep, true
	case *AudioReport:
		if rep != nil {
			return *rep, true
		}
	}
	return AudioReport{}, false
}

func videoReport(r FileResult) (VideoReport, bool) {
	switch rep := r.Report.(type) {
	case VideoReport:
		return rep, true
	case *VideoReport:
		if rep != nil {
			return *rep, true
		}
	}
	return VideoReport{}, false
}
