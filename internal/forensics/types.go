package forensics

import (
	"context"
)

// MediaCategory identifies which analysis pipeline a file belongs to.
type MediaCategory string

const (
	CategoryImages      MediaCategory = "images"
	CategoryAudio       MediaCategory = "audio"
	CategoryVideo       MediaCategory = "video"
	CategoryDocuments   MediaCategory = "documents"
	CategoryUnsupported MediaCategory = "unsupported"
)

// Supported reports whether files of this category are analyzed at all.
func (c MediaCategory) Supported() bool {
	return c != CategoryUnsupported && c != ""
}

// Label returns the singular result-type label used in FileResult entries.
func (c MediaCategory) Label() string {
	switch c {
	case CategoryImages:
		return "image"
	case CategoryAudio:
		return "audio"
	case CategoryVideo:
		return "video"
	case CategoryDocuments:
		return "document"
	default:
		return "unsupported"
	}
}

// SourceFile is a classified input file. Immutable once created; the core
// never deletes the underlying file.
type SourceFile struct {
	Path        string        `json:"path"`
	DisplayName string        `json:"display_name"`
	Category    MediaCategory `json:"category"`
}

// FileResult is the per-file outcome of one adapter invocation. Exactly one
// FileResult exists per classified SourceFile, whether the analysis
// succeeded or not.
type FileResult struct {
	File   string      `json:"file"`
	Type   string      `json:"type,omitempty"`
	Report interface{} `json:"report,omitempty"`
	Text   string      `json:"text,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Failed reports whether this result carries an adapter failure.
func (r FileResult) Failed() bool { return r.Error != "" }

// ImageReport is the normalized deepfake-detection result.
type ImageReport struct {
	Verdict             string  `json:"verdict"`
	AuthenticityScore   float64 `json:"authenticity_score"`
	TamperingPercentage float64 `json:"tamperingPercentage"`
	Explanation         string  `json:"explanation"`
}

// Utterance is a single speaker turn in a transcript.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMS int64  `json:"start"`
	EndMS   int64  `json:"end"`
}

// AudioReport is the normalized transcription result.
type AudioReport struct {
	TranscriptID string      `json:"transcript_id"`
	Text         string      `json:"text"`
	Utterances   []Utterance `json:"utterances"`
	Sentiment    string      `json:"sentiment,omitempty"`
}

// VideoMetadata carries container-level properties of an analyzed video.
type VideoMetadata struct {
	DurationSec float64 `json:"duration_sec"`
	FPS         float64 `json:"fps"`
	TotalFrames int     `json:"total_frames"`
	Resolution  string  `json:"resolution,omitempty"`
}

// FrameAnalysis summarizes the per-frame timeline scan of one video.
type FrameAnalysis struct {
	FramesAnalyzed   int     `json:"frames_analyzed"`
	FakeFramesCount  int     `json:"fake_frames_count"`
	FakeRatioPercent float64 `json:"fake_ratio_percent"`
	MaxFakeScore     float64 `json:"max_fake_score"`
	Strategy         string  `json:"analysis_strategy"`
}

// VideoReport is the normalized video forensics result.
type VideoReport struct {
	Verdict           string        `json:"verdict"`
	AuthenticityScore float64       `json:"authenticity_score"`
	Metadata          VideoMetadata `json:"metadata"`
	FrameAnalysis     FrameAnalysis `json:"visual_analysis"`
}

// DocumentReport is the structured risk-scoring result for text evidence.
// The field layout mirrors the schema requested from the language model.
type DocumentReport struct {
	MisinformationAnalysis MisinformationAnalysis `json:"misinformationAnalysis"`
	Summary                string                 `json:"summary"`
	ToneAnalysis           ToneAnalysis           `json:"toneAnalysis"`
	ContentAnalysis        ContentAnalysis        `json:"contentAnalysis"`
	KeywordDetection       KeywordDetection       `json:"keywordDetection"`
	FactChecking           FactChecking           `json:"factChecking"`
	FinalReport            FinalReportSection     `json:"finalReport"`
}

// MisinformationAnalysis carries the danger score and its justification.
type MisinformationAnalysis struct {
	DangerScore float64      `json:"dangerScore"`
	Flags       []ThreatFlag `json:"flags"`
	Explanation string       `json:"explanation"`
}

// ThreatFlag is one flagged claim with reasoning.
type ThreatFlag struct {
	Claim     string `json:"claim"`
	Reasoning string `json:"reasoning"`
}

// ToneAnalysis describes the detected tone of the text.
type ToneAnalysis struct {
	DetectedTone string `json:"detectedTone"`
}

// ContentAnalysis lists sensitive or inappropriate content found.
type ContentAnalysis struct {
	SensitiveInfo        []SensitiveItem `json:"sensitiveInfo"`
	InappropriateContent []string        `json:"inappropriateContent"`
}

// SensitiveItem is one piece of sensitive information found in the text.
type SensitiveItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// KeywordDetection lists keyword hits with surrounding context.
type KeywordDetection struct {
	KeywordsFound []KeywordHit `json:"keywordsFound"`
}

// KeywordHit is one keyword match.
type KeywordHit struct {
	Keyword string `json:"keyword"`
	Context string `json:"context"`
}

// FactChecking lists claims extracted for verification.
type FactChecking struct {
	Claims []FactClaim `json:"claims"`
}

// FactClaim is one verifiable claim with its assessment.
type FactClaim struct {
	Claim        string `json:"claim"`
	Verification string `json:"verification"`
	Source       string `json:"source"`
}

// FinalReportSection carries findings and recommendations.
type FinalReportSection struct {
	Findings        string `json:"findings"`
	Recommendations string `json:"recommendations"`
}

// EvidenceBundle is the aggregate of all per-file results for one session,
// built in priority-then-input order. Immutable once handed to synthesis.
type EvidenceBundle struct {
	SessionID     string       `json:"session_id"`
	Results       []FileResult `json:"results"`
	AggregateText string       `json:"aggregate_text,omitempty"`
	FileSummaries []string     `json:"file_summaries,omitempty"`
}

// MetaReport is the cross-file synthesis produced once per session.
type MetaReport struct {
	FinalSummary string        `json:"final_summary"`
	Entities     []interface{} `json:"entities"`
	Relations    []interface{} `json:"relations"`
}

// FinalBundle is the terminal session artifact. The proof hash is computed
// over the bundle before ProofHash and LedgerReceipt are attached, so the
// receipt is never part of the hashed content.
type FinalBundle struct {
	EvidenceBundle
	MetaReport
	ProofHash     string                 `json:"proof_hash,omitempty"`
	LedgerReceipt map[string]interface{} `json:"blockchain_tx,omitempty"`
}

// SessionRequest describes one multi-file submission. Files optionally
// carries stored-upload metadata for the case record.
type SessionRequest struct {
	SessionID    string
	Paths        []string
	Instructions string
	Files        []FileMeta
}

// VerificationReport is the externally visible single-file report.
type VerificationReport struct {
	Verdict           string                 `json:"verdict"`
	AuthenticityScore float64                `json:"authenticity_score"`
	Details           map[string]interface{} `json:"details"`
	ProofHash         string                 `json:"proof_hash,omitempty"`
	LedgerReceipt     map[string]interface{} `json:"blockchain_tx,omitempty"`
}

// Adapter runs one category-specific analysis pipeline. Implementations
// must convert every collaborator failure into a FileResult with Error set
// rather than propagating it; this is the failure-isolation boundary.
type Adapter interface {
	Analyze(ctx context.Context, file SourceFile) FileResult
}

// TamperDetector is the external deepfake-detection collaborator. It
// returns the estimated tampering percentage (0-100) plus the raw provider
// payload.
type TamperDetector interface {
	DetectTamper(ctx context.Context, path string) (float64, map[string]interface{}, error)
}

// Transcriber is the external speech-to-text collaborator.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, path string) (AudioReport, error)
}

// LLMProvider is the external language-model collaborator used for document
// risk scoring, cross-file synthesis and image explanations.
type LLMProvider interface {
	// Generate produces a text completion for the given prompts.
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
	// GenerateWithImage produces a completion grounded on inline image data.
	GenerateWithImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
	// Configured reports whether a credential is available; callers
	// short-circuit to degraded output when it is not.
	Configured() bool
}

// Ledger is the external tamper-evidence collaborator. Failures are
// best-effort: callers record them as error markers and continue.
type Ledger interface {
	LogProofHash(ctx context.Context, hash string) (map[string]interface{}, error)
}

// FrameSampler extracts frames from a video at a fixed temporal stride.
type FrameSampler interface {
	// Probe returns the video's frame rate and total frame count. A zero
	// or negative frame rate means the container did not report one.
	Probe(ctx context.Context, path string) (fps float64, totalFrames int, err error)
	// Sample writes one frame every strideFrames frames (starting at frame
	// zero) into a caller-owned temporary directory and returns the image
	// paths in timeline order. The caller removes dir when done.
	Sample(ctx context.Context, path string, strideFrames int, dir string) ([]string, error)
}
