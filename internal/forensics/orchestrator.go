package forensics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/forensight/forensight/config"
	"github.com/forensight/forensight/internal/telemetry"
)

// ErrUnsupportedFile is returned when a single-file verification request
// names an extension outside the classification table.
var ErrUnsupportedFile = errors.New("unsupported file type")

// FileMeta describes one stored upload attached to a case record.
type FileMeta struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
}

// CaseStore persists completed case records. Failures are logged, never
// re-raised into the returned report.
type CaseStore interface {
	SaveCase(ctx context.Context, caseID string, files []FileMeta, report interface{}) error
}

// EvidenceIndex ingests per-file evidence text for later search.
type EvidenceIndex interface {
	IndexEvidence(ctx context.Context, caseID, fileName, text string) error
}

// ProgressSink mirrors session progress for status polling. Best-effort.
type ProgressSink interface {
	Update(ctx context.Context, sessionID, stage string, progress float64, message string) error
}

// Deps are the collaborators the orchestrator is composed from. Store,
// Index, Progress and Telemetry may be nil.
type Deps struct {
	Detector    TamperDetector
	Transcriber Transcriber
	LLM         LLMProvider
	Ledger      Ledger
	Sampler     FrameSampler
	Extract     TextExtractor
	Store       CaseStore
	Index       EvidenceIndex
	Progress    ProgressSink
	Telemetry   *telemetry.Telemetry
}

// Orchestrator coordinates classification, dispatch, aggregation,
// synthesis and stamping for one session at a time.
type Orchestrator struct {
	logger      *log.Logger
	adapters    map[MediaCategory]Adapter
	scheduler   *Scheduler
	synthesizer *Synthesizer
	stamper     *Stamper
	store       CaseStore
	index       EvidenceIndex
	progress    ProgressSink
	telemetry   *telemetry.Telemetry
}

// NewOrchestrator wires the full pipeline from configuration and
// collaborators.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, deps Deps) (*Orchestrator, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	if deps.Detector == nil {
		return nil, fmt.Errorf("tamper detector is required")
	}
	if deps.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if deps.Sampler == nil {
		return nil, fmt.Errorf("frame sampler is required")
	}
	if deps.Extract == nil {
		return nil, fmt.Errorf("text extractor is required")
	}

	timeout := cfg.Analysis.AdapterTimeout
	adapters := map[MediaCategory]Adapter{
		CategoryImages: NewImageAdapter(deps.Detector, deps.LLM, log.New(logger.Writer(), "[IMAGE] ", log.LstdFlags), timeout),
		CategoryAudio:  NewAudioAdapter(deps.Transcriber, log.New(logger.Writer(), "[AUDIO] ", log.LstdFlags), timeout),
		CategoryVideo: NewVideoAdapter(deps.Detector, deps.Sampler, log.New(logger.Writer(), "[VIDEO] ", log.LstdFlags),
			cfg.Analysis.FrameStrideSeconds, cfg.Analysis.FakeFrameThreshold, cfg.Analysis.DefaultFPS, timeout),
		CategoryDocuments: NewDocumentAdapter(deps.Extract, deps.LLM, log.New(logger.Writer(), "[DOC] ", log.LstdFlags), timeout),
	}

	return &Orchestrator{
		logger:      logger,
		adapters:    adapters,
		scheduler:   NewScheduler(adapters, log.New(logger.Writer(), "[DISPATCH] ", log.LstdFlags), cfg.Analysis.MaxWorkers),
		synthesizer: NewSynthesizer(deps.LLM, log.New(logger.Writer(), "[META] ", log.LstdFlags), cfg.Analysis.EvidenceCharLimit),
		stamper:     NewStamper(deps.Ledger, log.New(logger.Writer(), "[STAMP] ", log.LstdFlags)),
		store:       deps.Store,
		index:       deps.Index,
		progress:    deps.Progress,
		telemetry:   deps.Telemetry,
	}, nil
}

// ProcessSession runs one multi-file submission end to end and returns the
// stamped final bundle. Per-file failures are contained inside the bundle;
// only stamping failures (which should never happen on well-formed
// bundles) surface as session errors.
func (o *Orchestrator) ProcessSession(ctx context.Context, req SessionRequest) (FinalBundle, error) {
	start := time.Now()
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	o.logger.Printf("session %s: %d file(s)", req.SessionID, len(req.Paths))

	o.updateProgress(ctx, req.SessionID, "classifying", 0.05, "Classifying input files")
	buckets := Bucket(req.Paths)
	priority := ParsePriority(req.Instructions)

	o.updateProgress(ctx, req.SessionID, "analyzing", 0.1, "Dispatching per-file analysis")
	results := o.scheduler.Dispatch(ctx, buckets, priority)
	for _, r := range results {
		o.telemetry.FileAnalyzed(r.Type, r.Failed())
	}

	bundle := Aggregate(req.SessionID, results)

	o.updateProgress(ctx, req.SessionID, "synthesizing", 0.8, "Generating cross-file synthesis")
	meta := o.synthesizer.Synthesize(ctx, bundle.AggregateText, req.Instructions, bundle.FileSummaries)

	final := FinalBundle{EvidenceBundle: bundle, MetaReport: meta}

	o.updateProgress(ctx, req.SessionID, "stamping", 0.9, "Computing proof hash")
	if err := o.stamper.Stamp(ctx, &final); err != nil {
		o.updateProgress(ctx, req.SessionID, "failed", 0, err.Error())
		o.telemetry.ObserveSession(time.Since(start), false)
		return FinalBundle{}, fmt.Errorf("stamping session %s: %w", req.SessionID, err)
	}
	if final.LedgerReceipt != nil {
		if _, failed := final.LedgerReceipt["error"]; failed {
			o.telemetry.LedgerFailure()
		}
	}

	o.persist(ctx, req, final)

	o.updateProgress(ctx, req.SessionID, "completed", 1.0, "Session complete")
	o.telemetry.ObserveSession(time.Since(start), true)
	o.logger.Printf("session %s completed in %v", req.SessionID, time.Since(start))
	return final, nil
}

// VerifyFile runs the single-file pipeline: one adapter, one per-type
// report, stamped with its own proof hash.
func (o *Orchestrator) VerifyFile(ctx context.Context, path string) (VerificationReport, error) {
	cat := Classify(path)
	if !cat.Supported() {
		return VerificationReport{}, ErrUnsupportedFile
	}
	file := SourceFile{Path: path, DisplayName: filepath.Base(path), Category: cat}
	o.logger.Printf("verifying %s (%s)", file.DisplayName, cat)

	result := o.adapters[cat].Analyze(ctx, file)
	o.telemetry.FileAnalyzed(result.Type, result.Failed())
	if result.Failed() {
		return VerificationReport{}, fmt.Errorf("analysis failed for %s: %s", file.DisplayName, result.Error)
	}

	report := buildVerificationReport(cat, result)
	if err := o.stamper.StampReport(ctx, &report); err != nil {
		return VerificationReport{}, fmt.Errorf("stamping report for %s: %w", file.DisplayName, err)
	}
	return report, nil
}

// buildVerificationReport maps a per-file result onto the externally
// visible single-file report shape.
func buildVerificationReport(cat MediaCategory, result FileResult) VerificationReport {
	switch cat {
	case CategoryImages:
		rep, _ := result.Report.(ImageReport)
		return VerificationReport{
			Verdict:           rep.Verdict,
			AuthenticityScore: rep.AuthenticityScore,
			Details:           map[string]interface{}{"file_type": "Image", "full_analysis": rep},
		}
	case CategoryAudio:
		rep, _ := result.Report.(AudioReport)
		return VerificationReport{
			Verdict:           "Audio Processed",
			AuthenticityScore: 0.0,
			Details: map[string]interface{}{
				"file_type":       "Audio",
				"transcript_id":   rep.TranscriptID,
				"full_transcript": rep.Text,
			},
		}
	case CategoryVideo:
		rep, _ := result.Report.(VideoReport)
		return VerificationReport{
			Verdict:           rep.Verdict,
			AuthenticityScore: rep.AuthenticityScore,
			Details:           map[string]interface{}{"file_type": "Video", "analysis": rep.FrameAnalysis},
		}
	default:
		rep, _ := result.Report.(DocumentReport)
		danger := rep.MisinformationAnalysis.DangerScore
		return VerificationReport{
			Verdict:           fmt.Sprintf("Danger Score: %.0f/100", danger),
			AuthenticityScore: (100 - danger) / 100.0,
			Details:           map[string]interface{}{"file_type": "Document", "analysis": rep},
		}
	}
}

// persist saves the case record and ingests evidence text into the search
// index. Both are best-effort: the caller already holds a complete bundle.
func (o *Orchestrator) persist(ctx context.Context, req SessionRequest, final FinalBundle) {
	if o.store != nil {
		files := req.Files
		if len(files) == 0 {
			for _, r := range final.Results {
				files = append(files, FileMeta{Filename: r.File})
			}
		}
		if err := o.store.SaveCase(ctx, req.SessionID, files, final); err != nil {
			o.logger.Printf("case persistence failed for %s: %v", req.SessionID, err)
		}
	}
	if o.index != nil {
		for _, r := range final.Results {
			text := r.Text
			if text == "" {
				if rep, ok := audioReport(r); ok {
					text = rep.Text
				}
			}
			if text == "" {
				continue
			}
			if err := o.index.IndexEvidence(ctx, req.SessionID, r.File, text); err != nil {
				o.logger.Printf("evidence indexing failed for %s/%s: %v", req.SessionID, r.File, err)
			}
		}
	}
}

func (o *Orchestrator) updateProgress(ctx context.Context, sessionID, stage string, progress float64, message string) {
	if o.progress == nil {
		return
	}
	if err := o.progress.Update(ctx, sessionID, stage, progress, message); err != nil {
		o.logger.Printf("progress update failed for %s: %v", sessionID, err)
	}
}

