package forensics

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"time"
)

// VideoAdapter runs the forensic timeline scan: it samples one frame every
// stride seconds of playback and feeds each sampled frame to the image
// tamper detector. Frame calls are sequential within one file to bound
// peak concurrent remote calls.
type VideoAdapter struct {
	detector   TamperDetector
	sampler    FrameSampler
	logger     *log.Logger
	stride     float64
	threshold  float64
	defaultFPS float64
	timeout    time.Duration
}

// NewVideoAdapter wires a video adapter. stride is seconds of playback per
// sampled frame, threshold the tampering percentage above which a frame
// counts as fake, defaultFPS the rate assumed when the container reports
// none.
func NewVideoAdapter(detector TamperDetector, sampler FrameSampler, logger *log.Logger, stride, threshold, defaultFPS float64, timeout time.Duration) *VideoAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[VIDEO] ", log.LstdFlags)
	}
	if stride <= 0 {
		stride = 2.0
	}
	if threshold <= 0 {
		threshold = 60.0
	}
	if defaultFPS <= 0 {
		defaultFPS = 30.0
	}
	return &VideoAdapter{
		detector:   detector,
		sampler:    sampler,
		logger:     logger,
		stride:     stride,
		threshold:  threshold,
		defaultFPS: defaultFPS,
		timeout:    timeout,
	}
}

// Analyze scans one video. Per-frame detector failures are logged and
// skipped; only failures that prevent the scan entirely (probe or sampling
// errors) yield an error FileResult.
func (a *VideoAdapter) Analyze(ctx context.Context, file SourceFile) FileResult {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	report, err := a.analyze(ctx, file.Path)
	if err != nil {
		a.logger.Printf("video analysis failed for %s: %v", file.DisplayName, err)
		return FileResult{File: file.DisplayName, Type: CategoryVideo.Label(), Error: err.Error()}
	}
	return FileResult{File: file.DisplayName, Type: CategoryVideo.Label(), Report: report}
}

func (a *VideoAdapter) analyze(ctx context.Context, path string) (VideoReport, error) {
	fps, totalFrames, err := a.sampler.Probe(ctx, path)
	if err != nil {
		return VideoReport{}, fmt.Errorf("probing video: %w", err)
	}
	if fps <= 0 {
		fps = a.defaultFPS
	}
	strideFrames := int(fps * a.stride)
	if strideFrames < 1 {
		strideFrames = 1
	}

	// Frame snapshots are owned by this adapter for the duration of one
	// file's analysis and removed on every exit path.
	dir, err := os.MkdirTemp("", "forensight-frames-")
	if err != nil {
		return VideoReport{}, fmt.Errorf("creating frame dir: %w", err)
	}
	defer os.RemoveAll(dir)

	a.logger.Printf("timeline scan of %s: 1 frame every %.1fs (%d frames)", path, a.stride, strideFrames)

	frames, err := a.sampler.Sample(ctx, path, strideFrames, dir)
	if err != nil {
		return VideoReport{}, fmt.Errorf("sampling frames: %w", err)
	}

	var (
		analyzed   int
		fakeFrames int
		maxScore   float64
	)
	for i, frame := range frames {
		tamperPct, _, err := a.detector.DetectTamper(ctx, frame)
		if err != nil {
			a.logger.Printf("frame %d analysis failed: %v", i, err)
			continue
		}
		if tamperPct > maxScore {
			maxScore = tamperPct
		}
		if tamperPct > a.threshold {
			fakeFrames++
			a.logger.Printf("tampering detected around %.1fs (score %.1f%%)", float64(i*strideFrames)/fps, tamperPct)
		}
		analyzed++
	}

	fakeRatio := 0.0
	if analyzed > 0 {
		fakeRatio = float64(fakeFrames) / float64(analyzed) * 100.0
	}

	verdict := "Likely Original"
	if fakeFrames > 0 {
		verdict = "Tampering Detected"
	}

	duration := 0.0
	if fps > 0 {
		duration = float64(totalFrames) / fps
	}

	return VideoReport{
		Verdict:           verdict,
		AuthenticityScore: (100.0 - maxScore) / 100.0,
		Metadata: VideoMetadata{
			DurationSec: round2(duration),
			FPS:         round2(fps),
			TotalFrames: totalFrames,
		},
		FrameAnalysis: FrameAnalysis{
			FramesAnalyzed:   analyzed,
			FakeFramesCount:  fakeFrames,
			FakeRatioPercent: round2(fakeRatio),
			MaxFakeScore:     round2(maxScore),
			Strategy:         fmt.Sprintf("Full Timeline (1 frame / %.0fs)", a.stride),
		},
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
