package forensics

import (
	"context"
	"log"
	"time"
)

// AudioAdapter transcribes a single audio file via the external
// speech-to-text service.
type AudioAdapter struct {
	transcriber Transcriber
	logger      *log.Logger
	timeout     time.Duration
}

// NewAudioAdapter wires an audio adapter.
func NewAudioAdapter(transcriber Transcriber, logger *log.Logger, timeout time.Duration) *AudioAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[AUDIO] ", log.LstdFlags)
	}
	return &AudioAdapter{transcriber: transcriber, logger: logger, timeout: timeout}
}

// Analyze transcribes one audio file. A missing transcription credential is
// reported the same way as any other collaborator failure: an error
// FileResult for this file only.
func (a *AudioAdapter) Analyze(ctx context.Context, file SourceFile) FileResult {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	report, err := a.transcriber.TranscribeAudio(ctx, file.Path)
	if err != nil {
		a.logger.Printf("transcription failed for %s: %v", file.DisplayName, err)
		return FileResult{File: file.DisplayName, Type: CategoryAudio.Label(), Error: err.Error()}
	}
	return FileResult{File: file.DisplayName, Type: CategoryAudio.Label(), Report: report}
}
