package forensics

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Scheduler dispatches classified files to their category adapters with
// bounded concurrency. The output sequence is always category-priority
// order, then per-category input order, regardless of completion timing;
// reproducible reports depend on it.
type Scheduler struct {
	adapters map[MediaCategory]Adapter
	logger   *log.Logger
	workers  int
}

// NewScheduler builds a scheduler over the given adapters with at most
// workers concurrent adapter invocations.
func NewScheduler(adapters map[MediaCategory]Adapter, logger *log.Logger, workers int) *Scheduler {
	if logger == nil {
		logger = log.New(log.Writer(), "[DISPATCH] ", log.LstdFlags)
	}
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{adapters: adapters, logger: logger, workers: workers}
}

type dispatchSlot struct {
	index int
	file  SourceFile
}

// Dispatch runs every classified file through its adapter. Each invocation
// owns exactly one pre-assigned result slot, written once, so concurrent
// completion cannot reorder the output. One result is produced per file,
// success or failure; no file is ever dropped past classification.
func (s *Scheduler) Dispatch(ctx context.Context, buckets map[MediaCategory][]SourceFile, priority []MediaCategory) []FileResult {
	var slots []dispatchSlot
	for _, cat := range priority {
		for _, f := range buckets[cat] {
			slots = append(slots, dispatchSlot{index: len(slots), file: f})
		}
	}

	results := make([]FileResult, len(slots))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, slot := range slots {
		wg.Add(1)
		go func(slot dispatchSlot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[slot.index] = s.run(ctx, slot.file)
		}(slot)
	}
	wg.Wait()

	return results
}

// run invokes one adapter with defense in depth: an adapter that panics
// instead of returning its tagged error result is still converted into an
// error FileResult so one bad file cannot abort the batch.
func (s *Scheduler) run(ctx context.Context, file SourceFile) (result FileResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("adapter panic for %s: %v", file.DisplayName, r)
			result = FileResult{
				File:  file.DisplayName,
				Type:  file.Category.Label(),
				Error: fmt.Sprintf("internal adapter failure: %v", r),
			}
		}
	}()

	adapter, ok := s.adapters[file.Category]
	if !ok || adapter == nil {
		return FileResult{
			File:  file.DisplayName,
			Type:  file.Category.Label(),
			Error: fmt.Sprintf("no adapter registered for category %s", file.Category),
		}
	}
	return adapter.Analyze(ctx, file)
}
