// Package index provides full-text search over per-file evidence text
// (document contents and audio transcripts).
package index

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve"
)

// EvidenceDoc is the indexed shape of one piece of evidence.
type EvidenceDoc struct {
	CaseID   string `json:"case_id"`
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

// Hit is one search result.
type Hit struct {
	CaseID   string  `json:"case_id"`
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
	Fragment string  `json:"fragment,omitempty"`
}

// Index wraps an on-disk bleve index. Safe for concurrent use.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index
}

// Open opens the index at path, creating it when missing.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("opening evidence index: %w", err)
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating evidence index: %w", err)
		}
	}
	return &Index{idx: idx}, nil
}

// OpenInMemory builds a non-persistent index, used in tests.
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating in-memory index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// IndexEvidence ingests one evidence text under a case-scoped document ID.
func (i *Index) IndexEvidence(ctx context.Context, caseID, fileName, text string) error {
	if text == "" {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	docID := caseID + "/" + fileName
	return i.idx.Index(docID, EvidenceDoc{CaseID: caseID, FileName: fileName, Text: text})
}

// Search runs a query-string search, optionally restricted to one case.
func (i *Index) Search(ctx context.Context, q, caseID string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, limit*3, 0, false)
	req.Fields = []string{"case_id", "file_name"}
	req.Highlight = bleve.NewHighlightWithStyle("html")

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching evidence: %w", err)
	}

	var out []Hit
	for _, hit := range res.Hits {
		hitCase, _ := hit.Fields["case_id"].(string)
		if caseID != "" && hitCase != caseID {
			continue
		}
		fileName, _ := hit.Fields["file_name"].(string)
		h := Hit{CaseID: hitCase, FileName: fileName, Score: hit.Score}
		if frags, ok := hit.Fragments["text"]; ok && len(frags) > 0 {
			h.Fragment = frags[0]
		}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close releases the underlying index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Close()
}
