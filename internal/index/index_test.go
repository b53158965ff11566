package index

import (
	"context"
	"testing"
)

func TestIndexAndSearch(t *testing.T) {
	idx, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.IndexEvidence(ctx, "case-1", "doc1.txt", "The wire transfer was routed through a shell company."); err != nil {
		t.Fatalf("IndexEvidence: %v", err)
	}
	if err := idx.IndexEvidence(ctx, "case-2", "doc2.txt", "Weather report for the coastal region."); err != nil {
		t.Fatalf("IndexEvidence: %v", err)
	}

	hits, err := idx.Search(ctx, "transfer", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].FileName != "doc1.txt" || hits[0].CaseID != "case-1" {
		t.Fatalf("unexpected hits: %#v", hits)
	}
}

func TestSearchScopedToCase(t *testing.T) {
	idx, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.IndexEvidence(ctx, "case-1", "a.txt", "suspicious invoice totals"); err != nil {
		t.Fatalf("IndexEvidence: %v", err)
	}
	if err := idx.IndexEvidence(ctx, "case-2", "b.txt", "suspicious invoice totals"); err != nil {
		t.Fatalf("IndexEvidence: %v", err)
	}

	hits, err := idx.Search(ctx, "invoice", "case-2", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].CaseID != "case-2" {
		t.Fatalf("unexpected hits: %#v", hits)
	}
}

func TestIndexEvidenceSkipsEmptyText(t *testing.T) {
	idx, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.IndexEvidence(ctx, "case-1", "empty.txt", ""); err != nil {
		t.Fatalf("IndexEvidence: %v", err)
	}
	hits, err := idx.Search(ctx, "empty", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %#v", hits)
	}
}
