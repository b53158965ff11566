package forensics

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestDocumentAdapterMissingCredential(t *testing.T) {
	a := NewDocumentAdapter(func(string) (string, error) { return "hello", nil },
		stubLLM{configured: false}, discardLogger(), 0)
	res := a.Analyze(context.Background(), SourceFile{Path: "x.txt", DisplayName: "x.txt", Category: CategoryDocuments})
	if !res.Failed() || res.Error != "risk model credential missing" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestDocumentAdapterEmptyFile(t *testing.T) {
	a := NewDocumentAdapter(func(string) (string, error) { return "", nil },
		stubLLM{configured: true}, discardLogger(), 0)
	res := a.Analyze(context.Background(), SourceFile{Path: "empty.txt", DisplayName: "empty.txt", Category: CategoryDocuments})
	if res.Failed() {
		t.Fatalf("empty file must not fail: %#v", res)
	}
	rep := res.Report.(DocumentReport)
	if rep.MisinformationAnalysis.DangerScore != 0 {
		t.Fatalf("empty file danger score = %v, want 0", rep.MisinformationAnalysis.DangerScore)
	}
	if rep.MisinformationAnalysis.Explanation != "No text content found." || rep.Summary != "Empty file." {
		t.Fatalf("unexpected benign report: %#v", rep)
	}
}

func TestDocumentAdapterExtractionFailureTreatedAsEmpty(t *testing.T) {
	a := NewDocumentAdapter(func(string) (string, error) { return "", fmt.Errorf("corrupt pdf") },
		stubLLM{configured: true}, discardLogger(), 0)
	res := a.Analyze(context.Background(), SourceFile{Path: "bad.pdf", DisplayName: "bad.pdf", Category: CategoryDocuments})
	if res.Failed() {
		t.Fatalf("extraction failure must degrade, not fail: %#v", res)
	}
	if res.Text != "" {
		t.Fatalf("expected no labeled text, got %q", res.Text)
	}
	rep := res.Report.(DocumentReport)
	if rep.Summary != "Empty file." {
		t.Fatalf("unexpected report: %#v", rep)
	}
}

func TestDocumentAdapterLabelsText(t *testing.T) {
	llm := stubLLM{
		configured: true,
		generate: func(ctx context.Context, system, prompt string) (string, error) {
			if !strings.Contains(prompt, "--- START OF FILE: notes.txt ---") ||
				!strings.Contains(prompt, "--- END OF FILE: notes.txt ---") {
				t.Fatalf("labeled block missing: %q", prompt)
			}
			return `{"misinformationAnalysis": {"dangerScore": 85, "flags": [], "explanation": "threats"}, "summary": "bad", "finalReport": {"findings": "f", "recommendations": "r"}}`, nil
		},
	}
	a := NewDocumentAdapter(func(string) (string, error) { return "wire the money or else", nil },
		llm, discardLogger(), 0)
	res := a.Analyze(context.Background(), SourceFile{Path: "notes.txt", DisplayName: "notes.txt", Category: CategoryDocuments})
	if res.Failed() {
		t.Fatalf("unexpected failure: %#v", res)
	}
	rep := res.Report.(DocumentReport)
	if rep.MisinformationAnalysis.DangerScore != 85 {
		t.Fatalf("danger score = %v, want 85", rep.MisinformationAnalysis.DangerScore)
	}
	if !strings.Contains(res.Text, "wire the money or else") {
		t.Fatalf("labeled text missing from result: %q", res.Text)
	}
}

func TestDocumentAdapterDegradedDefault(t *testing.T) {
	cases := []struct {
		name string
		llm  stubLLM
	}{
		{"model error", stubLLM{configured: true, generate: func(ctx context.Context, s, p string) (string, error) {
			return "", fmt.Errorf("timeout")
		}}},
		{"no json", stubLLM{configured: true, generate: func(ctx context.Context, s, p string) (string, error) {
			return "I cannot analyze this.", nil
		}}},
	}
	for _, c := range cases {
		a := NewDocumentAdapter(func(string) (string, error) { return "some text", nil }, c.llm, discardLogger(), 0)
		res := a.Analyze(context.Background(), SourceFile{Path: "x.txt", DisplayName: "x.txt", Category: CategoryDocuments})
		if res.Failed() {
			t.Fatalf("%s: degraded analysis must not fail the file: %#v", c.name, res)
		}
		rep := res.Report.(DocumentReport)
		if rep.MisinformationAnalysis.DangerScore != 50 {
			t.Fatalf("%s: danger score = %v, want 50", c.name, rep.MisinformationAnalysis.DangerScore)
		}
		if len(rep.MisinformationAnalysis.Flags) != 1 || rep.MisinformationAnalysis.Flags[0].Claim != "Analysis Error" {
			t.Fatalf("%s: unexpected flags: %#v", c.name, rep.MisinformationAnalysis.Flags)
		}
		if rep.Summary != "Error during analysis." {
			t.Fatalf("%s: unexpected summary: %q", c.name, rep.Summary)
		}
	}
}
