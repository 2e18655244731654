package vector

import (
	"context"
	"strings"
	"testing"

	"github.com/lastwinnersllc/devgraph/pkg/graph"
	"github.com/lastwinnersllc/devgraph/pkg/parser"
)

func sampleRecord() *parser.Record {
	return &parser.Record{
		Path:    "app/service.py",
		RawText: "source text",
		Imports: []parser.Import{
			{Kind: parser.ImportDirect, Name: "os"},
			{Kind: parser.ImportFrom, Module: "app.models", Name: "User", Alias: "U"},
		},
		Classes: []parser.Class{
			{Name: "Service", Line: 10, Bases: []string{"Base"}, Doc: "A service."},
			{Name: "Helper", Line: 30},
		},
		Functions: []parser.Function{
			{Name: "run", Line: 3, Params: []parser.Param{{Name: "job"}, {Name: "n", Type: "int"}}, Doc: "Run a job."},
		},
	}
}

func TestDocumentsFor(t *testing.T) {
	docs := DocumentsFor(sampleRecord(), 1234)

	// One file doc, two class docs, one function doc
	if len(docs) != 4 {
		t.Fatalf("Expected 4 documents, got %d", len(docs))
	}

	byID := make(map[string]Document)
	for _, d := range docs {
		byID[d.ID] = d
	}

	file, ok := byID[graph.FileNode("app/service.py")]
	if !ok {
		t.Fatal("Expected file document")
	}
	if file.Metadata.Type != "file" || file.Metadata.UpdatedAt != 1234 {
		t.Errorf("File metadata = %+v", file.Metadata)
	}
	if strings.Contains(file.Text, "source text") {
		t.Error("File document must never carry raw source")
	}

	cls := byID[graph.ClassNode("app/service.py", "Service")]
	if cls.Text != "A service." {
		t.Errorf("Class with docstring uses it, got %q", cls.Text)
	}
	helper := byID[graph.ClassNode("app/service.py", "Helper")]
	if helper.Text != "Class Helper in app/service.py" {
		t.Errorf("Class without docstring gets fallback, got %q", helper.Text)
	}

	fn := byID[graph.FuncNode("app/service.py", "run")]
	if fn.Metadata.Line != 3 || fn.Metadata.Name != "run" {
		t.Errorf("Function metadata = %+v", fn.Metadata)
	}
}

func TestDocumentsFor_FailedRecord(t *testing.T) {
	rec := &parser.Record{Path: "bad.py", Err: "syntax error", RawText: "def broken(:"}
	if docs := DocumentsFor(rec, 0); docs != nil {
		t.Errorf("Failed record must produce no documents, got %v", docs)
	}
}

func TestFileDocument(t *testing.T) {
	text := FileDocument(sampleRecord())

	for _, want := range []string{
		"File: app/service.py",
		"import os",
		"from app.models import User as U",
		"class Service(Base)",
		"class Helper",
		"def run(job, n: int)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in summary:\n%s", want, text)
		}
	}
}

func TestFileDocument_Deterministic(t *testing.T) {
	a := FileDocument(sampleRecord())
	b := FileDocument(sampleRecord())
	if a != b {
		t.Error("Summaries of the same record must be byte-identical")
	}
}

func TestMockStore_QueryRanksOverlap(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	store.Upsert(ctx, "file:auth.py", "authentication login flow", Metadata{Type: "file"})
	store.Upsert(ctx, "file:math.py", "matrix multiplication", Metadata{Type: "file"})

	results, err := store.Query(ctx, "authentication login", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != "file:auth.py" {
		t.Errorf("Expected auth.py ranked first, got %s", results[0].ID)
	}
	if results[0].Score >= results[1].Score {
		t.Errorf("Expected lower distance first: %f vs %f", results[0].Score, results[1].Score)
	}
}
