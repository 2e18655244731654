package graph

import (
	"reflect"
	"testing"

	"github.com/lastwinnersllc/devgraph/pkg/parser"
)

// records builds a small three-file project:
// utils.py defines helper; a.py imports utils and calls helper;
// b.py imports a.
func testRecords() []*parser.Record {
	return []*parser.Record{
		{
			Path:      "utils.py",
			Functions: []parser.Function{{Name: "helper", Line: 1}},
		},
		{
			Path:    "a.py",
			Imports: []parser.Import{{Kind: parser.ImportFrom, Module: "utils", Name: "helper"}},
			Calls:   []parser.Call{{Name: "helper", Line: 3}},
			Classes: []parser.Class{{Name: "Runner", Line: 5}},
		},
		{
			Path:    "b.py",
			Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "a"}},
			Calls:   []parser.Call{{Name: "Runner.run", Line: 2}},
		},
	}
}

func buildGraph(t *testing.T, records []*parser.Record) *Graph {
	t.Helper()
	g := New("")
	for _, rec := range records {
		g.AddFile(rec)
	}
	g.Rebuild(records)
	return g
}

func TestRebuild_ImportEdges(t *testing.T) {
	g := buildGraph(t, testRecords())

	if got := g.Dependencies("a.py"); !reflect.DeepEqual(got, []string{"utils.py"}) {
		t.Errorf("Dependencies(a.py) = %v", got)
	}
	if got := g.Dependents("utils.py"); !reflect.DeepEqual(got, []string{"a.py"}) {
		t.Errorf("Dependents(utils.py) = %v", got)
	}
	if got := g.Dependents("a.py"); !reflect.DeepEqual(got, []string{"b.py"}) {
		t.Errorf("Dependents(a.py) = %v", got)
	}
}

func TestRebuild_CallEdges(t *testing.T) {
	g := buildGraph(t, testRecords())

	if got := g.CallersOf("helper"); !reflect.DeepEqual(got, []string{"a.py"}) {
		t.Errorf("CallersOf(helper) = %v", got)
	}

	// Dotted call resolves its prefix to a class node
	want := Edge{Source: FileNode("b.py"), Target: ClassNode("a.py", "Runner"), Kind: EdgeCalls}
	found := false
	for _, e := range g.Edges() {
		if e == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected edge %+v in %v", want, g.Edges())
	}
}

func TestRebuild_Deterministic(t *testing.T) {
	g := buildGraph(t, testRecords())
	first := g.Edges()
	g.Rebuild(testRecords())
	second := g.Edges()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Edge sets differ across rebuilds:\n%v\n%v", first, second)
	}
}

func TestRebuild_DuplicateEdgesCollapse(t *testing.T) {
	records := testRecords()
	// Two imports of the same module must yield one edge
	records[1].Imports = append(records[1].Imports,
		parser.Import{Kind: parser.ImportFrom, Module: "utils", Name: "other"})
	g := buildGraph(t, records)

	count := 0
	for _, e := range g.Edges() {
		if e.Kind == EdgeImports && e.Source == FileNode("a.py") && e.Target == FileNode("utils.py") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected one imports edge, got %d", count)
	}
}

func TestRebuild_AmbiguousSymbolLinksAllDeclarers(t *testing.T) {
	records := []*parser.Record{
		{Path: "x/util.py", Functions: []parser.Function{{Name: "run", Line: 1}}},
		{Path: "y/util.py", Functions: []parser.Function{{Name: "run", Line: 1}}},
		{Path: "main.py", Calls: []parser.Call{{Name: "run", Line: 1}}},
	}
	g := buildGraph(t, records)

	got := g.CallersOf("run")
	if !reflect.DeepEqual(got, []string{"main.py"}) {
		t.Errorf("CallersOf(run) = %v", got)
	}

	targets := make(map[string]bool)
	for _, e := range g.Edges() {
		if e.Kind == EdgeCalls && e.Source == FileNode("main.py") {
			targets[e.Target] = true
		}
	}
	if !targets[FuncNode("x/util.py", "run")] || !targets[FuncNode("y/util.py", "run")] {
		t.Errorf("Expected calls edges to every declarer, got %v", targets)
	}
}

func TestRebuild_PackageImportResolution(t *testing.T) {
	records := []*parser.Record{
		{Path: "pkg/__init__.py"},
		{
			Path:    "main.py",
			Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "pkg"}},
		},
	}
	g := buildGraph(t, records)

	if got := g.Dependencies("main.py"); !reflect.DeepEqual(got, []string{"pkg/__init__.py"}) {
		t.Errorf("Dependencies(main.py) = %v", got)
	}
}

func TestRebuild_UnresolvableImportDropped(t *testing.T) {
	records := []*parser.Record{
		{
			Path:    "main.py",
			Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "numpy"}},
		},
	}
	g := buildGraph(t, records)

	if g.EdgeCount() != 0 {
		t.Errorf("External import must produce no edges, got %v", g.Edges())
	}
}

func TestRebuild_FailedRecordContributesNothing(t *testing.T) {
	records := testRecords()
	records = append(records, &parser.Record{
		Path:    "bad.py",
		Err:     "syntax error",
		Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "utils"}},
	})
	g := buildGraph(t, records)

	if !g.HasNode(FileNode("bad.py")) {
		t.Error("Failed record must still own its file node")
	}
	for _, e := range g.Edges() {
		if e.Source == FileNode("bad.py") {
			t.Errorf("Failed record must emit no edges, got %+v", e)
		}
	}
}

func TestRemoveFile_DropsOwnedNodesAndEdges(t *testing.T) {
	records := testRecords()
	g := buildGraph(t, records)

	g.RemoveFile("a.py")

	for _, id := range g.Nodes() {
		if id == FileNode("a.py") || id == ClassNode("a.py", "Runner") {
			t.Errorf("Node %s must be gone", id)
		}
	}
	for _, e := range g.Edges() {
		if e.Source == FileNode("a.py") || e.Target == FileNode("a.py") {
			t.Errorf("Edge %+v must be gone", e)
		}
	}
}

func TestRemoveThenReaddRestoresEdges(t *testing.T) {
	records := testRecords()
	g := buildGraph(t, records)
	before := g.Edges()

	// Remove a file in the middle of the chain, then re-add the same
	// record; the edge set must come back byte-identical
	g.RemoveFile("a.py")
	without := make([]*parser.Record, 0, len(records)-1)
	for _, rec := range records {
		if rec.Path != "a.py" {
			without = append(without, rec)
		}
	}
	g.Rebuild(without)

	if reflect.DeepEqual(g.Edges(), before) {
		t.Fatal("Removal must change the edge set")
	}

	g.AddFile(records[1])
	g.Rebuild(records)

	if !reflect.DeepEqual(g.Edges(), before) {
		t.Errorf("Edge set not restored:\nbefore %v\nafter  %v", before, g.Edges())
	}
}

func TestImpact_Transitive(t *testing.T) {
	g := buildGraph(t, testRecords())

	set := g.Impact("utils.py")
	if !reflect.DeepEqual(set.Direct, []string{"a.py"}) {
		t.Errorf("Direct = %v", set.Direct)
	}
	want := []TransitiveDependent{{Path: "b.py", Via: "a.py"}}
	if !reflect.DeepEqual(set.Transitive, want) {
		t.Errorf("Transitive = %v, want %v", set.Transitive, want)
	}
}

func TestImpact_CycleTerminates(t *testing.T) {
	records := []*parser.Record{
		{Path: "a.py", Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "b"}}},
		{Path: "b.py", Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "a"}}},
		{Path: "c.py", Imports: []parser.Import{{Kind: parser.ImportDirect, Name: "a"}}},
	}
	g := buildGraph(t, records)

	set := g.Impact("b.py")
	if !reflect.DeepEqual(set.Direct, []string{"a.py"}) {
		t.Errorf("Direct = %v", set.Direct)
	}

	seen := make(map[string]int)
	for _, td := range set.Transitive {
		seen[td.Path]++
		if seen[td.Path] > 1 {
			t.Errorf("Path %s appears more than once in transitive set", td.Path)
		}
	}
	if seen["c.py"] != 1 {
		t.Errorf("Expected c.py reached transitively, got %v", set.Transitive)
	}
}

func TestImpact_UnknownFile(t *testing.T) {
	g := buildGraph(t, testRecords())
	set := g.Impact("ghost.py")
	if len(set.Direct) != 0 || len(set.Transitive) != 0 {
		t.Errorf("Unknown file must have empty impact, got %+v", set)
	}
}

func TestBuildCodeMap(t *testing.T) {
	g := buildGraph(t, testRecords())
	cm := g.BuildCodeMap()

	if len(cm.Nodes) != g.NodeCount() {
		t.Errorf("Expected %d map nodes, got %d", g.NodeCount(), len(cm.Nodes))
	}
	if len(cm.Links) != g.EdgeCount() {
		t.Errorf("Expected %d map links, got %d", g.EdgeCount(), len(cm.Links))
	}

	types := make(map[string]string)
	for _, n := range cm.Nodes {
		types[n.ID] = n.Type
	}
	if types[FileNode("utils.py")] != "file" {
		t.Errorf("Expected file type, got %s", types[FileNode("utils.py")])
	}
	if types[ClassNode("a.py", "Runner")] != "class" {
		t.Errorf("Expected class type, got %s", types[ClassNode("a.py", "Runner")])
	}
	if types[FuncNode("utils.py", "helper")] != "function" {
		t.Errorf("Expected function type, got %s", types[FuncNode("utils.py", "helper")])
	}
}
