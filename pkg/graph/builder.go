package graph

import (
	"strings"

	"github.com/lastwinnersllc/devgraph/pkg/parser"
)

// Rebuild recomputes the entire edge set from an index snapshot. It is
// deterministic: two runs over the same snapshot produce identical edges.
// Unresolvable imports and calls are dropped without error; when several
// files declare the same symbol, every declarer is linked, never just one.
func (g *Graph) Rebuild(records []*parser.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = make(map[Edge]struct{})

	// Name indexes avoid a per-call scan over every file; behaviour is
	// identical to the naive all-files search.
	paths := make([]string, 0, len(records))
	classDeclarers := make(map[string][]string)
	funcDeclarers := make(map[string][]string)
	for _, rec := range records {
		paths = append(paths, rec.Path)
		if rec.Failed() {
			continue
		}
		for _, cls := range rec.Classes {
			classDeclarers[cls.Name] = append(classDeclarers[cls.Name], rec.Path)
		}
		for _, fn := range rec.Functions {
			funcDeclarers[fn.Name] = append(funcDeclarers[fn.Name], rec.Path)
		}
	}

	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		source := FileNode(rec.Path)

		for _, imp := range rec.Imports {
			module := imp.Name
			if imp.Kind == parser.ImportFrom {
				module = imp.Module
			}
			for _, target := range g.resolveImport(module, paths) {
				if target == rec.Path {
					continue
				}
				g.edges[Edge{Source: source, Target: FileNode(target), Kind: EdgeImports}] = struct{}{}
			}
		}

		for _, call := range rec.Calls {
			if prefix, _, dotted := strings.Cut(call.Name, "."); dotted {
				// Dotted call: the prefix may name a class anywhere in
				// the project. Ambiguous names link every declarer.
				for _, target := range classDeclarers[prefix] {
					g.edges[Edge{Source: source, Target: ClassNode(target, prefix), Kind: EdgeCalls}] = struct{}{}
				}
			} else {
				for _, target := range funcDeclarers[call.Name] {
					g.edges[Edge{Source: source, Target: FuncNode(target, call.Name), Kind: EdgeCalls}] = struct{}{}
				}
			}
		}
	}
}

// resolveImport maps a dotted module name onto known file paths using two
// manglings: module.path -> module/path<ext> and module/path/__init__<ext>.
// A path matches when it ends with a candidate. Misses are silent; this is
// a heuristic, not a guarantee.
func (g *Graph) resolveImport(module string, paths []string) []string {
	if module == "" {
		return nil
	}
	modulePath := strings.ReplaceAll(module, ".", "/")
	candidates := []string{
		modulePath + g.sourceExt,
		modulePath + "/__init__" + g.sourceExt,
	}

	var matches []string
	for _, path := range paths {
		for _, candidate := range candidates {
			if strings.HasSuffix(path, candidate) {
				matches = append(matches, path)
				break
			}
		}
	}
	return matches
}
