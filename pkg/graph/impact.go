package graph

// TransitiveDependent is a file reached through the imported-by closure,
// along with the intermediate file it was reached through
type TransitiveDependent struct {
	Path string `json:"source"`
	Via  string `json:"via"`
}

// ImpactSet holds the imported-by closure of one file
type ImpactSet struct {
	Direct     []string              `json:"direct_dependents"`
	Transitive []TransitiveDependent `json:"transitive_dependents"`
}

// Impact computes direct dependents plus the transitive imported-by
// closure starting from each direct dependent. Import graphs may contain
// cycles, so a visited set keyed by path guarantees each file appears in
// the transitive list at most once.
func (g *Graph) Impact(path string) ImpactSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	direct := g.dependentsLocked(path)
	set := ImpactSet{Direct: direct}

	visited := map[string]bool{path: true}
	var visit func(p string)
	visit = func(p string) {
		for _, dep := range g.dependentsLocked(p) {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			set.Transitive = append(set.Transitive, TransitiveDependent{Path: dep, Via: p})
			visit(dep)
		}
	}
	for _, dep := range direct {
		visit(dep)
	}

	return set
}
