package graph

import "strings"

// MapNode is one vertex in the serializable code map. Type is inferred
// from the identity shape.
type MapNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// MapLink is one edge in the serializable code map
type MapLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// CodeMap is a view of the whole graph suitable for external visualization
type CodeMap struct {
	Nodes []MapNode `json:"nodes"`
	Links []MapLink `json:"links"`
}

// BuildCodeMap renders the current graph as a code map in stable order
func (g *Graph) BuildCodeMap() *CodeMap {
	cm := &CodeMap{Nodes: []MapNode{}, Links: []MapLink{}}

	for _, id := range g.Nodes() {
		nodeType := "file"
		switch {
		case strings.Contains(id, ":class:"):
			nodeType = "class"
		case strings.Contains(id, ":function:"):
			nodeType = "function"
		}

		name := id
		if i := strings.LastIndex(id, ":"); i >= 0 {
			name = id[i+1:]
		}

		cm.Nodes = append(cm.Nodes, MapNode{ID: id, Type: nodeType, Name: name})
	}

	for _, e := range g.Edges() {
		cm.Links = append(cm.Links, MapLink{Source: e.Source, Target: e.Target, Type: string(e.Kind)})
	}

	return cm
}
