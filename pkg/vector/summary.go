package vector

import (
	"fmt"
	"strings"

	"github.com/lastwinnersllc/devgraph/pkg/graph"
	"github.com/lastwinnersllc/devgraph/pkg/parser"
)

// Document is one renderable unit of a record: the file summary plus one
// document per class and function
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// DocumentsFor renders a record into its vector documents. Failed records
// produce nothing: a file without structure has nothing to search on.
// updatedAt stamps every document with the same mutation time.
func DocumentsFor(rec *parser.Record, updatedAt int64) []Document {
	if rec.Failed() || rec.RawText == "" {
		return nil
	}

	docs := []Document{{
		ID:   graph.FileNode(rec.Path),
		Text: FileDocument(rec),
		Metadata: Metadata{
			Type:      "file",
			Path:      rec.Path,
			UpdatedAt: updatedAt,
		},
	}}

	for _, cls := range rec.Classes {
		text := cls.Doc
		if text == "" {
			text = fmt.Sprintf("Class %s in %s", cls.Name, rec.Path)
		}
		docs = append(docs, Document{
			ID:   graph.ClassNode(rec.Path, cls.Name),
			Text: text,
			Metadata: Metadata{
				Type:      "class",
				Path:      rec.Path,
				Name:      cls.Name,
				Line:      cls.Line,
				UpdatedAt: updatedAt,
			},
		})
	}

	for _, fn := range rec.Functions {
		text := fn.Doc
		if text == "" {
			text = fmt.Sprintf("Function %s in %s", fn.Name, rec.Path)
		}
		docs = append(docs, Document{
			ID:   graph.FuncNode(rec.Path, fn.Name),
			Text: text,
			Metadata: Metadata{
				Type:      "function",
				Path:      rec.Path,
				Name:      fn.Name,
				Line:      fn.Line,
				UpdatedAt: updatedAt,
			},
		})
	}

	return docs
}

// FileDocument renders the deterministic structural summary of a file:
// imports, classes and functions in declaration order, never raw source
func FileDocument(rec *parser.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", rec.Path)

	if len(rec.Imports) > 0 {
		b.WriteString("Imports:\n")
		for _, imp := range rec.Imports {
			if imp.Kind == parser.ImportDirect {
				fmt.Fprintf(&b, "  import %s", imp.Name)
			} else {
				fmt.Fprintf(&b, "  from %s import %s", imp.Module, imp.Name)
			}
			if imp.Alias != "" {
				fmt.Fprintf(&b, " as %s", imp.Alias)
			}
			b.WriteString("\n")
		}
	}

	if len(rec.Classes) > 0 {
		b.WriteString("Classes:\n")
		for _, cls := range rec.Classes {
			fmt.Fprintf(&b, "  class %s", cls.Name)
			if len(cls.Bases) > 0 {
				fmt.Fprintf(&b, "(%s)", strings.Join(cls.Bases, ", "))
			}
			b.WriteString("\n")
			if cls.Doc != "" {
				fmt.Fprintf(&b, "    %q\n", cls.Doc)
			}
		}
	}

	if len(rec.Functions) > 0 {
		b.WriteString("Functions:\n")
		for _, fn := range rec.Functions {
			params := make([]string, 0, len(fn.Params))
			for _, p := range fn.Params {
				if p.Type != "" {
					params = append(params, p.Name+": "+p.Type)
				} else {
					params = append(params, p.Name)
				}
			}
			fmt.Fprintf(&b, "  def %s(%s)\n", fn.Name, strings.Join(params, ", "))
			if fn.Doc != "" {
				fmt.Fprintf(&b, "    %q\n", fn.Doc)
			}
		}
	}

	return b.String()
}
