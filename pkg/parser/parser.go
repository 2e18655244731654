package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Tree-sitter node types used during extraction. One switch over these
// drives the whole walk, so adding a construct means adding a case here.
const (
	nodeImport         = "import_statement"
	nodeImportFrom     = "import_from_statement"
	nodeDottedName     = "dotted_name"
	nodeAliasedImport  = "aliased_import"
	nodeWildcardImport = "wildcard_import"
	nodeClassDef       = "class_definition"
	nodeFunctionDef    = "function_definition" // covers async defs too
	nodeDecoratedDef   = "decorated_definition"
	nodeCall           = "call"
	nodeIdentifier     = "identifier"
	nodeAttribute      = "attribute"
	nodeBlock          = "block"
	nodeString         = "string"
	nodeExprStatement  = "expression_statement"
	nodeKeywordArg     = "keyword_argument"
	nodeTypedParam     = "typed_parameter"
	nodeDefaultParam   = "default_parameter"
	nodeTypedDefault   = "typed_default_parameter"
	nodeTypeAnnotation = "type"
)

// Parser turns Python source text into structural Records. Each Parse call
// creates its own tree-sitter parser, so a Parser is safe for concurrent use.
type Parser struct{}

// New creates a source parser
func New() *Parser {
	return &Parser{}
}

// ParseFile reads and parses root/relPath. Read and parse failures produce a
// Record with Err set rather than a Go error, so the caller can still index
// the file as known-but-broken.
func (p *Parser) ParseFile(ctx context.Context, root, relPath string) *Record {
	src, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return &Record{Path: relPath, Err: err.Error()}
	}
	return p.Parse(ctx, relPath, src)
}

// Parse parses source text into a Record keyed by path
func (p *Parser) Parse(ctx context.Context, path string, src []byte) *Record {
	rec := &Record{Path: path}

	if !utf8.Valid(src) {
		rec.Err = "content is not valid UTF-8"
		return rec
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		rec.Err = err.Error()
		return rec
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		rec.Err = "source contains syntax errors"
		return rec
	}

	rec.RawText = string(src)
	p.walk(root, src, rec)
	return rec
}

// walk visits every node once, extracting imports, definitions and calls
func (p *Parser) walk(n *sitter.Node, src []byte, rec *Record) {
	switch n.Type() {
	case nodeImport:
		rec.Imports = append(rec.Imports, extractDirectImports(n, src)...)
		return
	case nodeImportFrom:
		rec.Imports = append(rec.Imports, extractFromImports(n, src)...)
		return
	case nodeClassDef:
		rec.Classes = append(rec.Classes, extractClass(n, src))
	case nodeFunctionDef:
		// Methods are collected by their owning class; everything else,
		// including functions nested in other functions, counts as a
		// module function. Mirrors how the graph resolves bare calls.
		if !isMethodDef(n) {
			rec.Functions = append(rec.Functions, extractFunction(n, src))
		}
	case nodeCall:
		if name := callName(n, src); name != "" {
			rec.Calls = append(rec.Calls, Call{Name: name, Line: line(n)})
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		p.walk(n.Child(i), src, rec)
	}
}

// extractDirectImports handles `import a.b, c as d`
func extractDirectImports(n *sitter.Node, src []byte) []Import {
	var imports []Import
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case nodeDottedName:
			imports = append(imports, Import{Kind: ImportDirect, Name: child.Content(src)})
		case nodeAliasedImport:
			imp := Import{Kind: ImportDirect}
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Name = name.Content(src)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Alias = alias.Content(src)
			}
			imports = append(imports, imp)
		}
	}
	return imports
}

// extractFromImports handles `from a.b import c as d, e` and `from x import *`
func extractFromImports(n *sitter.Node, src []byte) []Import {
	module := ""
	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode != nil {
		module = moduleNode.Content(src)
	}

	var imports []Import
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Type() {
		case nodeDottedName, nodeIdentifier:
			imports = append(imports, Import{Kind: ImportFrom, Module: module, Name: child.Content(src)})
		case nodeAliasedImport:
			imp := Import{Kind: ImportFrom, Module: module}
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Name = name.Content(src)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Alias = alias.Content(src)
			}
			imports = append(imports, imp)
		case nodeWildcardImport:
			imports = append(imports, Import{Kind: ImportFrom, Module: module, Name: "*"})
		}
	}
	return imports
}

func extractClass(n *sitter.Node, src []byte) Class {
	cls := Class{Line: line(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		cls.Name = name.Content(src)
	}

	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			switch base.Type() {
			case nodeIdentifier:
				cls.Bases = append(cls.Bases, base.Content(src))
			case nodeAttribute:
				// Keep the full dotted form, not just the leaf
				cls.Bases = append(cls.Bases, base.Content(src))
			}
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		cls.Doc = docstring(body, src)
		for i := 0; i < int(body.NamedChildCount()); i++ {
			item := body.NamedChild(i)
			if item.Type() == nodeDecoratedDef {
				if def := item.ChildByFieldName("definition"); def != nil {
					item = def
				}
			}
			if item.Type() == nodeFunctionDef {
				cls.Methods = append(cls.Methods, extractFunction(item, src))
			}
		}
	}
	return cls
}

func extractFunction(n *sitter.Node, src []byte) Function {
	fn := Function{Line: line(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = name.Content(src)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Params = extractParams(params, src)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Doc = docstring(body, src)
	}
	return fn
}

// extractParams pulls name-first parameter info; splat and keyword-only
// markers are skipped
func extractParams(params *sitter.Node, src []byte) []Param {
	var out []Param
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case nodeIdentifier:
			out = append(out, Param{Name: child.Content(src)})
		case nodeTypedParam:
			p := Param{Type: annotationHint(child.ChildByFieldName("type"), src)}
			if child.NamedChildCount() > 0 && child.NamedChild(0).Type() == nodeIdentifier {
				p.Name = child.NamedChild(0).Content(src)
			}
			if p.Name != "" {
				out = append(out, p)
			}
		case nodeDefaultParam:
			if name := child.ChildByFieldName("name"); name != nil && name.Type() == nodeIdentifier {
				out = append(out, Param{Name: name.Content(src)})
			}
		case nodeTypedDefault:
			p := Param{Type: annotationHint(child.ChildByFieldName("type"), src)}
			if name := child.ChildByFieldName("name"); name != nil {
				p.Name = name.Content(src)
			}
			if p.Name != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// annotationHint captures a type annotation only when it is a simple
// identifier or dotted attribute; anything else is omitted
func annotationHint(t *sitter.Node, src []byte) string {
	if t == nil {
		return ""
	}
	inner := t
	if t.Type() == nodeTypeAnnotation && t.NamedChildCount() > 0 {
		inner = t.NamedChild(0)
	}
	switch inner.Type() {
	case nodeIdentifier, nodeAttribute:
		return inner.Content(src)
	}
	return ""
}

// callName resolves a call expression to a bare identifier or the full
// dotted attribute path. Calls through anything else (subscripts, call
// results) are dropped.
func callName(n *sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case nodeIdentifier:
		return fn.Content(src)
	case nodeAttribute:
		return dottedName(fn, src)
	}
	return ""
}

// dottedName rebuilds a.b.c from an attribute chain. A non-identifier base
// (e.g. f().g) contributes nothing, leaving just the attribute parts.
func dottedName(n *sitter.Node, src []byte) string {
	var parts []string
	for n != nil && n.Type() == nodeAttribute {
		attr := n.ChildByFieldName("attribute")
		if attr == nil {
			return ""
		}
		parts = append(parts, attr.Content(src))
		n = n.ChildByFieldName("object")
	}
	if n != nil && n.Type() == nodeIdentifier {
		parts = append(parts, n.Content(src))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// isMethodDef reports whether a function definition sits directly in a
// class body (possibly behind a decorator)
func isMethodDef(n *sitter.Node) bool {
	parent := n.Parent()
	if parent != nil && parent.Type() == nodeDecoratedDef {
		parent = parent.Parent()
	}
	if parent == nil || parent.Type() != nodeBlock {
		return false
	}
	grand := parent.Parent()
	return grand != nil && grand.Type() == nodeClassDef
}

// docstring returns the stripped docstring of a block, if its first
// statement is a bare string literal
func docstring(body *sitter.Node, src []byte) string {
	if body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != nodeExprStatement || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != nodeString {
		return ""
	}
	return stripQuotes(str.Content(src))
}

func stripQuotes(raw string) string {
	s := strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}
