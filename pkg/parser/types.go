package parser

// ImportKind distinguishes `import x` from `from x import y`
type ImportKind string

const (
	ImportDirect ImportKind = "import"
	ImportFrom   ImportKind = "from"
)

// Import is a single import binding in a source file
type Import struct {
	Kind   ImportKind
	Module string // module path for `from` imports, empty for direct imports
	Name   string // imported name (dotted module for direct imports)
	Alias  string // `as` alias, empty if none
}

// Param is one declared parameter of a function or method
type Param struct {
	Name string
	Type string // simple or dotted annotation, empty if absent or complex
}

// Function describes a function or method definition
type Function struct {
	Name   string
	Line   int
	Params []Param
	Doc    string
}

// Class describes a class definition with its methods
type Class struct {
	Name    string
	Line    int
	Bases   []string // base class names in full dotted form
	Methods []Function
	Doc     string
}

// Call is an outgoing call expression, either a bare identifier or a
// full dotted attribute path like obj.method
type Call struct {
	Name string
	Line int
}

// Record is the structural summary of one source file. Exactly one Record
// exists per known file path; a Record with Err set marks a file that is
// known but could not be parsed.
type Record struct {
	Path      string
	Imports   []Import
	Classes   []Class
	Functions []Function
	Calls     []Call
	RawText   string
	Err       string
}

// Failed reports whether this record marks a parse failure
func (r *Record) Failed() bool {
	return r.Err != ""
}
