package engine

import "regexp"

// Interaction is one function or method in a file that touches
// persistence-layer APIs
type Interaction struct {
	File     string `json:"file"`
	Function string `json:"function,omitempty"`
	Class    string `json:"class,omitempty"`
	Method   string `json:"method,omitempty"`
	Line     int    `json:"lineno"`
}

// Fixed persistence-call patterns. A file whose raw text matches any of
// these has all of its functions and methods reported; no per-line
// attribution is attempted.
var dbPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.execute\(`),
	regexp.MustCompile(`\.query\(`),
	regexp.MustCompile(`\.commit\(`),
	regexp.MustCompile(`\.rollback\(`),
	regexp.MustCompile(`\.cursor\(`),
	regexp.MustCompile(`\.connection`),
	regexp.MustCompile(`session\.add\(`),
	regexp.MustCompile(`session\.delete\(`),
	regexp.MustCompile(`session\.commit\(`),
	regexp.MustCompile(`db\.session`),
	regexp.MustCompile(`database`),
	regexp.MustCompile(`Database`),
	regexp.MustCompile(`SQLAlchemy`),
	regexp.MustCompile(`Model\.`),
	regexp.MustCompile(`models\.`),
}

// GetDatabaseInteractions lists every function and method declared in
// files whose source matches a persistence-call pattern
func (e *Engine) GetDatabaseInteractions() []Interaction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var interactions []Interaction

	for _, rec := range e.index.All() {
		if rec.Failed() || !matchesDBPattern(rec.RawText) {
			continue
		}

		for _, fn := range rec.Functions {
			interactions = append(interactions, Interaction{
				File:     rec.Path,
				Function: fn.Name,
				Line:     fn.Line,
			})
		}
		for _, cls := range rec.Classes {
			for _, method := range cls.Methods {
				interactions = append(interactions, Interaction{
					File:   rec.Path,
					Class:  cls.Name,
					Method: method.Name,
					Line:   method.Line,
				})
			}
		}
	}

	return interactions
}

func matchesDBPattern(content string) bool {
	for _, pattern := range dbPatterns {
		if pattern.MatchString(content) {
			return true
		}
	}
	return false
}
