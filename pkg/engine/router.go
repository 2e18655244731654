package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/lastwinnersllc/devgraph/pkg/vector"
)

// Query result types returned by ProcessQuery
const (
	QueryImpactAnalysis       = "impact_analysis"
	QueryDatabaseInteractions = "database_interactions"
	QueryFunctionCalls        = "function_calls"
	QuerySemanticSearch       = "semantic_search"
)

// QueryResult is the routed answer to a free-text query. Which fields are
// populated depends on Type.
type QueryResult struct {
	Type         string         `json:"type"`
	Query        string         `json:"query"`
	File         string         `json:"file,omitempty"`
	Impact       *ImpactResult  `json:"impact,omitempty"`
	Interactions []Interaction  `json:"functions,omitempty"`
	Function     string         `json:"function,omitempty"`
	Callers      []string       `json:"callers,omitempty"`
	Results      []vector.Entry `json:"results,omitempty"`
}

var (
	impactKeywords = regexp.MustCompile(`(?i)impact|affect|change`)
	dbKeywords     = regexp.MustCompile(`(?i)database|db|sql`)
	funcKeywords   = regexp.MustCompile(`(?i)function|call|method`)
	callTokenRe    = regexp.MustCompile(`(\w+)\(`)
)

// ProcessQuery classifies a free-text query by keyword matching and runs
// the corresponding lookup. The first matching classification wins;
// anything unmatched falls back to semantic search.
func (e *Engine) ProcessQuery(ctx context.Context, query string) *QueryResult {
	if impactKeywords.MatchString(query) {
		if token := e.fileTokenRe.FindString(query); token != "" {
			// A file token that matches nothing still yields an impact
			// result keyed by the token, with an empty closure
			file := e.resolveFileToken(token)
			return &QueryResult{
				Type:   QueryImpactAnalysis,
				Query:  query,
				File:   file,
				Impact: e.GetImpactAnalysis(file),
			}
		}
	}

	if dbKeywords.MatchString(query) {
		return &QueryResult{
			Type:         QueryDatabaseInteractions,
			Query:        query,
			Interactions: e.GetDatabaseInteractions(),
		}
	}

	if funcKeywords.MatchString(query) {
		if m := callTokenRe.FindStringSubmatch(query); m != nil {
			return &QueryResult{
				Type:     QueryFunctionCalls,
				Query:    query,
				Function: m[1],
				Callers:  e.GetCallersOf(m[1]),
			}
		}
	}

	return &QueryResult{
		Type:    QuerySemanticSearch,
		Query:   query,
		Results: e.SearchCode(ctx, query, 5),
	}
}

// resolveFileToken maps a bare file name from a query onto a known index
// path ending with it; unknown names are returned as-is
func (e *Engine) resolveFileToken(token string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rec := range e.index.All() {
		if strings.HasSuffix(rec.Path, token) {
			return rec.Path
		}
	}
	return token
}
