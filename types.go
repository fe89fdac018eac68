package quarry

import (
	"time"
)

// Event is the payload published on mutations and streamed to
// SSE/WebSocket subscribers.
type Event struct {
	Kind      string    `json:"kind"`   // datasource, pattern, field, ...
	Action    string    `json:"action"` // created, updated, deleted, status
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanFinding is one pattern hit produced by a sensitive-data scan.
type ScanFinding struct {
	PatternID   string   `json:"patternID"`
	PatternName string   `json:"patternName"`
	Category    string   `json:"category"`
	Sensitivity string   `json:"sensitivity"`
	MatchCount  int      `json:"matchCount"`
	Samples     []string `json:"samples,omitempty"`
}

// TableNode is a table reached during relationship discovery.
type TableNode struct {
	Table   string   `json:"table"`
	Depth   int      `json:"depth"`
	Columns []string `json:"columns,omitempty"`
}

// TableEdge is a foreign-key edge between two discovered tables.
type TableEdge struct {
	FromTable  string `json:"fromTable"`
	FromColumn string `json:"fromColumn"`
	ToTable    string `json:"toTable"`
	ToColumn   string `json:"toColumn"`
}

// RelationshipGraph is the result of walking foreign keys from a root table.
type RelationshipGraph struct {
	Root     string      `json:"root"`
	MaxDepth int         `json:"maxDepth"`
	Nodes    []TableNode `json:"nodes"`
	Edges    []TableEdge `json:"edges"`
}

// ContextMatch is one metadata entity matched by a natural-language query.
type ContextMatch struct {
	Kind    string  `json:"kind"` // datasource, field, pattern
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Matched string  `json:"matched,omitempty"` // the attribute that matched
}

// QueryAnswer is the response to a metadata query: a short summary plus
// the ranked matches backing it.
type QueryAnswer struct {
	Query   string         `json:"query"`
	Summary string         `json:"summary"`
	Matches []ContextMatch `json:"matches"`
	Cached  bool           `json:"cached"`
}

// MappingSuggestion proposes a canonical name for a catalog field.
type MappingSuggestion struct {
	FieldID       string  `json:"fieldID"`
	FieldName     string  `json:"fieldName"`
	CanonicalName string  `json:"canonicalName"`
	Confidence    float64 `json:"confidence"`
	Source        string  `json:"source"` // heuristic, ai
}
