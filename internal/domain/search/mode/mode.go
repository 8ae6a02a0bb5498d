package mode

// Mode is the full-text search strategy.
type Mode string

// Search mode constants.
const (
	// Natural uses the backend's ranked natural-language matching.
	Natural Mode = "natural"
	// Boolean passes operator syntax (AND/OR/NOT/"phrase"/wildcard*) through
	// to the backend untouched. Boolean queries skip the query enhancer.
	Boolean Mode = "boolean"
	// Semantic rewrites the query through the enhancement service first.
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Natural || m == Boolean || m == Semantic
}

// UsesEnhancer reports whether the mode submits the query for semantic rewrite.
func (m Mode) UsesEnhancer() bool {
	return m == Semantic
}
