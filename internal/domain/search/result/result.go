package result

import "fmt"

// Result is a single scored search hit. Immutable once constructed.
type Result struct {
	id             string
	database       string
	table          string
	score          float64
	matchedColumns []string
	data           map[string]any
	snippet        string
	categories     []string
}

// New creates a search result. The id is deterministic:
// databaseID_table_position, where position is the backend rank of the row.
func New(
	database, table string, position int,
	score float64, matchedColumns []string,
	data map[string]any, snippet string, categories []string,
) Result {
	return Result{
		id:             fmt.Sprintf("%s_%s_%d", database, table, position),
		database:       database,
		table:          table,
		score:          score,
		matchedColumns: matchedColumns,
		data:           data,
		snippet:        snippet,
		categories:     categories,
	}
}

// Reconstruct rebuilds a result from stored fields (cache deserialization).
func Reconstruct(
	id, database, table string,
	score float64, matchedColumns []string,
	data map[string]any, snippet string, categories []string,
) Result {
	return Result{
		id:             id,
		database:       database,
		table:          table,
		score:          score,
		matchedColumns: matchedColumns,
		data:           data,
		snippet:        snippet,
		categories:     categories,
	}
}

// ID returns the derived result identifier.
func (r *Result) ID() string { return r.id }

// Database returns the source database id.
func (r *Result) Database() string { return r.database }

// Table returns the source table name.
func (r *Result) Table() string { return r.table }

// Score returns the relevance score in [0,1].
func (r *Result) Score() float64 { return r.score }

// MatchedColumns returns the columns where query terms matched.
func (r *Result) MatchedColumns() []string { return r.matchedColumns }

// Data returns the original backend row.
func (r *Result) Data() map[string]any { return r.data }

// Snippet returns the highlighted excerpt.
func (r *Result) Snippet() string { return r.snippet }

// Categories returns the row's category values, if any.
func (r *Result) Categories() []string { return r.categories }
