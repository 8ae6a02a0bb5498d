package row

// Row is a backend-returned record tagged with its source. Column values keep
// whatever shape the backend produced; the scorer iterates textual fields
// structurally. Rows are ephemeral and discarded after scoring.
type Row struct {
	Database string
	Table    string
	// Position is the backend rank of the row within its result set. It is
	// the deterministic tie-breaker when relevance scores are equal.
	Position int
	// TitleColumn is the source table's title-like column, if any.
	TitleColumn string
	Data        map[string]any
}

// Text returns the value of a column as a string, or "" when the column is
// missing or not textual.
func (r *Row) Text(column string) string {
	if s, ok := r.Data[column].(string); ok {
		return s
	}
	return ""
}

// TextColumns returns the names of all textual columns. Map iteration order
// is not deterministic; callers needing determinism must sort.
func (r *Row) TextColumns() []string {
	cols := make([]string, 0, len(r.Data))
	for k, v := range r.Data {
		if _, ok := v.(string); ok {
			cols = append(cols, k)
		}
	}
	return cols
}
