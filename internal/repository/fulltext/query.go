package fulltext

import (
	"strings"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	domtarget "github.com/kailas-cloud/searchmesh/internal/domain/target"
)

// buildMatchExpr assembles the FTS5 MATCH expression for one table.
// Returns "" when the column restriction leaves nothing searchable.
func buildMatchExpr(query string, table domtarget.Table, columns []string, m mode.Mode) string {
	cols := selectColumns(table, columns)
	if cols == nil {
		return ""
	}

	var expr string
	if m == mode.Boolean {
		expr = query
	} else {
		expr = naturalExpr(query)
	}
	if expr == "" {
		return ""
	}

	if len(cols) > 0 {
		return "{" + strings.Join(cols, " ") + "} : (" + expr + ")"
	}
	return expr
}

// naturalExpr turns free text into a ranked any-term FTS5 expression. Each
// term is quoted so user input can never be parsed as operator syntax.
func naturalExpr(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// selectColumns intersects indexed columns with the request restriction.
// Returns an empty non-nil slice for "no restriction" and nil when the
// restriction excludes every column of this table.
func selectColumns(table domtarget.Table, restriction []string) []string {
	if len(restriction) == 0 {
		return []string{}
	}
	indexed := make(map[string]struct{}, len(table.Columns()))
	for _, c := range table.Columns() {
		indexed[c] = struct{}{}
	}
	var out []string
	for _, c := range restriction {
		if _, ok := indexed[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
