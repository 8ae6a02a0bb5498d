package fulltext

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/row"
	domtarget "github.com/kailas-cloud/searchmesh/internal/domain/target"
	"github.com/kailas-cloud/searchmesh/internal/metrics"
)

// HandleResolver resolves a database id to its connection pool. The provider
// owns connection lifecycle.
type HandleResolver interface {
	Handle(id string) (*sql.DB, bool)
}

// Repo executes full-text queries against SQLite FTS5 virtual tables.
type Repo struct {
	handles HandleResolver
}

// New creates a full-text query repository.
func New(handles HandleResolver) *Repo {
	return &Repo{handles: handles}
}

// Search runs the full-text query against every searchable table of one
// target and returns source-tagged rows in backend rank order.
// Boolean-mode queries are passed to FTS5 untouched so operator syntax
// (AND/OR/NOT/"phrase"/wildcard*) keeps its native meaning.
func (r *Repo) Search(
	ctx context.Context, t domtarget.Target,
	query string, tables, columns []string,
	m mode.Mode, limit int,
) ([]row.Row, error) {
	handle, ok := r.handles.Handle(t.ID())
	if !ok {
		return nil, fmt.Errorf("no connection for database %s", t.ID())
	}

	start := time.Now()
	rows, err := r.searchTables(ctx, handle, t, query, tables, columns, m, limit)
	metrics.BackendQueryDuration.WithLabelValues(t.ID()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BackendQueriesTotal.WithLabelValues(t.ID(), "error").Inc()
		return nil, err
	}
	metrics.BackendQueriesTotal.WithLabelValues(t.ID(), "success").Inc()
	return rows, nil
}

func (r *Repo) searchTables(
	ctx context.Context, handle *sql.DB, t domtarget.Target,
	query string, tables, columns []string,
	m mode.Mode, limit int,
) ([]row.Row, error) {
	var out []row.Row

	for _, table := range selectTables(t, tables) {
		match := buildMatchExpr(query, table, columns, m)
		if match == "" {
			continue
		}

		tableRows, err := r.searchTable(ctx, handle, t.ID(), table, match, limit)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table.Name(), err)
		}
		out = append(out, tableRows...)
	}

	return out, nil
}

func (r *Repo) searchTable(
	ctx context.Context, handle *sql.DB, databaseID string,
	table domtarget.Table, match string, limit int,
) ([]row.Row, error) {
	q := fmt.Sprintf(
		`SELECT rowid, * FROM %q WHERE %q MATCH ? ORDER BY rank LIMIT ?`,
		table.Name(), table.Name(),
	)

	rows, err := handle.QueryContext(ctx, q, match, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("result columns: %w", err)
	}

	var out []row.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		data := make(map[string]any, len(cols))
		for i, col := range cols {
			data[col] = normalizeValue(values[i])
		}

		out = append(out, row.Row{
			Database:    databaseID,
			Table:       table.Name(),
			Position:    len(out),
			TitleColumn: table.TitleColumn(),
			Data:        data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// selectTables intersects the target's searchable tables with the request's
// table restriction set.
func selectTables(t domtarget.Target, restriction []string) []domtarget.Table {
	if len(restriction) == 0 {
		return t.Tables()
	}
	var out []domtarget.Table
	for _, name := range restriction {
		if table, ok := t.Table(name); ok {
			out = append(out, table)
		}
	}
	return out
}

// normalizeValue converts driver byte slices to strings so the scorer can
// treat them as textual columns.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
