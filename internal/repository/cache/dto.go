package cache

import "github.com/kailas-cloud/searchmesh/internal/domain/search/result"

// resultRow is the JSON-serializable representation of one search hit.
type resultRow struct {
	ID             string         `json:"id"`
	Database       string         `json:"database"`
	Table          string         `json:"table"`
	Score          float64        `json:"score"`
	MatchedColumns []string       `json:"matched_columns,omitempty"`
	Data           map[string]any `json:"data"`
	Snippet        string         `json:"snippet,omitempty"`
	Categories     []string       `json:"categories,omitempty"`
}

// categoryRow is the JSON-serializable category summary entry.
type categoryRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// responseRow is the JSON-serializable representation of a cached response.
type responseRow struct {
	Results         []resultRow   `json:"results"`
	TotalCount      int           `json:"total_count"`
	ExecutionTimeMs int64         `json:"execution_time_ms"`
	Categories      []categoryRow `json:"categories,omitempty"`
	Suggestions     []string      `json:"suggestions,omitempty"`
}

func responseFromDomain(resp result.Response) responseRow {
	rows := make([]resultRow, len(resp.Results()))
	for i := range resp.Results() {
		r := &resp.Results()[i]
		rows[i] = resultRow{
			ID:             r.ID(),
			Database:       r.Database(),
			Table:          r.Table(),
			Score:          r.Score(),
			MatchedColumns: r.MatchedColumns(),
			Data:           r.Data(),
			Snippet:        r.Snippet(),
			Categories:     r.Categories(),
		}
	}

	cats := make([]categoryRow, len(resp.Categories()))
	for i, c := range resp.Categories() {
		cats[i] = categoryRow{Name: c.Name, Count: c.Count}
	}

	return responseRow{
		Results:         rows,
		TotalCount:      resp.TotalCount(),
		ExecutionTimeMs: resp.ExecutionTimeMs(),
		Categories:      cats,
		Suggestions:     resp.Suggestions(),
	}
}

func (row responseRow) toDomain() result.Response {
	results := make([]result.Result, len(row.Results))
	for i, r := range row.Results {
		results[i] = result.Reconstruct(
			r.ID, r.Database, r.Table,
			r.Score, r.MatchedColumns,
			r.Data, r.Snippet, r.Categories,
		)
	}

	cats := make([]result.CategoryCount, len(row.Categories))
	for i, c := range row.Categories {
		cats[i] = result.CategoryCount{Name: c.Name, Count: c.Count}
	}

	return result.NewResponse(results, row.TotalCount, row.ExecutionTimeMs, cats, row.Suggestions)
}
