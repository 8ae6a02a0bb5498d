package search

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/request"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/result"
)

// DefaultSuggestionCount caps refinement suggestions unless configured otherwise.
const DefaultSuggestionCount = 5

// aggregate merges scored rows from every backend into one ordered, paginated
// response. Ordering is total and deterministic: score descending, then
// backend rank ascending, then database id. Reruns of the same merge always
// produce the same page.
func aggregate(items []scored, req *request.Request, executionTimeMs int64, suggestionCount int) result.Response {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		if items[i].row.Position != items[j].row.Position {
			return items[i].row.Position < items[j].row.Position
		}
		return items[i].row.Database < items[j].row.Database
	})

	totalCount := len(items)
	categories := categorySummary(items)
	suggestions := suggestTerms(items, req.Query(), suggestionCount)

	page := paginate(items, req.Offset(), req.Limit())
	results := make([]result.Result, 0, len(page))
	for _, it := range page {
		results = append(results, result.New(
			it.row.Database, it.row.Table, it.row.Position,
			it.score, it.matchedColumns, it.row.Data, it.snippet, it.categories,
		))
	}

	return result.NewResponse(results, totalCount, executionTimeMs, categories, suggestions)
}

func paginate(items []scored, offset, limit int) []scored {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// categorySummary counts category tags over the full result set, before
// pagination, so the summary describes everything that matched.
func categorySummary(items []scored) []result.CategoryCount {
	counts := make(map[string]int)
	for _, it := range items {
		for _, c := range it.categories {
			counts[c]++
		}
	}

	out := make([]result.CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, result.CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// suggestTerms proposes refinement terms: frequent words from matched title
// and category fields that the caller has not already searched for.
func suggestTerms(items []scored, query string, limit int) []string {
	queryWords := make(map[string]bool)
	for _, t := range queryTerms(query) {
		queryWords[t] = true
	}

	counts := make(map[string]int)
	for _, it := range items {
		sources := it.categories
		if it.row.TitleColumn != "" {
			sources = append(sources, it.row.Text(it.row.TitleColumn))
		}
		for _, src := range sources {
			for _, w := range strings.Fields(strings.ToLower(src)) {
				w = strings.Trim(w, `.,:;!?"'()`)
				if len(w) < 3 || queryWords[w] {
					continue
				}
				counts[w]++
			}
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
