package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/row"
)

const (
	// phraseBonus rewards the whole query appearing contiguously.
	phraseBonus = 0.3
	// titleMultiplier boosts rows whose title column matched.
	titleMultiplier = 1.5
	// floorScore is assigned when the backend matched a row but no query
	// term is visible in its textual columns (stemming, tokenizer quirks).
	floorScore = 0.1
	// snippetLength is the target size of the extracted fragment.
	snippetLength = 200
	// categoryColumn is the conventional column feeding the category summary.
	categoryColumn = "category"
)

// scored pairs a relevance-scored row with the fields the aggregator needs.
type scored struct {
	row            row.Row
	score          float64
	matchedColumns []string
	snippet        string
	categories     []string
}

// scoreRow computes the relevance score of one backend row against the query.
//
// The base score is term coverage: the fraction of query terms visible
// anywhere in the row's textual columns. A contiguous occurrence of the whole
// query adds phraseBonus, and a match in the title column multiplies the
// total. The result is clamped to [0, 1]; rows the backend matched but the
// scorer cannot see a term in get floorScore so they are never dropped.
func scoreRow(r row.Row, query string) scored {
	terms := queryTerms(query)
	phrase := strings.ToLower(strings.TrimSpace(query))

	coverage := make(map[string]bool, len(terms))
	var matched []string
	titleHit := false
	phraseHit := false

	cols := r.TextColumns()
	sort.Strings(cols)
	for _, col := range cols {
		text := strings.ToLower(r.Text(col))
		colHit := false
		for _, term := range terms {
			if strings.Contains(text, term) {
				coverage[term] = true
				colHit = true
			}
		}
		if colHit {
			matched = append(matched, col)
			if col == r.TitleColumn {
				titleHit = true
			}
		}
		if phrase != "" && strings.Contains(text, phrase) {
			phraseHit = true
		}
	}

	score := floorScore
	if len(terms) > 0 && len(coverage) > 0 {
		score = float64(len(coverage)) / float64(len(terms))
		if phraseHit {
			score += phraseBonus
		}
		if titleHit {
			score *= titleMultiplier
		}
		if score > 1 {
			score = 1
		}
	}

	return scored{
		row:            r,
		score:          score,
		matchedColumns: matched,
		snippet:        extractSnippet(r, terms),
		categories:     rowCategories(r),
	}
}

// queryTerms splits a query into lowercase match terms. Full-text operator
// tokens and quoting are stripped so boolean queries score on their operands.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"()*`)
		switch f {
		case "", "and", "or", "not", "near":
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// extractSnippet returns a fragment of roughly snippetLength characters
// centered on the first term occurrence. The snippet is taken from the
// longest textual column containing a term; when no term is visible it falls
// back to the head of the longest textual column.
func extractSnippet(r row.Row, terms []string) string {
	cols := r.TextColumns()
	sort.Strings(cols)

	bestCol, bestHit := "", -1
	longestCol := ""
	for _, col := range cols {
		text := r.Text(col)
		if len(text) > len(r.Text(longestCol)) || longestCol == "" {
			longestCol = col
		}
		lower := strings.ToLower(text)
		for _, term := range terms {
			if idx := strings.Index(lower, term); idx >= 0 {
				if bestCol == "" || len(text) > len(r.Text(bestCol)) {
					bestCol, bestHit = col, idx
				}
				break
			}
		}
	}

	if bestCol == "" {
		if longestCol == "" {
			return ""
		}
		return clip(r.Text(longestCol), 0, false)
	}
	return clip(r.Text(bestCol), bestHit, true)
}

// clip cuts a snippetLength window out of text around hit, expanding toward
// the start when the hit sits near the end. Ellipses mark trimmed edges.
func clip(text string, hit int, centered bool) string {
	if len(text) <= snippetLength {
		return text
	}

	start := 0
	if centered {
		start = hit - snippetLength/2
	}
	if start < 0 {
		start = 0
	}
	end := start + snippetLength
	if end > len(text) {
		end = len(text)
		start = end - snippetLength
	}

	// Never cut a multi-byte rune at a window edge.
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	// Snap to word boundaries so the fragment reads cleanly.
	if start > 0 {
		if sp := strings.IndexByte(text[start:end], ' '); sp >= 0 && sp < snippetLength/4 {
			start += sp + 1
		}
	}
	if end < len(text) {
		if sp := strings.LastIndexByte(text[start:end], ' '); sp > snippetLength*3/4 {
			end = start + sp
		}
	}

	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

// rowCategories extracts the category tags of a row, if the source table
// carries a category column.
func rowCategories(r row.Row) []string {
	c := strings.TrimSpace(r.Text(categoryColumn))
	if c == "" {
		return nil
	}
	return []string{c}
}
