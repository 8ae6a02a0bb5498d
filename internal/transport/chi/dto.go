package chi

import (
	"github.com/kailas-cloud/searchmesh/internal/domain/search/result"
)

// Wire types of the public JSON API.

type searchRequestBody struct {
	Query      string   `json:"query"`
	Databases  []string `json:"databases,omitempty"`
	Tables     []string `json:"tables,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	SearchMode string   `json:"searchMode,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

type searchResultItem struct {
	ID             string         `json:"id"`
	Database       string         `json:"database"`
	Table          string         `json:"table"`
	RelevanceScore float64        `json:"relevanceScore"`
	MatchedColumns []string       `json:"matchedColumns,omitempty"`
	Data           map[string]any `json:"data"`
	Snippet        string         `json:"snippet,omitempty"`
	Categories     []string       `json:"categories,omitempty"`
}

type categoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type searchResponseBody struct {
	Results       []searchResultItem `json:"results"`
	TotalCount    int                `json:"totalCount"`
	ExecutionTime int64              `json:"executionTime"`
	Categories    []categoryCount    `json:"categories"`
	Suggestions   []string           `json:"suggestions,omitempty"`
	Cached        bool               `json:"cached"`
}

type healthResponseBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorCode is a machine-readable error class.
type errorCode string

const (
	codeBadRequest         errorCode = "BAD_REQUEST"
	codeValidation         errorCode = "VALIDATION_ERROR"
	codeUnauthorized       errorCode = "UNAUTHORIZED"
	codeNotFound           errorCode = "DATABASE_NOT_FOUND"
	codeRateLimited        errorCode = "RATE_LIMIT_EXCEEDED"
	codeBackendUnavailable errorCode = "BACKEND_UNAVAILABLE"
	codeInternal           errorCode = "INTERNAL_ERROR"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

type rateLimitDetails struct {
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
	ResetTime  int64  `json:"resetTime"`
	RetryAfter int    `json:"retryAfter"`
	Tier       string `json:"tier"`
}

type validationDetails struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func responseToWire(resp *result.Response) searchResponseBody {
	items := make([]searchResultItem, len(resp.Results()))
	for i, r := range resp.Results() {
		items[i] = searchResultItem{
			ID:             r.ID(),
			Database:       r.Database(),
			Table:          r.Table(),
			RelevanceScore: r.Score(),
			MatchedColumns: r.MatchedColumns(),
			Data:           r.Data(),
			Snippet:        r.Snippet(),
			Categories:     r.Categories(),
		}
	}

	cats := make([]categoryCount, len(resp.Categories()))
	for i, c := range resp.Categories() {
		cats[i] = categoryCount{Name: c.Name, Count: c.Count}
	}

	return searchResponseBody{
		Results:       items,
		TotalCount:    resp.TotalCount(),
		ExecutionTime: resp.ExecutionTimeMs(),
		Categories:    cats,
		Suggestions:   resp.Suggestions(),
		Cached:        resp.Cached(),
	}
}
