package request

import (
	"strings"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 500
	DefaultLimit   = 20
	MaxLimit       = 100
	// MaxWindow bounds limit+offset to prevent unbounded backend scans.
	MaxWindow = 1000
)

// Request is a validated search request.
type Request struct {
	query      string
	databases  []string
	tables     []string
	columns    []string
	searchMode mode.Mode
	limit      int
	offset     int
	callerID   string
}

// New validates and normalizes search parameters.
// Defaults: mode=natural, limit=20, offset=0. An empty databases list means
// "all databases owned by the caller".
func New(
	query string,
	databases, tables, columns []string,
	m mode.Mode,
	limit, offset int,
	callerID string,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.NewValidation("query", "is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewValidation("query", "too long (max 500 chars)")
	}
	if m == "" {
		m = mode.Natural
	}
	if !m.IsValid() {
		return Request{}, domain.NewValidation("searchMode", "must be natural, boolean or semantic")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, domain.NewValidation("limit", "must be between 1 and 100")
	}
	if offset < 0 {
		return Request{}, domain.NewValidation("offset", "must be >= 0")
	}
	if limit+offset > MaxWindow {
		return Request{}, domain.NewValidation("offset", "limit+offset exceeds maximum window of 1000")
	}

	return Request{
		query:      query,
		databases:  dedupe(databases),
		tables:     dedupe(tables),
		columns:    dedupe(columns),
		searchMode: m,
		limit:      limit,
		offset:     offset,
		callerID:   callerID,
	}, nil
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// Databases returns the requested database ids (empty = all owned).
func (r *Request) Databases() []string { return r.databases }

// Tables returns the table restriction set (empty = all searchable tables).
func (r *Request) Tables() []string { return r.tables }

// Columns returns the column restriction set (empty = all indexed columns).
func (r *Request) Columns() []string { return r.columns }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Offset returns the pagination offset.
func (r *Request) Offset() int { return r.offset }

// CallerID returns the opaque caller identity used for scoping.
func (r *Request) CallerID() string { return r.callerID }

// FetchLimit returns how many rows to request from each backend: enough to
// cover the requested page after cross-database merging.
func (r *Request) FetchLimit() int { return r.limit + r.offset }

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
