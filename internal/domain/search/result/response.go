package result

// CategoryCount is one entry of the aggregated category summary.
type CategoryCount struct {
	Name  string
	Count int
}

// Response is a complete search outcome, cached as one unit.
type Response struct {
	results         []Result
	totalCount      int
	executionTimeMs int64
	categories      []CategoryCount
	suggestions     []string
	cached          bool
}

// NewResponse creates a search response.
func NewResponse(
	results []Result, totalCount int, executionTimeMs int64,
	categories []CategoryCount, suggestions []string,
) Response {
	return Response{
		results:         results,
		totalCount:      totalCount,
		executionTimeMs: executionTimeMs,
		categories:      categories,
		suggestions:     suggestions,
	}
}

// Results returns the relevance-ordered page of results.
func (r *Response) Results() []Result { return r.results }

// TotalCount returns the pre-pagination row count across all databases.
func (r *Response) TotalCount() int { return r.totalCount }

// ExecutionTimeMs returns the orchestration wall time in milliseconds.
func (r *Response) ExecutionTimeMs() int64 { return r.executionTimeMs }

// Categories returns the aggregated category counts.
func (r *Response) Categories() []CategoryCount { return r.categories }

// Suggestions returns follow-up query term suggestions.
func (r *Response) Suggestions() []string { return r.suggestions }

// Cached reports whether the response was served from the cache.
func (r *Response) Cached() bool { return r.cached }

// WithCached returns a copy flagged as a cache hit with the given wall time.
func (r Response) WithCached(executionTimeMs int64) Response {
	r.cached = true
	r.executionTimeMs = executionTimeMs
	return r
}
