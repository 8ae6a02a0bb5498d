package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/request"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/result"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/row"
	"github.com/kailas-cloud/searchmesh/internal/domain/target"
	"github.com/kailas-cloud/searchmesh/internal/logger"
	"github.com/kailas-cloud/searchmesh/internal/metrics"
	"github.com/kailas-cloud/searchmesh/internal/repository/analytics"
)

// minRewriteConfidence is the threshold below which an enhancer rewrite is
// discarded in favor of the caller's original query.
const minRewriteConfidence = 0.5

// analyticsTimeout bounds detached analytics recording.
const analyticsTimeout = 5 * time.Second

// TargetResolver resolves the database targets a caller may search.
type TargetResolver interface {
	Targets(callerID string, requested []string) ([]target.Target, error)
}

// Runner fans a query out across resolved targets.
type Runner interface {
	Run(ctx context.Context, targets []target.Target, query string, tables, columns []string, m mode.Mode, limit int) ([]row.Row, error)
}

// Enhancer rewrites a query for better recall, returning the rewrite and its
// confidence.
type Enhancer interface {
	Enhance(ctx context.Context, query string) (string, float64, error)
}

// Cache stores whole responses keyed by request fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (result.Response, bool)
	Set(ctx context.Context, fingerprint string, resp result.Response)
}

// Recorder persists search analytics.
type Recorder interface {
	Record(ctx context.Context, e analytics.Event)
}

// Service orchestrates one search: cache lookup, optional query enhancement,
// concurrent backend fan-out, scoring, aggregation, cache write-back, and
// fire-and-forget analytics.
type Service struct {
	targets         TargetResolver
	runner          Runner
	enhancer        Enhancer
	cache           Cache
	analytics       Recorder
	suggestionCount int
}

// NewService creates a search service. enhancer may be nil when semantic
// enhancement is disabled; semantic requests then run with the raw query.
func NewService(
	targets TargetResolver,
	runner Runner,
	enhancer Enhancer,
	cache Cache,
	rec Recorder,
) *Service {
	return &Service{
		targets:         targets,
		runner:          runner,
		enhancer:        enhancer,
		cache:           cache,
		analytics:       rec,
		suggestionCount: DefaultSuggestionCount,
	}
}

// WithSuggestionCount overrides how many refinement suggestions a response carries.
func (s *Service) WithSuggestionCount(n int) *Service {
	if n > 0 {
		s.suggestionCount = n
	}
	return s
}

// Search executes a validated request end to end.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	m := string(req.Mode())

	// Scope resolution precedes the cache lookup: the fingerprint is built
	// from the resolved target ids, so a caller can only ever hit a slot
	// for databases the resolver just granted them.
	targets, err := s.targets.Targets(req.CallerID(), req.Databases())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(m, "error").Inc()
		return result.Response{}, err
	}
	targetIDs := make([]string, len(targets))
	for i, t := range targets {
		targetIDs[i] = t.ID()
	}

	fingerprint := BuildKey(req, targetIDs)
	if resp, ok := s.cache.Get(ctx, fingerprint); ok {
		resp = resp.WithCached(time.Since(start).Milliseconds())
		s.recordDetached(ctx, req, &resp)
		metrics.SearchRequestsTotal.WithLabelValues(m, "success").Inc()
		metrics.SearchDuration.WithLabelValues(m).Observe(time.Since(start).Seconds())
		return resp, nil
	}

	query := s.effectiveQuery(ctx, req)

	rows, err := s.runner.Run(ctx, targets, query, req.Tables(), req.Columns(), req.Mode(), req.FetchLimit())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(m, "error").Inc()
		return result.Response{}, err
	}

	items := make([]scored, 0, len(rows))
	for _, r := range rows {
		items = append(items, scoreRow(r, query))
	}

	resp := aggregate(items, req, time.Since(start).Milliseconds(), s.suggestionCount)
	s.cache.Set(ctx, fingerprint, resp)
	s.recordDetached(ctx, req, &resp)

	log.Debug("search executed",
		zap.String("mode", m),
		zap.Int("targets", len(targets)),
		zap.Int("rows", len(rows)),
		zap.Int("total_count", resp.TotalCount()))

	metrics.SearchRequestsTotal.WithLabelValues(m, "success").Inc()
	metrics.SearchDuration.WithLabelValues(m).Observe(time.Since(start).Seconds())
	return resp, nil
}

// effectiveQuery returns the query the backends should run. Semantic requests
// go through the enhancer; any enhancement failure or low-confidence rewrite
// degrades to the caller's original query, never to an error.
func (s *Service) effectiveQuery(ctx context.Context, req *request.Request) string {
	if s.enhancer == nil || !req.Mode().UsesEnhancer() {
		return req.Query()
	}

	rewritten, confidence, err := s.enhancer.Enhance(ctx, req.Query())
	if err != nil {
		logger.FromContext(ctx).Warn("query enhancement degraded",
			zap.Error(err))
		return req.Query()
	}
	if confidence < minRewriteConfidence {
		return req.Query()
	}
	return rewritten
}

// recordDetached writes the analytics event on a detached context so a slow
// sink or a caller disconnect never delays or drops the response.
func (s *Service) recordDetached(ctx context.Context, req *request.Request, resp *result.Response) {
	if s.analytics == nil {
		return
	}

	e := analytics.Event{
		CallerID:        req.CallerID(),
		Query:           req.Query(),
		Mode:            string(req.Mode()),
		ResultCount:     resp.TotalCount(),
		ExecutionTimeMs: resp.ExecutionTimeMs(),
		Cached:          resp.Cached(),
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		rctx, cancel := context.WithTimeout(detached, analyticsTimeout)
		defer cancel()
		s.analytics.Record(rctx, e)
	}()
}
