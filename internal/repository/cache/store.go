package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/db"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/result"
)

// store is the consumer interface for response caching (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store caches whole search responses keyed by request fingerprint.
// Every failure degrades to a miss: the cache must never block a search.
type Store struct {
	store      store
	ttl        time.Duration
	keyPrefix  string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a response cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(
	s store,
	ttl time.Duration,
	keyPrefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		store:      s,
		ttl:        ttl,
		keyPrefix:  keyPrefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the cached response for a fingerprint, if present and decodable.
func (s *Store) Get(ctx context.Context, fingerprint string) (result.Response, bool) {
	data, err := s.store.Get(ctx, s.keyPrefix+fingerprint)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			s.incCache("miss")
			return result.Response{}, false
		}
		// Store error degrades to a miss.
		s.incCache("error")
		s.logger.Warn("cache get failed", zap.Error(err))
		return result.Response{}, false
	}

	var row responseRow
	if err := json.Unmarshal(data, &row); err != nil {
		s.incCache("error")
		s.logger.Warn("cache entry corrupt", zap.Error(err))
		return result.Response{}, false
	}

	s.incCache("hit")
	return row.toDomain(), true
}

// Set stores a response under the fingerprint with the configured TTL.
// Errors are logged and swallowed.
func (s *Store) Set(ctx context.Context, fingerprint string, resp result.Response) {
	data, err := json.Marshal(responseFromDomain(resp))
	if err != nil {
		s.logger.Warn("cache marshal failed", zap.Error(err))
		return
	}

	if err := s.store.SetWithTTL(ctx, s.keyPrefix+fingerprint, data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", zap.Error(err))
	}
}

func (s *Store) incCache(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(result).Inc()
	}
}
