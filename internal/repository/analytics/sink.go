package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// recentEventsCap bounds the recent-event list length.
	recentEventsCap = 1000
	// counterTTL expires idle per-caller counters.
	counterTTL = 31 * 24 * time.Hour
)

// store is the consumer interface for analytics persistence (ISP).
type store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	LPush(ctx context.Context, key string, values ...[]byte) error
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Event is one recorded search execution.
type Event struct {
	ID              string `json:"id"`
	CallerID        string `json:"caller_id"`
	Query           string `json:"query"`
	Mode            string `json:"mode"`
	ResultCount     int    `json:"result_count"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	Cached          bool   `json:"cached"`
	RecordedAt      int64  `json:"recorded_at"`
}

// Sink persists search analytics. Recording is best-effort: failures are
// logged at debug level and never propagate to the response path.
type Sink struct {
	store     store
	keyPrefix string
	logger    *zap.Logger
}

// New creates an analytics sink.
func New(s store, keyPrefix string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: s, keyPrefix: keyPrefix, logger: logger}
}

// Record persists one search event: per-caller and per-mode counters plus a
// capped recent-event list.
func (s *Sink) Record(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt == 0 {
		e.RecordedAt = time.Now().UnixMilli()
	}

	callerKey := s.keyPrefix + "analytics:caller:" + e.CallerID
	if err := s.store.IncrBy(ctx, callerKey, 1); err != nil {
		s.logger.Debug("analytics caller counter failed", zap.Error(err))
	} else if err := s.store.Expire(ctx, callerKey, counterTTL, true); err != nil {
		s.logger.Debug("analytics caller expire failed", zap.Error(err))
	}

	if err := s.store.IncrBy(ctx, s.keyPrefix+"analytics:mode:"+e.Mode, 1); err != nil {
		s.logger.Debug("analytics mode counter failed", zap.Error(err))
	}

	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Debug("analytics marshal failed", zap.Error(err))
		return
	}

	recentKey := s.keyPrefix + "analytics:recent"
	if err := s.store.LPush(ctx, recentKey, data); err != nil {
		s.logger.Debug("analytics event push failed", zap.Error(err))
		return
	}
	if err := s.store.LTrim(ctx, recentKey, 0, recentEventsCap-1); err != nil {
		s.logger.Debug("analytics event trim failed", zap.Error(err))
	}
}
