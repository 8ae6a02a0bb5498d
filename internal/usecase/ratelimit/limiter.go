package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/searchmesh/internal/domain/tier"
)

const shardCount = 64

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Tier       string
}

// Limiter is a sliding-window rate limiter keyed by credential identity.
// State is sharded by key; unrelated callers never contend on one lock.
// Each credential additionally carries a token bucket sized to its tier's
// burst allowance so short spikes are smoothed before the window fills.
type Limiter struct {
	shards [shardCount]shard
	// now is injectable for tests.
	now func() time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry is the per-credential window state. Mutated only under its own lock.
type entry struct {
	mu           sync.Mutex
	windowStart  time.Time
	count        int
	blockedUntil time.Time
	burst        *rate.Limiter
}

// New creates a limiter.
func New() *Limiter {
	l := &Limiter{now: time.Now}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]*entry)
	}
	return l
}

// Check admits or rejects one request for the credential under its tier.
// Safe for concurrent use: with a remaining quota of one, exactly one of two
// concurrent calls passes. A cold simultaneous burst admits at most the
// tier's burst size immediately; the rest of the window quota is released at
// the bucket's refill rate rather than all at once.
func (l *Limiter) Check(callerID string, t tier.Tier) Decision {
	e := l.entry(callerID, t)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.now()

	// Blocked state persists across window boundaries until it elapses.
	if now.Before(e.blockedUntil) {
		return Decision{
			Limit:      t.RequestsPerWindow(),
			ResetAt:    e.blockedUntil,
			RetryAfter: e.blockedUntil.Sub(now),
			Tier:       t.Name(),
		}
	}

	if now.Sub(e.windowStart) >= tier.Window {
		e.windowStart = now
		e.count = 0
	}

	e.count++
	resetAt := e.windowStart.Add(tier.Window)

	if e.count > t.RequestsPerWindow() {
		e.blockedUntil = now.Add(t.BlockDuration())
		return Decision{
			Limit:      t.RequestsPerWindow(),
			ResetAt:    e.blockedUntil,
			RetryAfter: t.BlockDuration(),
			Tier:       t.Name(),
		}
	}

	// Burst smoothing: a full window quota does not entitle the caller to
	// spend it all at once.
	if res := e.burst.ReserveN(now, 1); !res.OK() || res.DelayFrom(now) > 0 {
		if res.OK() {
			res.CancelAt(now)
		}
		e.count--
		retry := time.Second
		if res.OK() {
			retry = res.DelayFrom(now)
		}
		return Decision{
			Limit:      t.RequestsPerWindow(),
			Remaining:  t.RequestsPerWindow() - e.count,
			ResetAt:    resetAt,
			RetryAfter: retry,
			Tier:       t.Name(),
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     t.RequestsPerWindow(),
		Remaining: t.RequestsPerWindow() - e.count,
		ResetAt:   resetAt,
		Tier:      t.Name(),
	}
}

// entry returns the per-credential state, lazily created on first use.
func (l *Limiter) entry(callerID string, t tier.Tier) *entry {
	s := &l.shards[shardIndex(callerID)]

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[callerID]
	if !ok {
		perSecond := rate.Limit(float64(t.RequestsPerWindow()) / tier.Window.Seconds())
		e = &entry{
			windowStart: l.now(),
			burst:       rate.NewLimiter(perSecond, t.Burst()),
		}
		s.entries[callerID] = e
	}
	return e
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
