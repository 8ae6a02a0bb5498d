package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/row"
	"github.com/kailas-cloud/searchmesh/internal/domain/target"
	"github.com/kailas-cloud/searchmesh/internal/logger"
)

// Backend runs a full-text query against one database target.
type Backend interface {
	Search(ctx context.Context, t target.Target, query string, tables, columns []string, m mode.Mode, limit int) ([]row.Row, error)
}

// Executor fans a query out across database targets on a bounded worker
// pool. Each target gets its own deadline; a slow or failing target never
// takes down the others.
type Executor struct {
	backend       Backend
	pool          *ants.Pool
	targetTimeout time.Duration
}

// NewExecutor creates a fan-out executor. maxConcurrent bounds in-flight
// backend queries across all requests, not per request.
func NewExecutor(backend Backend, maxConcurrent int, targetTimeout time.Duration) (*Executor, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	pool, err := ants.NewPool(maxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Executor{backend: backend, pool: pool, targetTimeout: targetTimeout}, nil
}

// Close releases the worker pool.
func (e *Executor) Close() {
	e.pool.Release()
}

// Run queries every target concurrently and merges their rows. Per-target
// failures are logged and skipped; only when every target fails does Run
// return an error, wrapping domain.ErrBackendUnavailable. Cancellation of
// ctx is returned as the context's own error instead.
func (e *Executor) Run(
	ctx context.Context, targets []target.Target,
	query string, tables, columns []string,
	m mode.Mode, limit int,
) ([]row.Row, error) {
	log := logger.FromContext(ctx)

	var (
		mu     sync.Mutex
		rows   []row.Row
		failed int
		wg     sync.WaitGroup
	)

	for _, t := range targets {
		t := t
		wg.Add(1)
		submit := func() {
			defer wg.Done()

			tctx, cancel := context.WithTimeout(ctx, e.targetTimeout)
			defer cancel()

			got, err := e.backend.Search(tctx, t, query, tables, columns, m, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Warn("backend query failed",
					zap.String("database", t.ID()),
					zap.Error(err))
				return
			}
			rows = append(rows, got...)
		}
		if err := e.pool.Submit(submit); err != nil {
			// Pool released mid-flight; count the target as failed.
			wg.Done()
			mu.Lock()
			failed++
			mu.Unlock()
			log.Warn("backend query not scheduled",
				zap.String("database", t.ID()),
				zap.Error(err))
		}
	}
	wg.Wait()

	// A cancelled caller makes every target look failed; report the
	// cancellation itself so it stays distinguishable from a real outage.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(targets) > 0 && failed == len(targets) {
		return nil, fmt.Errorf("all %d targets failed: %w", failed, domain.ErrBackendUnavailable)
	}
	return rows, nil
}
