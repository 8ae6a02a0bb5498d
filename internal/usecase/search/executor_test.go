package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/row"
	"github.com/kailas-cloud/searchmesh/internal/domain/target"
)

// mockBackend returns canned rows or errors per database id.
type mockBackend struct {
	mu    sync.Mutex
	rows  map[string][]row.Row
	errs  map[string]error
	delay map[string]time.Duration
	calls []string
}

func (m *mockBackend) Search(
	ctx context.Context, t target.Target,
	_ string, _, _ []string, _ mode.Mode, _ int,
) ([]row.Row, error) {
	m.mu.Lock()
	m.calls = append(m.calls, t.ID())
	delay := m.delay[t.ID()]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.errs[t.ID()]; err != nil {
		return nil, err
	}
	return m.rows[t.ID()], nil
}

func newTargets(ids ...string) []target.Target {
	out := make([]target.Target, 0, len(ids))
	for _, id := range ids {
		out = append(out, target.New(id, []target.Table{
			target.NewTable("articles", []string{"title", "content"}, "title"),
		}))
	}
	return out
}

func runExecutor(t *testing.T, backend Backend, targets []target.Target) ([]row.Row, error) {
	t.Helper()
	e, err := NewExecutor(backend, 4, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e.Run(context.Background(), targets, "mysql", nil, nil, mode.Natural, 20)
}

func TestExecutor_MergesAllTargets(t *testing.T) {
	backend := &mockBackend{rows: map[string][]row.Row{
		"docs": {{Database: "docs", Table: "articles", Position: 0}},
		"wiki": {{Database: "wiki", Table: "articles", Position: 0}, {Database: "wiki", Table: "articles", Position: 1}},
	}}

	rows, err := runExecutor(t, backend, newTargets("docs", "wiki"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}
	if len(backend.calls) != 2 {
		t.Errorf("calls = %v, want both targets queried", backend.calls)
	}
}

func TestExecutor_FailingTargetIsolated(t *testing.T) {
	backend := &mockBackend{
		rows: map[string][]row.Row{
			"docs": {{Database: "docs", Table: "articles", Position: 0}},
		},
		errs: map[string]error{"wiki": errors.New("connection refused")},
	}

	rows, err := runExecutor(t, backend, newTargets("docs", "wiki"))
	if err != nil {
		t.Fatalf("Run failed despite a healthy target: %v", err)
	}
	if len(rows) != 1 || rows[0].Database != "docs" {
		t.Errorf("rows = %v, want only the healthy target's rows", rows)
	}
}

func TestExecutor_SlowTargetTimesOut(t *testing.T) {
	backend := &mockBackend{
		rows: map[string][]row.Row{
			"docs": {{Database: "docs", Table: "articles", Position: 0}},
		},
		delay: map[string]time.Duration{"wiki": 5 * time.Second},
	}

	start := time.Now()
	rows, err := runExecutor(t, backend, newTargets("docs", "wiki"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Run took %v, slow target not bounded by its timeout", elapsed)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want only the fast target's rows", len(rows))
	}
}

func TestExecutor_AllTargetsFailed(t *testing.T) {
	backend := &mockBackend{errs: map[string]error{
		"docs": errors.New("down"),
		"wiki": errors.New("down"),
	}}

	_, err := runExecutor(t, backend, newTargets("docs", "wiki"))
	if err == nil {
		t.Fatal("expected error when every target fails")
	}
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestExecutor_CallerCancellation(t *testing.T) {
	backend := &mockBackend{delay: map[string]time.Duration{
		"docs": 5 * time.Second,
		"wiki": 5 * time.Second,
	}}

	e, err := NewExecutor(backend, 4, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = e.Run(ctx, newTargets("docs", "wiki"), "mysql", nil, nil, mode.Natural, 20)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		t.Error("cancellation reported as a backend outage")
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation did not stop in-flight queries promptly")
	}
}
