package target

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/searchmesh/internal/config"
	"github.com/kailas-cloud/searchmesh/internal/domain"
)

func testDatabases() []config.Database {
	return []config.Database{
		{
			ID:  "docs",
			DSN: ":memory:",
			Tables: []config.Table{
				{Name: "articles", Columns: []string{"title", "content"}, TitleColumn: "title"},
			},
		},
		{
			ID:  "wiki",
			DSN: ":memory:",
			Tables: []config.Table{
				{Name: "pages", Columns: []string{"heading", "body"}, TitleColumn: "heading"},
			},
		},
	}
}

func testCallers() []config.Caller {
	return []config.Caller{
		{APIKey: "k1", ID: "acme", Tier: "pro", Databases: []string{"docs"}},
		{APIKey: "k2", ID: "globex", Tier: "free"},
	}
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(testDatabases(), testCallers(), nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestTargets_AllOwnedWhenEmpty(t *testing.T) {
	p := newTestProvider(t)

	targets, err := p.Targets("acme", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 || targets[0].ID() != "docs" {
		t.Errorf("targets = %v, want [docs]", targets)
	}
}

func TestTargets_EmptyGrantMeansEverything(t *testing.T) {
	p := newTestProvider(t)

	targets, err := p.Targets("globex", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 {
		t.Errorf("expected 2 targets, got %d", len(targets))
	}
}

func TestTargets_NotOwnedFailsNotFound(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.Targets("acme", []string{"wiki"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTargets_UnknownCaller(t *testing.T) {
	p := newTestProvider(t)

	if _, err := p.Targets("ghost", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestHandle(t *testing.T) {
	p := newTestProvider(t)

	if _, ok := p.Handle("docs"); !ok {
		t.Error("expected handle for docs")
	}
	if _, ok := p.Handle("ghost"); ok {
		t.Error("unexpected handle for ghost")
	}
}

func TestPing(t *testing.T) {
	p := newTestProvider(t)

	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
