package search

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/request"
)

func mustRequest(t *testing.T, query string, databases, tables, columns []string, m mode.Mode, limit, offset int) *request.Request {
	t.Helper()
	req, err := request.New(query, databases, tables, columns, m, limit, offset, "caller")
	if err != nil {
		t.Fatalf("request.New failed: %v", err)
	}
	return &req
}

func TestBuildKey_OrderInsensitive(t *testing.T) {
	a := mustRequest(t, "mysql performance",
		[]string{"docs", "wiki"}, []string{"articles", "posts"}, []string{"title", "content"},
		mode.Natural, 20, 0)
	b := mustRequest(t, "mysql performance",
		[]string{"wiki", "docs"}, []string{"posts", "articles"}, []string{"content", "title"},
		mode.Natural, 20, 0)

	if BuildKey(a, []string{"docs", "wiki"}) != BuildKey(b, []string{"wiki", "docs"}) {
		t.Error("scope ordering changed the fingerprint")
	}
}

func TestBuildKey_QueryCaseAndWhitespaceInsensitive(t *testing.T) {
	a := mustRequest(t, "MySQL Performance", nil, nil, nil, mode.Natural, 20, 0)
	b := mustRequest(t, "  mysql performance  ", nil, nil, nil, mode.Natural, 20, 0)

	if BuildKey(a, []string{"docs"}) != BuildKey(b, []string{"docs"}) {
		t.Error("query casing or whitespace changed the fingerprint")
	}
}

func TestBuildKey_Discriminators(t *testing.T) {
	base := mustRequest(t, "mysql", []string{"docs"}, nil, nil, mode.Natural, 20, 0)
	baseKey := BuildKey(base, []string{"docs"})

	variants := []struct {
		req *request.Request
		ids []string
	}{
		{mustRequest(t, "postgres", []string{"docs"}, nil, nil, mode.Natural, 20, 0), []string{"docs"}},
		{mustRequest(t, "mysql", []string{"wiki"}, nil, nil, mode.Natural, 20, 0), []string{"wiki"}},
		{mustRequest(t, "mysql", []string{"docs"}, []string{"posts"}, nil, mode.Natural, 20, 0), []string{"docs"}},
		{mustRequest(t, "mysql", []string{"docs"}, nil, nil, mode.Boolean, 20, 0), []string{"docs"}},
		{mustRequest(t, "mysql", []string{"docs"}, nil, nil, mode.Natural, 50, 0), []string{"docs"}},
		{mustRequest(t, "mysql", []string{"docs"}, nil, nil, mode.Natural, 20, 40), []string{"docs"}},
	}
	for i, v := range variants {
		if baseKey == BuildKey(v.req, v.ids) {
			t.Errorf("variant %d produced the same fingerprint as the base request", i)
		}
	}
}

func TestBuildKey_CallerIndependentForSameScope(t *testing.T) {
	a, err := request.New("mysql", []string{"docs"}, nil, nil, mode.Natural, 20, 0, "alice")
	if err != nil {
		t.Fatal(err)
	}
	b, err := request.New("mysql", []string{"docs"}, nil, nil, mode.Natural, 20, 0, "bob")
	if err != nil {
		t.Fatal(err)
	}

	if BuildKey(&a, []string{"docs"}) != BuildKey(&b, []string{"docs"}) {
		t.Error("caller identity leaked into the fingerprint")
	}
}

func TestBuildKey_ResolvedScopeDiscriminates(t *testing.T) {
	// An empty databases list resolves to whatever the caller owns, so the
	// same wire request must fingerprint differently per resolved set.
	req := mustRequest(t, "mysql", nil, nil, nil, mode.Natural, 20, 0)

	if BuildKey(req, []string{"alice-db"}) == BuildKey(req, []string{"bob-db"}) {
		t.Error("distinct resolved scopes produced the same fingerprint")
	}
}

func TestBuildKey_Shape(t *testing.T) {
	key := BuildKey(mustRequest(t, "mysql", nil, nil, nil, mode.Natural, 20, 0), []string{"docs"})
	if !strings.HasPrefix(key, "search:") {
		t.Errorf("key %q lacks search: prefix", key)
	}
	if len(key) != len("search:")+64 {
		t.Errorf("key %q is not a hex sha256 digest", key)
	}
}
