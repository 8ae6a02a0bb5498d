package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/searchmesh/internal/db"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/result"
)

// --- Mocks ---

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastKey string
	lastTTL time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.lastKey = key
	m.lastTTL = ttl
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func sampleResponse() result.Response {
	r := result.New(
		"docs", "articles", 0,
		0.87, []string{"title"},
		map[string]any{"title": "MySQL Performance Guide", "category": "database"},
		"MySQL Performance Guide...",
		[]string{"database"},
	)
	return result.NewResponse(
		[]result.Result{r}, 1, 42,
		[]result.CategoryCount{{Name: "database", Count: 1}},
		[]string{"guide"},
	)
}

// --- Tests ---

func TestGet_Miss(t *testing.T) {
	s := New(newMockStore(), 300*time.Second, "searchmesh:", nil, nil)

	if _, ok := s.Get(context.Background(), "search:abc"); ok {
		t.Fatal("expected miss for unknown fingerprint")
	}
}

func TestSetThenGet_RoundTrip(t *testing.T) {
	ms := newMockStore()
	s := New(ms, 300*time.Second, "searchmesh:", nil, nil)

	s.Set(context.Background(), "search:abc", sampleResponse())

	if ms.lastTTL != 300*time.Second {
		t.Errorf("TTL = %s, want 300s", ms.lastTTL)
	}
	if ms.lastKey != "searchmesh:search:abc" {
		t.Errorf("key = %q, want prefixed", ms.lastKey)
	}

	got, ok := s.Get(context.Background(), "search:abc")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.TotalCount() != 1 {
		t.Errorf("TotalCount() = %d, want 1", got.TotalCount())
	}
	if len(got.Results()) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got.Results()))
	}
	r := got.Results()[0]
	if r.ID() != "docs_articles_0" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 0.87 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Data()["title"] != "MySQL Performance Guide" {
		t.Errorf("Data()[title] = %v", r.Data()["title"])
	}
	if len(got.Categories()) != 1 || got.Categories()[0].Name != "database" {
		t.Errorf("Categories() = %v", got.Categories())
	}
}

func TestGet_StoreErrorDegradesToMiss(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("connection refused")
	s := New(ms, time.Minute, "searchmesh:", nil, nil)

	if _, ok := s.Get(context.Background(), "search:abc"); ok {
		t.Fatal("store error must degrade to a miss")
	}
}

func TestGet_CorruptEntryDegradesToMiss(t *testing.T) {
	ms := newMockStore()
	ms.data["searchmesh:search:abc"] = []byte("{not json")
	s := New(ms, time.Minute, "searchmesh:", nil, nil)

	if _, ok := s.Get(context.Background(), "search:abc"); ok {
		t.Fatal("corrupt entry must degrade to a miss")
	}
}

func TestSet_StoreErrorIsSwallowed(t *testing.T) {
	ms := newMockStore()
	ms.setErr = errors.New("connection refused")
	s := New(ms, time.Minute, "searchmesh:", nil, nil)

	// Must not panic or propagate.
	s.Set(context.Background(), "search:abc", sampleResponse())
}
