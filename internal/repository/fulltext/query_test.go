package fulltext

import (
	"testing"

	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	domtarget "github.com/kailas-cloud/searchmesh/internal/domain/target"
)

func articlesTable() domtarget.Table {
	return domtarget.NewTable("articles", []string{"title", "content"}, "title")
}

func TestBuildMatchExpr_NaturalQuotesTerms(t *testing.T) {
	got := buildMatchExpr("mysql performance", articlesTable(), nil, mode.Natural)
	want := `"mysql" OR "performance"`
	if got != want {
		t.Errorf("expr = %q, want %q", got, want)
	}
}

func TestBuildMatchExpr_NaturalEscapesQuotes(t *testing.T) {
	got := buildMatchExpr(`say "hello`, articlesTable(), nil, mode.Natural)
	want := `"say" OR """hello"`
	if got != want {
		t.Errorf("expr = %q, want %q", got, want)
	}
}

func TestBuildMatchExpr_BooleanPassthrough(t *testing.T) {
	q := `mysql AND (performance OR tuning) NOT "slow query" wild*`
	got := buildMatchExpr(q, articlesTable(), nil, mode.Boolean)
	if got != q {
		t.Errorf("boolean expr must pass through untouched, got %q", got)
	}
}

func TestBuildMatchExpr_ColumnRestriction(t *testing.T) {
	got := buildMatchExpr("mysql", articlesTable(), []string{"title"}, mode.Natural)
	want := `{title} : ("mysql")`
	if got != want {
		t.Errorf("expr = %q, want %q", got, want)
	}
}

func TestBuildMatchExpr_RestrictionExcludesTable(t *testing.T) {
	if got := buildMatchExpr("mysql", articlesTable(), []string{"body"}, mode.Natural); got != "" {
		t.Errorf("expected empty expr for disjoint column restriction, got %q", got)
	}
}

func TestBuildMatchExpr_SemanticUsesNaturalSyntax(t *testing.T) {
	got := buildMatchExpr("database tuning", articlesTable(), nil, mode.Semantic)
	want := `"database" OR "tuning"`
	if got != want {
		t.Errorf("expr = %q, want %q", got, want)
	}
}
