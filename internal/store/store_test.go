package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kwmetrics/internal/analysis"
)

const exampleCSV = `Keyword,Avg. monthly searches,Competition (indexed value),Three month change,YoY change
alpha,100,0,∞,10
beta,50,5,-5,0
gamma,10,10,0,0
`

func categories(t *testing.T, data string) []analysis.Category {
	t.Helper()
	df, err := analysis.ReadCSV(strings.NewReader(data), analysis.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	res, err := analysis.NewTransformer(analysis.DefaultOptions()).Process(df)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return res.Categories
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return st
}

func countsByName(t *testing.T, st *Store, project string) map[string]int64 {
	t.Helper()
	counts, err := st.TableCounts(context.Background(), project)
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.Name] = c.Rows
	}
	return out
}

func TestWriteCategories_CreatesFiveTables(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if err := st.WriteCategories(ctx, "acme", categories(t, exampleCSV)); err != nil {
		t.Fatalf("WriteCategories() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(st.Dir(), "acme_keywords.db")); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	got := countsByName(t, st, "acme")
	want := map[string]int64{
		analysis.HighPotentialKeywords:  3,
		analysis.TrendingKeywords:       1,
		analysis.SeasonalLongTermTrends: 1,
		analysis.TopOpportunityKeywords: 3,
		analysis.StableKeywords:         1,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tables, want %d: %v", len(got), len(want), got)
	}
	for name, n := range want {
		if got[name] != n {
			t.Errorf("%s rows = %d, want %d", name, got[name], n)
		}
	}
}

func TestWriteCategories_ReplacesOnReupload(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if err := st.WriteCategories(ctx, "acme", categories(t, exampleCSV)); err != nil {
		t.Fatalf("first WriteCategories() error = %v", err)
	}

	second := `Keyword,Avg. monthly searches,Competition (indexed value),Three month change,YoY change
delta,5,1,0,0
`
	if err := st.WriteCategories(ctx, "acme", categories(t, second)); err != nil {
		t.Fatalf("second WriteCategories() error = %v", err)
	}

	got := countsByName(t, st, "acme")
	if got[analysis.HighPotentialKeywords] != 1 {
		t.Errorf("High_Potential_Keywords rows = %d, want 1 after replace", got[analysis.HighPotentialKeywords])
	}
	if got[analysis.TrendingKeywords] != 0 {
		t.Errorf("Trending_Keywords rows = %d, want 0 after replace", got[analysis.TrendingKeywords])
	}
	if got[analysis.StableKeywords] != 1 {
		t.Errorf("Stable_Keywords rows = %d, want 1 after replace", got[analysis.StableKeywords])
	}
}

func TestWriteCategories_ColumnTypesAndOrder(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if err := st.WriteCategories(ctx, "typed", categories(t, exampleCSV)); err != nil {
		t.Fatalf("WriteCategories() error = %v", err)
	}

	db, err := sql.Open("sqlite", st.Path("typed"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT "Keyword", "Search Volume to Competition Ratio", "Trending", "Stable" FROM "High_Potential_Keywords"`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	type row struct {
		keyword  string
		ratio    float64
		trending int64
		stable   int64
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.keyword, &r.ratio, &r.trending, &r.stable); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0].keyword != "alpha" || got[0].ratio != 100 || got[0].trending != 1 || got[0].stable != 0 {
		t.Errorf("first row = %+v, want alpha ratio=100 trending=1 stable=0", got[0])
	}
	if got[2].keyword != "gamma" || got[2].stable != 1 {
		t.Errorf("last row = %+v, want gamma stable=1", got[2])
	}
}

func TestWriteCategories_EmptyInputCreatesEmptyTables(t *testing.T) {
	st := setupStore(t)
	header := "Keyword,Avg. monthly searches,Competition (indexed value),Three month change,YoY change\n"

	if err := st.WriteCategories(context.Background(), "empty", categories(t, header)); err != nil {
		t.Fatalf("WriteCategories() error = %v", err)
	}
	got := countsByName(t, st, "empty")
	if len(got) != 5 {
		t.Fatalf("got %d tables, want 5", len(got))
	}
	for name, n := range got {
		if n != 0 {
			t.Errorf("%s rows = %d, want 0", name, n)
		}
	}
}

func TestPreview(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	if err := st.WriteCategories(ctx, "acme", categories(t, exampleCSV)); err != nil {
		t.Fatalf("WriteCategories() error = %v", err)
	}

	p, err := st.Preview(ctx, "acme", analysis.TopOpportunityKeywords, 2)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(p.Rows) != 2 {
		t.Fatalf("Preview() rows = %d, want 2", len(p.Rows))
	}
	if p.Columns[0] != "Keyword" || p.Rows[0][0] != "alpha" || p.Rows[1][0] != "gamma" {
		t.Errorf("Preview() = %v / %v, want alpha then gamma", p.Columns, p.Rows)
	}

	if _, err := st.Preview(ctx, "acme", "sqlite_master", 2); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Preview(sqlite_master) error = %v, want ErrTableNotFound", err)
	}
}

func TestProjectNotFound(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if _, err := st.TableCounts(ctx, "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("TableCounts() error = %v, want ErrProjectNotFound", err)
	}
	if _, err := st.Preview(ctx, "missing", analysis.StableKeywords, 5); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Preview() error = %v, want ErrProjectNotFound", err)
	}
	if _, err := os.Stat(st.Path("missing")); !os.IsNotExist(err) {
		t.Errorf("lookup of a missing project created %s", st.Path("missing"))
	}
}

func TestList(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	for _, p := range []string{"zeta", "acme"} {
		if err := st.WriteCategories(ctx, p, categories(t, exampleCSV)); err != nil {
			t.Fatalf("WriteCategories(%s) error = %v", p, err)
		}
	}
	if err := os.WriteFile(filepath.Join(st.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	projects, err := st.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("List() = %d projects, want 2", len(projects))
	}
	if projects[0].Name != "acme" || projects[1].Name != "zeta" {
		t.Errorf("List() names = %s, %s, want acme, zeta", projects[0].Name, projects[1].Name)
	}
	if projects[0].File != "acme_keywords.db" || projects[0].SizeBytes == 0 {
		t.Errorf("List()[0] = %+v", projects[0])
	}
}

func TestWritable(t *testing.T) {
	st := setupStore(t)
	if err := st.Writable(); err != nil {
		t.Errorf("Writable() error = %v", err)
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Keyword", `"Keyword"`},
		{"Seasonal/Long-term Trend", `"Seasonal/Long-term Trend"`},
		{`a"b`, `"a""b"`},
	}
	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Errorf("quoteIdent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWriteCategories_IntegerCountsStoredAsInteger(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	if err := st.WriteCategories(ctx, "ints", categories(t, exampleCSV)); err != nil {
		t.Fatalf("WriteCategories() error = %v", err)
	}

	db, err := sql.Open("sqlite", st.Path("ints"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var searches, competition, ratio string
	err = db.QueryRowContext(ctx, `SELECT typeof("Avg. monthly searches"), typeof("Competition (indexed value)"), typeof("Search Volume to Competition Ratio") FROM "High_Potential_Keywords" LIMIT 1`).
		Scan(&searches, &competition, &ratio)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if searches != "integer" || competition != "integer" || ratio != "real" {
		t.Errorf("typeof = %s, %s, %s, want integer, integer, real", searches, competition, ratio)
	}
}
