// Package store persists keyword category tables into per-project SQLite files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	_ "modernc.org/sqlite"

	"kwmetrics/internal/analysis"
)

// FileSuffix is appended to the project name to form the database file name.
const FileSuffix = "_keywords.db"

var (
	ErrProjectNotFound = errors.New("project database not found")
	ErrTableNotFound   = errors.New("table not found")
)

// Store manages the project databases under a single directory.
type Store struct {
	dir string
}

// ProjectInfo describes a project database on disk.
type ProjectInfo struct {
	Name       string    `json:"name"`
	File       string    `json:"file"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TableCount is the row count of one table in a project database.
type TableCount struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// TablePreview holds the leading rows of a table rendered as text.
type TablePreview struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the project databases.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the database file name for a project.
func FileName(project string) string {
	return project + FileSuffix
}

// Path returns the database path for a project.
func (s *Store) Path(project string) string {
	return filepath.Join(s.dir, FileName(project))
}

// WriteCategories replaces every category table in the project database.
// All tables are written in one transaction so a failed upload leaves the
// previous tables in place.
func (s *Store) WriteCategories(ctx context.Context, project string, cats []analysis.Category) error {
	db, err := sql.Open("sqlite", s.Path(project))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", FileName(project), err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cats {
		if err := writeTable(ctx, tx, c.Name, c.Frame); err != nil {
			return fmt.Errorf("failed to write table %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, table string, df dataframe.DataFrame) error {
	names := df.Names()
	types := df.Types()

	defs := make([]string, len(names))
	for i, n := range names {
		defs[i] = quoteIdent(n) + " " + sqlType(types[i])
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(table)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(table)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return err
	}
	if df.Nrow() == 0 {
		return nil
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(names)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(table)+` (`+joinIdents(names)+`) VALUES (`+ph+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = df.Col(n)
	}
	args := make([]any, len(names))
	for row := 0; row < df.Nrow(); row++ {
		for i, col := range cols {
			args[i] = sqlValue(col.Elem(row))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// TableCounts returns the row count of each table in the project database,
// ordered by table name.
func (s *Store) TableCounts(ctx context.Context, project string) ([]TableCount, error) {
	db, err := s.openExisting(project)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}
	counts := make([]TableCount, 0, len(tables))
	for _, t := range tables {
		var n int64
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(t)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t, err)
		}
		counts = append(counts, TableCount{Name: t, Rows: n})
	}
	return counts, nil
}

// Preview returns up to limit leading rows of a table.
func (s *Store) Preview(ctx context.Context, project, table string, limit int) (*TablePreview, error) {
	db, err := s.openExisting(project)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}
	if !contains(tables, table) {
		return nil, ErrTableNotFound
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(table)+` LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	preview := &TablePreview{Name: table, Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out := make([]string, len(cols))
		for i, v := range vals {
			out[i] = formatValue(v)
		}
		preview.Rows = append(preview.Rows, out)
	}
	return preview, rows.Err()
}

// List returns the project databases in the store directory, sorted by name.
func (s *Store) List() ([]ProjectInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+FileSuffix))
	if err != nil {
		return nil, err
	}
	projects := make([]ProjectInfo, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		file := filepath.Base(m)
		projects = append(projects, ProjectInfo{
			Name:       strings.TrimSuffix(file, FileSuffix),
			File:       file,
			SizeBytes:  fi.Size(),
			ModifiedAt: fi.ModTime(),
		})
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Writable reports whether new project databases can be created.
func (s *Store) Writable() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (s *Store) openExisting(project string) (*sql.DB, error) {
	path := s.Path(project)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", FileName(project), err)
	}
	return db, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func sqlType(t series.Type) string {
	switch t {
	case series.Int, series.Bool:
		return "INTEGER"
	case series.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sqlValue(e series.Element) any {
	if e.IsNA() {
		return nil
	}
	switch e.Type() {
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return int64(v)
	case series.Float:
		f := e.Float()
		if math.IsNaN(f) {
			return nil
		}
		return f
	case series.Bool:
		b, err := e.Bool()
		if err != nil {
			return nil
		}
		if b {
			return 1
		}
		return 0
	default:
		return e.String()
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprintf("%.4f", t)
	default:
		return fmt.Sprint(t)
	}
}

func joinIdents(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = quoteIdent(c)
	}
	return strings.Join(parts, ", ")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
