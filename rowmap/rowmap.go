/*
Package rowmap offers name-based access to rows of a sql.QueryResult.

Column names are matched case-insensitively. When a result has
duplicate column names the first column wins.

	for _, row := range rowmap.Rows(res) {
		id, err := row.Int64("id")
		...
	}
*/
package rowmap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bunnydb/sdk/sql"
)

var (
	// ErrNoColumn indicates the named column is not in the result.
	ErrNoColumn = errors.New("no such column")

	// ErrTypeMismatch indicates the column holds a different value kind.
	ErrTypeMismatch = errors.New("column type mismatch")
)

// Index maps column names to positions.
type Index struct {
	cols      []sql.Col
	positions map[string]int
}

// NewIndex builds an Index for cols.
func NewIndex(cols []sql.Col) *Index {
	idx := &Index{cols: cols, positions: make(map[string]int, len(cols))}
	for i, c := range cols {
		key := strings.ToLower(c.Name)
		if _, dup := idx.positions[key]; !dup {
			idx.positions[key] = i
		}
	}
	return idx
}

// Lookup returns the position of the named column.
func (idx *Index) Lookup(name string) (int, bool) {
	i, ok := idx.positions[strings.ToLower(name)]
	return i, ok
}

// Row is one result row bound to its column index.
type Row struct {
	index  *Index
	values []sql.Value
}

// Rows binds every row of res to a shared column index.
func Rows(res sql.QueryResult) []Row {
	idx := NewIndex(res.Cols)
	rows := make([]Row, len(res.Rows))
	for i, values := range res.Rows {
		rows[i] = Row{index: idx, values: values}
	}
	return rows
}

// Get returns the value of the named column.
func (r Row) Get(name string) (sql.Value, bool) {
	i, ok := r.index.Lookup(name)
	if !ok || i >= len(r.values) {
		return sql.Value{}, false
	}
	return r.values[i], true
}

func (r Row) lookup(name string, want sql.Kind) (sql.Value, error) {
	v, ok := r.Get(name)
	if !ok {
		return sql.Value{}, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	if v.Kind() != want {
		return sql.Value{}, fmt.Errorf("%w: column %q is %s, not %s", ErrTypeMismatch, name, v.Kind(), want)
	}
	return v, nil
}

// Int64 returns the integer in the named column.
func (r Row) Int64(name string) (int64, error) {
	v, err := r.lookup(name, sql.KindInteger)
	if err != nil {
		return 0, err
	}
	i, _ := v.Int64()
	return i, nil
}

// Float64 returns the float in the named column.
func (r Row) Float64(name string) (float64, error) {
	v, err := r.lookup(name, sql.KindFloat)
	if err != nil {
		return 0, err
	}
	f, _ := v.Float64()
	return f, nil
}

// Text returns the text in the named column.
func (r Row) Text(name string) (string, error) {
	v, err := r.lookup(name, sql.KindText)
	if err != nil {
		return "", err
	}
	s, _ := v.Text()
	return s, nil
}

// Bytes returns a copy of the blob in the named column.
func (r Row) Bytes(name string) ([]byte, error) {
	v, err := r.lookup(name, sql.KindBlob)
	if err != nil {
		return nil, err
	}
	b, _ := v.Bytes()
	return b, nil
}

// IsNull reports whether the named column holds NULL.
func (r Row) IsNull(name string) (bool, error) {
	v, ok := r.Get(name)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return v.IsNull(), nil
}

// Map returns the row keyed by column name as reported by the server.
func (r Row) Map() map[string]sql.Value {
	m := make(map[string]sql.Value, len(r.index.cols))
	for i, c := range r.index.cols {
		if _, dup := m[c.Name]; dup || i >= len(r.values) {
			continue
		}
		m[c.Name] = r.values[i]
	}
	return m
}
