package models

import (
	"fmt"
	"strings"
)

// NA is the missing value.
const NA = ""

// Table is an ordered table of string cells. Every row holds one cell per
// column and NA marks a missing value.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable creates an empty table with the given columns.
// Repeated column names are kept once.
func NewTable(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Has reports whether col is a column of the table.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// AddColumn appends col filled with NA. It is a no-op if col exists.
func (t *Table) AddColumn(col string) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[col]; ok {
		return
	}
	t.index[col] = len(t.columns)
	t.columns = append(t.columns, col)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], NA)
	}
}

// Row returns the cells of row i. The slice is owned by the table.
func (t *Table) Row(i int) []string {
	return t.rows[i]
}

// Get returns the cell at row i, column col; NA if col is not present.
func (t *Table) Get(i int, col string) string {
	j, ok := t.index[col]
	if !ok {
		return NA
	}
	return t.rows[i][j]
}

// Set stores v at row i, column col, adding the column if needed.
func (t *Table) Set(i int, col, v string) {
	t.AddColumn(col)
	t.rows[i][t.index[col]] = v
}

// AppendRow appends a row built from values keyed by column.
// Keys that are not columns yet become new columns.
func (t *Table) AppendRow(values map[string]string) {
	row := make([]string, len(t.columns))
	t.rows = append(t.rows, row)
	last := len(t.rows) - 1
	for col, v := range values {
		t.Set(last, col, v)
	}
}

// AppendValues appends a row given in column order.
func (t *Table) AppendValues(values []string) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(values), len(t.columns))
	}
	row := make([]string, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// RowMap returns row i keyed by column.
func (t *Table) RowMap(i int) map[string]string {
	m := make(map[string]string, len(t.columns))
	for j, c := range t.columns {
		m[c] = t.rows[i][j]
	}
	return m
}

// Column returns a copy of the values of col, or nil if it is absent.
func (t *Table) Column(col string) []string {
	j, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := NewTable(t.columns...)
	c.rows = make([][]string, len(t.rows))
	for i, row := range t.rows {
		c.rows[i] = append([]string(nil), row...)
	}
	return c
}

// AddPrefix returns a copy whose column names are prefixed with p.
func (t *Table) AddPrefix(p string) *Table {
	cols := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = p + c
	}
	c := t.Clone()
	c.columns = cols
	c.index = make(map[string]int, len(cols))
	for i, col := range cols {
		c.index[col] = i
	}
	return c
}

// Select returns a copy holding only cols, in that order.
// Columns missing from t are filled with NA.
func (t *Table) Select(cols ...string) *Table {
	c := NewTable(cols...)
	if t.Len() == 0 || len(t.columns) == 0 || len(c.columns) == 0 {
		// every cell of the result is NA
		c.rows = make([][]string, len(t.rows))
		for i := range c.rows {
			c.rows[i] = make([]string, len(c.columns))
		}
		return c
	}
	df := t.Frame()
	for _, col := range c.columns {
		if !t.Has(col) {
			df = df.Mutate(naSeries(col, t.Len()))
		}
	}
	return mustTable(df.Select(c.columns))
}

// DropColumns returns a copy without cols. Unknown names are ignored.
func (t *Table) DropColumns(cols ...string) *Table {
	drop := make(map[string]bool, len(cols))
	var known []string
	for _, c := range cols {
		if t.Has(c) && !drop[c] {
			known = append(known, c)
		}
		drop[c] = true
	}
	switch {
	case len(known) == 0:
		return t.Clone()
	case len(known) == len(t.columns) || t.Len() == 0:
		var keep []string
		for _, c := range t.columns {
			if !drop[c] {
				keep = append(keep, c)
			}
		}
		return t.Select(keep...)
	}
	return mustTable(t.Frame().Drop(known))
}

// DropDuplicates returns a copy in which only the first of identical rows
// is kept.
func (t *Table) DropDuplicates() *Table {
	c := NewTable(t.columns...)
	seen := make(map[string]bool, len(t.rows))
	for _, row := range t.rows {
		k := rowKey(row)
		if seen[k] {
			continue
		}
		seen[k] = true
		c.rows = append(c.rows, append([]string(nil), row...))
	}
	return c
}

// Concat returns the rows of t followed by the rows of other. The result
// has the columns of t followed by the columns only other has; cells absent
// from either side are NA.
func (t *Table) Concat(other *Table) *Table {
	if len(t.columns) > 0 && len(other.columns) > 0 {
		return mustTable(t.Frame().Concat(other.Frame()))
	}
	c := t.Clone()
	for _, col := range other.columns {
		c.AddColumn(col)
	}
	for i := range other.rows {
		row := make([]string, len(c.columns))
		for j, col := range other.columns {
			row[c.index[col]] = other.rows[i][j]
		}
		c.rows = append(c.rows, row)
	}
	return c
}

// Filter returns a copy with the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := range t.rows {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 || len(t.columns) == 0 {
		c := NewTable(t.columns...)
		c.rows = make([][]string, len(rows))
		for n := range c.rows {
			c.rows[n] = []string{}
		}
		return c
	}
	return mustTable(t.Frame().Subset(rows))
}

// Records returns the header followed by the rows, with NA replaced by na.
func (t *Table) Records(na string) [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			if v == NA {
				v = na
			}
			rec[j] = v
		}
		out = append(out, rec)
	}
	return out
}

func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
