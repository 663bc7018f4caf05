package table

import (
	"fmt"
	"math"
	"sort"
)

// Table is an immutable rectangular table. All columns have the same
// length; column names are unique across the three families.
type Table struct {
	order  []string
	ints   map[string][]int
	strs   map[string][]string
	floats map[string][]float64
	n      int
}

// Builder assembles a Table column by column. Build verifies that every
// column has the same length and that no name is used twice.
type Builder struct {
	t   *Table
	err error
}

// NewBuilder returns an empty table builder.
func NewBuilder() *Builder {
	return &Builder{t: &Table{
		ints:   make(map[string][]int),
		strs:   make(map[string][]string),
		floats: make(map[string][]float64),
		n:      -1,
	}}
}

func (b *Builder) add(name string, length int) bool {
	if b.err != nil {
		return false
	}
	if _, ok := b.t.ints[name]; ok {
		b.err = fmt.Errorf("duplicate column %q", name)
		return false
	}
	if _, ok := b.t.strs[name]; ok {
		b.err = fmt.Errorf("duplicate column %q", name)
		return false
	}
	if _, ok := b.t.floats[name]; ok {
		b.err = fmt.Errorf("duplicate column %q", name)
		return false
	}
	if b.t.n >= 0 && length != b.t.n {
		b.err = fmt.Errorf("column %q has %d rows, want %d", name, length, b.t.n)
		return false
	}
	b.t.n = length
	b.t.order = append(b.t.order, name)
	return true
}

// Ints adds an int identifier column.
func (b *Builder) Ints(name string, vals []int) *Builder {
	if b.add(name, len(vals)) {
		b.t.ints[name] = append([]int(nil), vals...)
	}
	return b
}

// Strings adds a string label column.
func (b *Builder) Strings(name string, vals []string) *Builder {
	if b.add(name, len(vals)) {
		b.t.strs[name] = append([]string(nil), vals...)
	}
	return b
}

// Floats adds a float64 value column.
func (b *Builder) Floats(name string, vals []float64) *Builder {
	if b.add(name, len(vals)) {
		b.t.floats[name] = append([]float64(nil), vals...)
	}
	return b
}

// FloatMatrix adds one float column per name, taking column j of rows for
// the j-th name. Used to attach a full draw ensemble in one call.
func (b *Builder) FloatMatrix(names []string, rows [][]float64) *Builder {
	for j, name := range names {
		col := make([]float64, len(rows))
		for i, row := range rows {
			if j >= len(row) {
				b.err = fmt.Errorf("row %d has %d values, want at least %d", i, len(row), j+1)
				return b
			}
			col[i] = row[j]
		}
		b.Floats(name, col)
	}
	return b
}

// Build returns the assembled table.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.t.n < 0 {
		b.t.n = 0
	}
	return b.t, nil
}

// MustBuild is Build for statically known-good tables, mostly in tests.
func (b *Builder) MustBuild() *Table {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.n == 0 }

// Columns returns the column names in build order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// HasColumn reports whether the named column exists in any family.
func (t *Table) HasColumn(name string) bool {
	if _, ok := t.ints[name]; ok {
		return true
	}
	if _, ok := t.strs[name]; ok {
		return true
	}
	_, ok := t.floats[name]
	return ok
}

// Ints returns an int column. Callers must not modify the returned slice.
func (t *Table) Ints(name string) ([]int, bool) {
	c, ok := t.ints[name]
	return c, ok
}

// Strings returns a string column. Callers must not modify the returned slice.
func (t *Table) Strings(name string) ([]string, bool) {
	c, ok := t.strs[name]
	return c, ok
}

// Floats returns a float column. Callers must not modify the returned slice.
func (t *Table) Floats(name string) ([]float64, bool) {
	c, ok := t.floats[name]
	return c, ok
}

// UniqueInts returns the sorted distinct values of an int column. A missing
// column yields nil.
func (t *Table) UniqueInts(name string) []int {
	col, ok := t.ints[name]
	if !ok {
		return nil
	}
	seen := make(map[int]struct{}, len(col))
	var out []int
	for _, v := range col {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// UniqueStrings returns the sorted distinct values of a string column.
func (t *Table) UniqueStrings(name string) []string {
	col, ok := t.strs[name]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(col))
	var out []string
	for _, v := range col {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Filter returns a new table containing the rows for which keep returns
// true. Column order is preserved.
func (t *Table) Filter(keep func(row int) bool) *Table {
	idx := make([]int, 0, t.n)
	for i := 0; i < t.n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return t.take(idx)
}

// FilterIntEq returns the rows where the named int column equals v.
func (t *Table) FilterIntEq(name string, v int) *Table {
	col, ok := t.ints[name]
	if !ok {
		return t.take(nil)
	}
	return t.Filter(func(i int) bool { return col[i] == v })
}

// FilterIntIn returns the rows where the named int column takes one of the
// given values.
func (t *Table) FilterIntIn(name string, vals map[int]struct{}) *Table {
	col, ok := t.ints[name]
	if !ok {
		return t.take(nil)
	}
	return t.Filter(func(i int) bool {
		_, ok := vals[col[i]]
		return ok
	})
}

func (t *Table) take(idx []int) *Table {
	out := &Table{
		order:  append([]string(nil), t.order...),
		ints:   make(map[string][]int, len(t.ints)),
		strs:   make(map[string][]string, len(t.strs)),
		floats: make(map[string][]float64, len(t.floats)),
		n:      len(idx),
	}
	for name, col := range t.ints {
		c := make([]int, len(idx))
		for i, j := range idx {
			c[i] = col[j]
		}
		out.ints[name] = c
	}
	for name, col := range t.strs {
		c := make([]string, len(idx))
		for i, j := range idx {
			c[i] = col[j]
		}
		out.strs[name] = c
	}
	for name, col := range t.floats {
		c := make([]float64, len(idx))
		for i, j := range idx {
			c[i] = col[j]
		}
		out.floats[name] = c
	}
	return out
}

// GroupBy partitions the table by the distinct combined values of the named
// columns (int or string) and returns one sub-table per combination, in a
// deterministic order. Within each group the grouped columns are constant,
// so callers read them from row 0.
func (t *Table) GroupBy(cols ...string) []*Table {
	keys := make([]string, 0)
	groups := make(map[string][]int)
	for i := 0; i < t.n; i++ {
		key := ""
		for _, c := range cols {
			if col, ok := t.ints[c]; ok {
				key += fmt.Sprintf("|%d", col[i])
			} else if col, ok := t.strs[c]; ok {
				key += "|" + col[i]
			}
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}
	sort.Strings(keys)
	out := make([]*Table, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.take(groups[k]))
	}
	return out
}

// RowMin returns, per row, the minimum across the named float columns.
func (t *Table) RowMin(cols []string) []float64 {
	return t.rowFold(cols, math.Inf(1), math.Min)
}

// RowMax returns, per row, the maximum across the named float columns.
func (t *Table) RowMax(cols []string) []float64 {
	return t.rowFold(cols, math.Inf(-1), math.Max)
}

// RowSum returns, per row, the sum across the named float columns.
func (t *Table) RowSum(cols []string) []float64 {
	return t.rowFold(cols, 0, func(a, b float64) float64 { return a + b })
}

func (t *Table) rowFold(cols []string, init float64, fold func(a, b float64) float64) []float64 {
	out := make([]float64, t.n)
	for i := range out {
		out[i] = init
	}
	for _, name := range cols {
		col, ok := t.floats[name]
		if !ok {
			continue
		}
		for i, v := range col {
			out[i] = fold(out[i], v)
		}
	}
	return out
}

// HasMissing reports whether any of the named float columns contains a NaN
// or infinite value.
func (t *Table) HasMissing(cols []string) bool {
	for _, name := range cols {
		col, ok := t.floats[name]
		if !ok {
			// a value column the table does not carry counts as missing
			return true
		}
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

// AllZero reports whether every value in the named float columns is zero.
// An empty table is vacuously all zero.
func (t *Table) AllZero(cols []string) bool {
	for _, name := range cols {
		col, ok := t.floats[name]
		if !ok {
			continue
		}
		for _, v := range col {
			if v != 0 {
				return false
			}
		}
	}
	return true
}
