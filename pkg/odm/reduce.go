package odm

import (
	"math"
	"strings"

	"github.com/go-gota/gota/series"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// Reduce aggregates the values of one column within a group. Numeric
// groups give their mean; other groups give their distinct values joined
// with ",". Missing values are ignored and an all-missing group is NA.
func Reduce(values []string) string {
	var present []string
	for _, v := range values {
		if v != models.NA {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return models.NA
	}

	s := series.New(present, series.String, "")
	if nums := s.Float(); finite(nums) {
		return models.FormatNumber(series.Floats(nums).Mean())
	}

	var distinct []string
	seen := make(map[string]bool, len(present))
	for _, v := range present {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	return strings.Join(distinct, ",")
}

// GroupBy returns one row per distinct combination of the key columns, in
// first-seen order, with the key columns first and every other column
// reduced with Reduce. Rows with a missing key are dropped.
func GroupBy(t *models.Table, keys ...string) *models.Table {
	if t.Empty() {
		return t
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	cols := append([]string(nil), keys...)
	for _, c := range t.Columns() {
		if !isKey[c] {
			cols = append(cols, c)
		}
	}

	var order []string
	groups := make(map[string][]int)
	for i := 0; i < t.Len(); i++ {
		parts := make([]string, len(keys))
		missing := false
		for j, k := range keys {
			parts[j] = t.Get(i, k)
			if parts[j] == models.NA {
				missing = true
			}
		}
		if missing {
			continue
		}
		gk := strings.Join(parts, "\x1f")
		if _, ok := groups[gk]; !ok {
			order = append(order, gk)
		}
		groups[gk] = append(groups[gk], i)
	}

	df := t.Frame()
	out := models.NewTable(cols...)
	for _, gk := range order {
		rows := groups[gk]
		g := df.Subset(rows)
		rec := make([]string, len(cols))
		for j, c := range cols {
			if isKey[c] {
				rec[j] = t.Get(rows[0], c)
				continue
			}
			rec[j] = Reduce(cells(g.Col(c)))
		}
		// rec always matches the column count
		_ = out.AppendValues(rec)
	}
	return out
}

// cells returns the elements of s with missing ones as NA.
func cells(s series.Series) []string {
	out := s.Records()
	for i := range out {
		if s.Elem(i).IsNA() {
			out[i] = models.NA
		}
	}
	return out
}

func finite(nums []float64) bool {
	for _, f := range nums {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
