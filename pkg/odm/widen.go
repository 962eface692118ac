package odm

import (
	"strings"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// CleanQualifiers fills missing qualifier cells with "unknown-<qualifier>"
// and replaces "/" by "-" so values can be used in column names.
// qualityFlag values True/False become quality-issue/no-quality-issue.
func CleanQualifiers(t *models.Table, qualifiers []string) *models.Table {
	if t.Empty() {
		return t
	}
	c := t.Clone()
	for _, q := range qualifiers {
		c.AddColumn(q)
		for i := 0; i < c.Len(); i++ {
			v := c.Get(i, q)
			if strings.TrimSpace(v) == "" {
				v = "unknown-" + q
			}
			v = strings.ReplaceAll(v, "/", "-")
			if q == "qualityFlag" {
				v = strings.ReplaceAll(v, "True", "quality-issue")
				v = strings.ReplaceAll(v, "False", "no-quality-issue")
			}
			c.Set(i, q, v)
		}
	}
	return c
}

// Widen spreads feature columns over new columns named after the values of
// the qualifier columns: a row with fractionAnalyzed=liquid, type=covN1 and
// value=3 yields liquid_covN1_value=3. The feature and qualifier columns are
// dropped. New columns follow the first-seen order of qualifier values.
func Widen(t *models.Table, features, qualifiers []string) *models.Table {
	if t.Empty() {
		return t
	}
	c := CleanQualifiers(t, qualifiers)

	keys := make([]string, c.Len())
	var order []string
	seen := make(map[string]bool)
	for i := range keys {
		parts := make([]string, len(qualifiers))
		for j, q := range qualifiers {
			parts[j] = c.Get(i, q)
		}
		keys[i] = strings.Join(parts, "_")
		if !seen[keys[i]] {
			seen[keys[i]] = true
			order = append(order, keys[i])
		}
	}

	for _, key := range order {
		for _, f := range features {
			c.AddColumn(key + "_" + f)
		}
	}
	for i, key := range keys {
		for _, f := range features {
			c.Set(i, key+"_"+f, c.Get(i, f))
		}
	}

	drop := append(append([]string(nil), features...), qualifiers...)
	return c.DropColumns(drop...)
}

// RemoveAccess drops every column whose name contains "access".
func RemoveAccess(t *models.Table) *models.Table {
	if t.Empty() {
		return t
	}
	var drop []string
	for _, col := range t.Columns() {
		if strings.Contains(strings.ToLower(col), "access") {
			drop = append(drop, col)
		}
	}
	return t.DropColumns(drop...)
}
