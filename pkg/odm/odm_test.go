package odm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// stubMapper is a mapper with fixed tables and validation result.
type stubMapper struct {
	tables map[string]*models.Table
	err    error
}

func (s *stubMapper) Tables() map[string]*models.Table { return s.tables }
func (s *stubMapper) Validate() error                  { return s.err }

func table(t *testing.T, attr string, rows ...map[string]string) *models.Table {
	t.Helper()
	spec, ok := models.Spec(attr)
	require.True(t, ok, attr)
	tbl := spec.NewTable()
	for _, r := range rows {
		tbl.AppendRow(r)
	}
	return tbl
}

func TestNewHasEmptyODMTables(t *testing.T) {
	o := New(nil)
	for _, spec := range models.Schema() {
		tbl := o.Table(spec.Attr)
		require.NotNil(t, tbl, spec.Attr)
		assert.True(t, tbl.Empty())
		assert.Equal(t, spec.FieldNames(), tbl.Columns())
	}
	assert.Nil(t, o.Table("nope"))
	assert.NoError(t, o.Validate())
}

func TestLoadFrom(t *testing.T) {
	sample := table(t, "sample",
		map[string]string{"sampleID": "s1", "siteID": "qc_01"},
		map[string]string{"sampleID": "s1", "siteID": "qc_01"},
		map[string]string{"sampleID": "s2", "siteID": "qc_01"},
	)

	o := New(nil)
	require.NoError(t, o.LoadFrom(&stubMapper{tables: map[string]*models.Table{
		"sample":  sample,
		"unknown": models.NewTable("x"),
	}}))
	assert.Equal(t, 2, o.Table("sample").Len())
	assert.True(t, o.Table("site").Empty())
}

func TestLoadFromRejectsInvalidMapper(t *testing.T) {
	o := New(nil)
	bad := &stubMapper{
		tables: map[string]*models.Table{"sample": table(t, "sample", map[string]string{"sampleID": "s1"})},
		err:    &models.ValidationError{Issues: []models.Issue{{Table: "Sample", Row: 0, Field: "sizeL", Rule: "odmnumber"}}},
	}
	err := o.LoadFrom(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidData))
	assert.True(t, o.Table("sample").Empty())
}

func TestAppendFrom(t *testing.T) {
	o := New(nil)
	first := &stubMapper{tables: map[string]*models.Table{
		"sample": table(t, "sample", map[string]string{"sampleID": "s1"}),
	}}
	second := &stubMapper{tables: map[string]*models.Table{
		"sample": table(t, "sample",
			map[string]string{"sampleID": "s1"},
			map[string]string{"sampleID": "s2"}),
		"site": table(t, "site", map[string]string{"siteID": "qc_01"}),
	}}

	require.NoError(t, o.AppendFrom(first))
	require.NoError(t, o.AppendFrom(second))
	assert.Equal(t, []string{"s1", "s2"}, o.Table("sample").Column("sampleID"))
	assert.Equal(t, 1, o.Table("site").Len())

	invalid := &stubMapper{tables: second.tables, err: errors.New("broken")}
	assert.Error(t, o.AppendFrom(invalid))
	assert.Equal(t, 2, o.Table("sample").Len())
}

func TestAppendOdmSkipsValidation(t *testing.T) {
	other := New(nil)
	// an Odm source is trusted even when its data would not validate
	other.tables["sample"] = table(t, "sample", map[string]string{"sampleID": "s9", "sizeL": "big"})
	require.Error(t, other.Validate())

	o := New(nil)
	require.NoError(t, o.AppendOdm(other))
	assert.Equal(t, "s9", o.Table("sample").Get(0, "sampleID"))

	// the copy is independent of the source
	other.tables["sample"].Set(0, "sampleID", "changed")
	assert.Equal(t, "s9", o.Table("sample").Get(0, "sampleID"))
}

func TestDatePrefix(t *testing.T) {
	now := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "mcgill_2026-10-14", DatePrefix("mcgill_", now))
	assert.Equal(t, "2026-10-14", DatePrefix("", now))
}
