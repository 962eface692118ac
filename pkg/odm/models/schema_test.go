package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaConversion(t *testing.T) {
	tests := []struct {
		attr string
		name string
		id   string
	}{
		{"sample", "Sample", "sampleID"},
		{"ww_measure", "WWMeasure", "uWwMeasureID"},
		{"site", "Site", "siteID"},
		{"site_measure", "SiteMeasure", "uSiteMeasureID"},
		{"reporter", "Reporter", "reporterID"},
		{"lab", "Lab", "labID"},
		{"assay_method", "AssayMethod", "assayMethodID"},
		{"instrument", "Instrument", "instrumentID"},
		{"polygon", "Polygon", "polygonID"},
		{"cphd", "CPHD", "cphdID"},
	}

	require.Len(t, Schema(), len(tests))
	for i, tt := range tests {
		spec, ok := Spec(tt.attr)
		require.True(t, ok, tt.attr)
		assert.Equal(t, tt.name, spec.Name)
		assert.Equal(t, tt.id, spec.IDField())
		assert.Equal(t, tt.attr, Attrs()[i])

		byName, ok := SpecByName(tt.name)
		require.True(t, ok)
		assert.Equal(t, tt.attr, byName.Attr)
	}
	assert.Nil(t, TableFields("Nope"))
	assert.Contains(t, TableFields("WWMeasure"), "fractionAnalyzed")
}

func TestValidateTables(t *testing.T) {
	site := mustSpec(t, "site").NewTable()
	site.AppendRow(map[string]string{"siteID": "qc_01", "geoLat": "46.8", "geoLong": "-71.2"})
	sample := mustSpec(t, "sample").NewTable()
	sample.AppendRow(map[string]string{"sampleID": "s1", "dateTime": "2021-01-05 08:00:00", "pooled": "False"})

	require.NoError(t, ValidateTables(map[string]*Table{"site": site, "sample": sample}))

	site.AppendRow(map[string]string{"siteID": "", "geoLat": "123"})
	sample.AppendRow(map[string]string{"sampleID": "s2", "sizeL": "big", "dateTime": "yesterday"})
	err := ValidateTables(map[string]*Table{"site": site, "sample": sample})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidData))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	rules := map[string]string{}
	for _, is := range verr.Issues {
		rules[is.Table+"."+is.Field] = is.Rule
	}
	assert.Equal(t, "required", rules["Site.siteID"])
	assert.Equal(t, "latitude", rules["Site.geoLat"])
	assert.Equal(t, "odmnumber", rules["Sample.sizeL"])
	assert.Equal(t, "odmdatetime", rules["Sample.dateTime"])
}

func TestValidateTablesUnknownColumn(t *testing.T) {
	lab := NewTable("labID", "colour")
	lab.AppendRow(map[string]string{"labID": "l1", "colour": "red"})
	err := ValidateTables(map[string]*Table{"lab": lab})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lab.colour: not an ODM field")
}

func TestParseValues(t *testing.T) {
	ts, ok := ParseDateTime("2021-03-04")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), ts)
	assert.Equal(t, "2021-03-04 00:00:00", FormatDateTime(ts))

	_, ok = ParseDateTime("not a date")
	assert.False(t, ok)

	f, ok := ParseNumber(" 2.5 ")
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
	assert.Equal(t, "2.5", FormatNumber(f))
	assert.Equal(t, "3", FormatNumber(3))

	b, ok := ParseBool("Oui")
	assert.True(t, ok)
	assert.True(t, b)
	assert.Equal(t, "False", FormatBool(false))
}

func mustSpec(t *testing.T, attr string) TableSpec {
	t.Helper()
	spec, ok := Spec(attr)
	require.True(t, ok)
	return spec
}
