package odm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// labOdm builds a container with two samples, one of them shared by two
// sites, and the measures, sites and polygons around them.
func labOdm(t *testing.T) *Odm {
	t.Helper()
	o := New(nil)
	o.tables["sample"] = table(t, "sample",
		map[string]string{
			"sampleID":      "s1",
			"siteID":        "qc_01",
			"dateTimeStart": "2021-01-04 08:00:00",
			"dateTimeEnd":   "2021-01-05 08:00:00",
		},
		map[string]string{"sampleID": "s2", "siteID": "qc_01;qc_02"},
	)
	ww := func(id, typ, index, value string) map[string]string {
		return map[string]string{
			"uWwMeasureID":     id,
			"sampleID":         "s1",
			"fractionAnalyzed": "liquid",
			"type":             typ,
			"unit":             "gcMl",
			"aggregation":      "single",
			"index":            index,
			"value":            value,
			"accessToPublic":   "True",
		}
	}
	o.tables["ww_measure"] = table(t, "ww_measure",
		ww("u1", "covN1", "1", "10"),
		ww("u2", "covN1", "2", "20"),
		ww("u3", "nPMMoV", "1", "100"),
	)
	sm := func(id, site, when, value string) map[string]string {
		return map[string]string{
			"uSiteMeasureID": id,
			"siteID":         site,
			"dateTime":       when,
			"type":           "envFlow",
			"unit":           "m3d",
			"aggregation":    "single",
			"value":          value,
		}
	}
	o.tables["site_measure"] = table(t, "site_measure",
		sm("m1", "qc_01", "2021-01-05 08:00:00", "1000"),
		sm("m2", "qc_01", "2021-01-07 08:00:00", "5"),
		sm("m3", "qc_02", "2021-01-05 00:00:00", "7"),
	)
	o.tables["site"] = table(t, "site",
		map[string]string{"siteID": "qc_01", "name": "Quebec East", "geoLat": "46.8", "geoLong": "-71.2"},
	)
	o.tables["polygon"] = table(t, "polygon",
		map[string]string{"polygonID": "p1", "type": "swrCat", "wkt": "POLYGON ((-72 46, -70 46, -70 48, -72 48, -72 46))"},
		map[string]string{"polygonID": "p2", "type": "hlthReg", "wkt": "POLYGON ((0 0, 1 0, 1 1, 0 1, 0 0))"},
		map[string]string{"polygonID": "p3", "type": "swrCat"},
	)
	require.NoError(t, o.Validate())
	return o
}

func TestCombinePerSample(t *testing.T) {
	got, err := labOdm(t).CombinePerSample()
	require.NoError(t, err)

	require.Equal(t, 3, got.Len())
	assert.Equal(t, "Sample.sampleID", got.Columns()[0])
	assert.Equal(t, []string{"s1", "s2", "s2"}, got.Column("Sample.sampleID"))
	assert.Equal(t, []string{"qc_01", "qc_01", "qc_02"}, got.Column("Sample.siteID"))

	assert.Equal(t, "15", got.Get(0, "WWMeasure.liquid_covN1_gcMl_single_value"))
	assert.Equal(t, "100", got.Get(0, "WWMeasure.liquid_nPMMoV_gcMl_single_value"))
	assert.Equal(t, "1000", got.Get(0, "SiteMeasure.envFlow_m3d_single_value"))
	assert.Equal(t, "Quebec East", got.Get(0, "Site.name"))
	assert.Equal(t, "p1", got.Get(0, "polygonIDs"))

	// s2 has no measures and no collection window
	assert.Equal(t, models.NA, got.Get(1, "WWMeasure.liquid_covN1_gcMl_single_value"))
	assert.Equal(t, models.NA, got.Get(1, "SiteMeasure.envFlow_m3d_single_value"))
	assert.Equal(t, "p1", got.Get(1, "polygonIDs"))
	// qc_02 has no site row so no location
	assert.Equal(t, models.NA, got.Get(2, "Site.name"))
	assert.Equal(t, models.NA, got.Get(2, "polygonIDs"))

	for _, c := range got.Columns() {
		assert.NotContains(t, c, "access", "access columns are removed")
	}
}

func TestCombinePerSampleSiteMeasureWindow(t *testing.T) {
	o := labOdm(t)
	o.tables["sample"].Set(0, "dateTimeEnd", "2021-01-05 07:59:59")

	got, err := o.CombinePerSample()
	require.NoError(t, err)
	assert.Equal(t, models.NA, got.Get(0, "SiteMeasure.envFlow_m3d_single_value"))
}

func TestCombinePerSampleEmptySides(t *testing.T) {
	empty, err := New(nil).CombinePerSample()
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	o := labOdm(t)
	o.tables["sample"] = models.Schema()[0].NewTable()
	o.tables["ww_measure"] = table(t, "ww_measure")
	o.tables["site_measure"] = table(t, "site_measure")

	got, err := o.CombinePerSample()
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.False(t, got.Has("Sample.sampleID"))
	assert.Equal(t, "qc_01", got.Get(0, "Site.siteID"))
	assert.Equal(t, "p1", got.Get(0, "polygonIDs"))
}

func TestPrepared(t *testing.T) {
	o := labOdm(t)

	sample, err := o.Prepared("sample")
	require.NoError(t, err)
	assert.Equal(t, 3, sample.Len())
	assert.Equal(t, "qc_02", sample.Get(2, "Sample.siteID"))

	sm, err := o.Prepared("site_measure")
	require.NoError(t, err)
	assert.Equal(t, []string{"SiteMeasure.siteID", "SiteMeasure.dateTime"}, sm.Columns()[:2])
	assert.Equal(t, 3, sm.Len())

	_, err = o.Prepared("lab")
	assert.Error(t, err)
}

func TestParseCPHD(t *testing.T) {
	o := New(nil)
	o.tables["cphd"] = table(t, "cphd",
		map[string]string{"cphdID": "c1", "polygonID": "p1", "type": "conf", "dateType": "episode", "value": "4"},
		map[string]string{"cphdID": "c1", "polygonID": "p1", "type": "active", "dateType": "episode", "value": "9"},
	)
	got, err := o.Prepared("cphd")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "4", got.Get(0, "CPHD.p1_conf_episode_value"))
	assert.Equal(t, "9", got.Get(0, "CPHD.p1_active_episode_value"))
}

func TestKeyJoin(t *testing.T) {
	left := models.NewTable("L.id", "L.v")
	for _, r := range [][]string{{"b", "1"}, {"", "2"}, {"a", "3"}, {"c", "4"}} {
		require.NoError(t, left.AppendValues(r))
	}
	right := models.NewTable("R.v", "R.id")
	for _, r := range [][]string{{"x", "a"}, {"y", "b"}, {"z", "a"}, {"w", ""}} {
		require.NoError(t, right.AppendValues(r))
	}

	got, err := keyJoin(left, right, "L.id", "R.id")
	require.NoError(t, err)
	want := [][]string{
		{"L.id", "L.v", "R.v", "R.id"},
		{"b", "1", "y", "b"},
		{"", "2", "", ""},
		{"a", "3", "x", "a"},
		{"a", "3", "z", "a"},
		{"c", "4", "", ""},
	}
	if diff := cmp.Diff(want, got.Records("")); diff != "" {
		t.Errorf("keyJoin() mismatch (-want +got):\n%s", diff)
	}
}
