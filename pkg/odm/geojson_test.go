package odm

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoJSON(t *testing.T) {
	o := labOdm(t)

	fc := o.GeoJSON("SWRCAT")
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, 0, f.ID)
	assert.IsType(t, orb.Polygon{}, f.Geometry)
	assert.Equal(t, "p1", f.Properties["polygonID"])
	assert.Equal(t, "null", f.Properties["pop"])
	assert.NotContains(t, f.Properties, "wkt")

	all := o.GeoJSON()
	require.Len(t, all.Features, 2)
	assert.Equal(t, 1, all.Features[1].ID)

	data, err := json.Marshal(all)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
}

func TestGeoJSONSkipsBadWKT(t *testing.T) {
	o := New(nil)
	o.tables["polygon"] = table(t, "polygon",
		map[string]string{"polygonID": "bad", "wkt": "POLYGON ((oops"},
		map[string]string{"polygonID": "ok", "wkt": "MULTIPOLYGON (((0 0, 1 0, 1 1, 0 0)))"},
	)
	fc := o.GeoJSON()
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "ok", fc.Features[0].Properties["polygonID"])
	assert.IsType(t, orb.MultiPolygon{}, fc.Features[0].Geometry)
}

func TestGeometryContains(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}
	assert.True(t, geometryContains(square, orb.Point{1, 1}))
	assert.False(t, geometryContains(square, orb.Point{3, 1}))
	assert.True(t, geometryContains(orb.MultiPolygon{square}, orb.Point{1, 1}))
	assert.True(t, geometryContains(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, orb.Point{0.5, 0.5}))
	assert.False(t, geometryContains(orb.Point{1, 1}, orb.Point{1, 1}))
}
