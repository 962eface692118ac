package odm

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"
)

// Prepared returns the joined-view form of a table: access columns removed,
// measures widened, rows grouped and columns prefixed with the table name.
func (o *Odm) Prepared(attr string) (*models.Table, error) {
	switch attr {
	case "sample":
		return o.parseSample(), nil
	case "ww_measure":
		return o.parseWWMeasure(), nil
	case "site_measure":
		return o.parseSiteMeasure(), nil
	case "site":
		return o.parseSite(), nil
	case "polygon":
		return o.parsePolygon(), nil
	case "cphd":
		return o.parseCPHD(), nil
	}
	return nil, fmt.Errorf("table %q has no prepared form", attr)
}

// CombinePerSample joins every sample-related table into one table with a
// row per sample (per site, for samples shared by several sites):
// measures of the sample, site measures taken while it was collected, the
// site's attributes and the IDs of the polygons containing the site.
// Sample.sampleID is the first column.
func (o *Odm) CombinePerSample() (*models.Table, error) {
	ww := o.parseWWMeasure()
	if !ww.Empty() {
		ww = GroupBy(ww, "WWMeasure.sampleID")
	}

	merged, err := combineMeasuresAndSamples(ww, o.parseSample())
	if err != nil {
		return nil, err
	}
	merged = combineSampleSiteMeasure(merged, o.parseSiteMeasure())
	if merged, err = combineSiteSample(merged, o.parseSite()); err != nil {
		return nil, err
	}
	merged = o.combinePolygons(merged, o.parsePolygon())

	if merged.Has("Sample.sampleID") {
		cols := []string{"Sample.sampleID"}
		for _, c := range merged.Columns() {
			if c != "Sample.sampleID" {
				cols = append(cols, c)
			}
		}
		merged = merged.Select(cols...)
	}
	merged = merged.DropDuplicates()
	o.logger.Debug("Combined per sample",
		zap.Int("rows", merged.Len()),
		zap.Int("columns", len(merged.Columns())))
	return merged, nil
}

// leftJoin keeps every row of left, pairing it with each right row listed
// by matches, or with NA cells when the list is empty.
func leftJoin(left, right *models.Table, matches func(l int) []int) *models.Table {
	var cols []string
	cols = append(cols, left.Columns()...)
	cols = append(cols, right.Columns()...)
	out := models.NewTable(cols...)
	rightCols := right.Columns()

	for l := 0; l < left.Len(); l++ {
		rs := matches(l)
		if len(rs) == 0 {
			out.AppendRow(left.RowMap(l))
			continue
		}
		for _, r := range rs {
			row := left.RowMap(l)
			for _, c := range rightCols {
				row[c] = right.Get(r, c)
			}
			out.AppendRow(row)
		}
	}
	return out
}

// keyJoin left-joins on equality of two columns, ignoring missing keys.
// The result keeps the row order of left and both key columns.
func keyJoin(left, right *models.Table, leftKey, rightKey string) (*models.Table, error) {
	cols := append(left.Columns(), right.Columns()...)
	if !left.Has(leftKey) || !right.Has(rightKey) {
		return leftJoin(left, right, func(int) []int { return nil }), nil
	}

	rf := right.Frame()
	key := rf.Col(rightKey).Copy()
	key.Name = leftKey
	rf = rf.Mutate(key)

	joined, err := models.FromFrame(left.Frame().LeftJoin(rf, leftKey))
	if err != nil {
		return nil, fmt.Errorf("failed to join %s on %s: %w", leftKey, rightKey, err)
	}
	return joined.Select(cols...), nil
}

func combineMeasuresAndSamples(ww, sample *models.Table) (*models.Table, error) {
	switch {
	case ww.Empty() && sample.Empty():
		return models.NewTable(), nil
	case sample.Empty():
		return ww, nil
	case ww.Empty():
		return sample, nil
	}
	return keyJoin(sample, ww, "Sample.sampleID", "WWMeasure.sampleID")
}

// combineSampleSiteMeasure attaches the site measures of the sample's site
// whose time falls within the sample's collection window, bounds included.
func combineSampleSiteMeasure(sample, siteMeasure *models.Table) *models.Table {
	switch {
	case sample.Empty() && siteMeasure.Empty():
		return sample
	case sample.Empty():
		return siteMeasure
	case siteMeasure.Empty():
		return sample
	}

	times := make([]time.Time, siteMeasure.Len())
	valid := make([]bool, siteMeasure.Len())
	for r := range times {
		times[r], valid[r] = models.ParseDateTime(siteMeasure.Get(r, "SiteMeasure.dateTime"))
	}

	return leftJoin(sample, siteMeasure, func(l int) []int {
		start, ok1 := models.ParseDateTime(sample.Get(l, "Sample.dateTimeStart"))
		end, ok2 := models.ParseDateTime(sample.Get(l, "Sample.dateTimeEnd"))
		if !ok1 || !ok2 {
			return nil
		}
		siteID := sample.Get(l, "Sample.siteID")
		var rs []int
		for r := range times {
			if !valid[r] || times[r].Before(start) || times[r].After(end) {
				continue
			}
			if site := siteMeasure.Get(r, "SiteMeasure.siteID"); site != models.NA && site != siteID {
				continue
			}
			rs = append(rs, r)
		}
		return rs
	})
}

func combineSiteSample(sample, site *models.Table) (*models.Table, error) {
	switch {
	case sample.Empty() && site.Empty():
		return sample, nil
	case sample.Empty():
		return site, nil
	case site.Empty():
		return sample, nil
	}
	return keyJoin(sample, site, "Sample.siteID", "Site.siteID")
}

// combinePolygons adds a polygonIDs column listing, ";"-separated, the
// polygons whose shape contains the row's site location.
func (o *Odm) combinePolygons(merged, polygons *models.Table) *models.Table {
	if merged.Empty() {
		return merged
	}
	type shape struct {
		id   string
		geom orb.Geometry
	}
	var shapes []shape
	for i := 0; i < polygons.Len(); i++ {
		raw := polygons.Get(i, "Polygon.wkt")
		if raw == models.NA {
			continue
		}
		g, err := wkt.Unmarshal(raw)
		if err != nil {
			o.logger.Warn("Skipping unreadable polygon",
				zap.String("polygonID", polygons.Get(i, "Polygon.polygonID")), zap.Error(err))
			continue
		}
		shapes = append(shapes, shape{id: polygons.Get(i, "Polygon.polygonID"), geom: g})
	}

	out := merged.Clone()
	out.AddColumn("polygonIDs")
	for i := 0; i < out.Len(); i++ {
		lat, ok1 := models.ParseNumber(out.Get(i, "Site.geoLat"))
		lon, ok2 := models.ParseNumber(out.Get(i, "Site.geoLong"))
		if !ok1 || !ok2 {
			continue
		}
		pt := orb.Point{lon, lat}
		var ids []string
		for _, s := range shapes {
			if geometryContains(s.geom, pt) {
				ids = append(ids, s.id)
			}
		}
		out.Set(i, "polygonIDs", strings.Join(ids, ";"))
	}
	return out
}

func geometryContains(g orb.Geometry, pt orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	case orb.Bound:
		return g.Contains(pt)
	}
	return false
}
