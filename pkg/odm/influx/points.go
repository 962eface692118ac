// Package influx exports ODM measures to InfluxDB as time series.
package influx

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/ukaji3/wbeodm-go/pkg/odm"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// InfluxDB measurement names of the points built from each table.
const (
	// WWMeasurement holds one point per WWMeasure row with a value.
	WWMeasurement = "ww_measure"
	// SiteMeasurement holds one point per SiteMeasure row with a value.
	SiteMeasurement = "site_measure"
)

var (
	wwTags   = []string{"sampleID", "labID", "type", "unit", "aggregation", "fractionAnalyzed"}
	siteTags = []string{"siteID", "type", "unit", "aggregation", "instrumentID"}
)

// Points converts the numeric WWMeasure and SiteMeasure rows of o into
// points. A WWMeasure is stamped with its sample's dateTime, else the end
// of its collection window, else its analysis date; rows with no usable
// time are skipped.
func Points(o *odm.Odm) []*write.Point {
	samples := sampleIndex(o.Table("sample"))

	var points []*write.Point
	ww := o.Table("ww_measure")
	for i := 0; i < ww.Len(); i++ {
		value, ok := models.ParseNumber(ww.Get(i, "value"))
		if !ok {
			continue
		}
		s := samples[ww.Get(i, "sampleID")]
		ts, ok := firstTime(s.dateTime, s.dateTimeEnd, ww.Get(i, "analysisDate"))
		if !ok {
			continue
		}
		tags := tagsOf(ww, i, wwTags)
		if s.siteID != models.NA {
			tags["siteID"] = s.siteID
		}
		fields := map[string]interface{}{"value": value}
		if idx, ok := models.ParseNumber(ww.Get(i, "index")); ok {
			fields["index"] = idx
		}
		points = append(points, influxdb2.NewPoint(WWMeasurement, tags, fields, ts))
	}

	sm := o.Table("site_measure")
	for i := 0; i < sm.Len(); i++ {
		value, ok := models.ParseNumber(sm.Get(i, "value"))
		if !ok {
			continue
		}
		ts, ok := firstTime(sm.Get(i, "dateTime"))
		if !ok {
			continue
		}
		points = append(points, influxdb2.NewPoint(SiteMeasurement,
			tagsOf(sm, i, siteTags), map[string]interface{}{"value": value}, ts))
	}
	return points
}

type sampleInfo struct {
	siteID, dateTime, dateTimeEnd string
}

func sampleIndex(t *models.Table) map[string]sampleInfo {
	idx := make(map[string]sampleInfo, t.Len())
	for i := 0; i < t.Len(); i++ {
		id := t.Get(i, "sampleID")
		if _, dup := idx[id]; dup || id == models.NA {
			continue
		}
		idx[id] = sampleInfo{
			siteID:      t.Get(i, "siteID"),
			dateTime:    t.Get(i, "dateTime"),
			dateTimeEnd: t.Get(i, "dateTimeEnd"),
		}
	}
	return idx
}

func tagsOf(t *models.Table, i int, cols []string) map[string]string {
	tags := make(map[string]string, len(cols))
	for _, c := range cols {
		if v := t.Get(i, c); v != models.NA {
			tags[c] = v
		}
	}
	return tags
}

func firstTime(values ...string) (time.Time, bool) {
	for _, v := range values {
		if ts, ok := models.ParseDateTime(v); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}
