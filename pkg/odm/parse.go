package odm

import (
	"strings"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// The parsers below prepare each table for joining into the per-sample
// view: categorical measures are spread into columns and every column is
// prefixed with its table name.

func (o *Odm) parseWWMeasure() *models.Table {
	t := o.tables["ww_measure"]
	if t.Empty() {
		return t
	}
	t = RemoveAccess(t)
	t = Widen(t,
		[]string{"value"},
		[]string{"fractionAnalyzed", "type", "unit", "aggregation"},
	)
	t = t.DropColumns("index")
	return t.AddPrefix("WWMeasure.")
}

// parseSiteMeasure arranges site measures by site and time, as that is how
// they are joined to samples.
func (o *Odm) parseSiteMeasure() *models.Table {
	t := o.tables["site_measure"]
	if t.Empty() {
		return t
	}
	t = RemoveAccess(t)
	t = Widen(t,
		[]string{"value"},
		[]string{"type", "unit", "aggregation"},
	)
	t = GroupBy(t, "siteID", "dateTime")
	return t.AddPrefix("SiteMeasure.")
}

// parseSample spreads samples taken for several sites ("a;b") over one
// row per site. The first site stays on the original row and the others
// are appended at the end.
func (o *Odm) parseSample() *models.Table {
	t := o.tables["sample"]
	if t.Empty() {
		return t
	}
	out := t.Clone()
	n := out.Len()
	for i := 0; i < n; i++ {
		sites := out.Get(i, "siteID")
		if !strings.Contains(sites, ";") {
			continue
		}
		var ids []string
		seen := make(map[string]bool)
		for _, s := range strings.Split(sites, ";") {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			ids = append(ids, s)
		}
		if len(ids) == 0 {
			continue
		}
		out.Set(i, "siteID", ids[0])
		for _, id := range ids[1:] {
			row := out.RowMap(i)
			row["siteID"] = id
			out.AppendRow(row)
		}
	}
	return out.AddPrefix("Sample.")
}

func (o *Odm) parseSite() *models.Table {
	t := o.tables["site"]
	if t.Empty() {
		return t
	}
	return RemoveAccess(t).AddPrefix("Site.")
}

func (o *Odm) parsePolygon() *models.Table {
	t := o.tables["polygon"]
	if t.Empty() {
		return t
	}
	return t.AddPrefix("Polygon.")
}

func (o *Odm) parseCPHD() *models.Table {
	t := o.tables["cphd"]
	if t.Empty() {
		return t
	}
	t = RemoveAccess(t)
	t = Widen(t,
		[]string{"value"},
		[]string{"polygonID", "type", "dateType"},
	)
	t = GroupBy(t, "cphdID")
	return t.AddPrefix("CPHD.")
}
