package odm

import (
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"
)

// GeoJSON returns the polygons as a FeatureCollection. When types are
// given only polygons of those types (case-insensitive) are included.
// Polygons without WKT are skipped; missing properties are "null".
func (o *Odm) GeoJSON(types ...string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	polygons := o.tables["polygon"]

	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[strings.ToLower(t)] = true
	}

	cols := polygons.Columns()
	for i := 0; i < polygons.Len(); i++ {
		if len(wanted) > 0 && !wanted[strings.ToLower(polygons.Get(i, "type"))] {
			continue
		}
		raw := polygons.Get(i, "wkt")
		if raw == models.NA {
			continue
		}
		geom, err := wkt.Unmarshal(raw)
		if err != nil {
			o.logger.Warn("Skipping unreadable polygon",
				zap.String("polygonID", polygons.Get(i, "polygonID")), zap.Error(err))
			continue
		}

		f := geojson.NewFeature(geom)
		f.ID = i
		for _, c := range cols {
			if strings.Contains(c, "wkt") {
				continue
			}
			v := polygons.Get(i, c)
			if v == models.NA {
				v = "null"
			}
			f.Properties[c] = v
		}
		fc.Append(f)
	}
	return fc
}
