// Package mapper converts lab data sources into ODM tables.
//
// A mapper reads one source format and exposes the resulting tables keyed
// by container attribute (sample, ww_measure, site...). ExcelMapper reads a
// lab analyses worksheet through a YAML column mapping; CSVMapper reads the
// CSV files produced by an earlier export.
package mapper

import "github.com/ukaji3/wbeodm-go/pkg/odm/models"

// Mapper is implemented by every source that can feed an ODM container.
type Mapper interface {
	// Tables returns the mapped tables keyed by container attribute.
	Tables() map[string]*models.Table
	// Validate reports whether the tables conform to the ODM schema.
	Validate() error
}

var (
	_ Mapper = (*ExcelMapper)(nil)
	_ Mapper = (*CSVMapper)(nil)
)
