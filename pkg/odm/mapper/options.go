package mapper

import "go.uber.org/zap"

// Options configures how a lab sheet is read.
type Options struct {
	// Mapping binds sheet columns to ODM fields. Nil selects DefaultMapping.
	Mapping *Mapping
	// HeaderRow is the 1-based row holding column headers.
	// Zero means the first non-empty row of the data area.
	HeaderRow int
	// Range restricts reading to a cell range such as "A1:K400".
	Range string
	// LabID overrides the mapping's lab identifier when set.
	LabID string
	// Logger receives progress and data quality messages.
	Logger *zap.Logger
}

// DefaultOptions returns options using the built-in lab analyses mapping.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func (o Options) mapping() (*Mapping, error) {
	if o.Mapping != nil {
		return o.Mapping, nil
	}
	return DefaultMapping()
}
