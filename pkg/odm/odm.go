// Package odm holds the tables of the Ottawa Data Model for one or more
// labs and provides the operations used to merge, reshape and export them.
package odm

import (
	"fmt"
	"time"

	"github.com/ukaji3/wbeodm-go/pkg/odm/mapper"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"
)

// Odm is a container with one table per ODM table. Tables start empty
// with the ODM columns.
type Odm struct {
	tables map[string]*models.Table
	logger *zap.Logger
}

var _ mapper.Mapper = (*Odm)(nil)

// New creates an empty container. A nil logger discards log output.
func New(logger *zap.Logger) *Odm {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Odm{
		tables: make(map[string]*models.Table),
		logger: logger.Named("odm"),
	}
	for _, spec := range models.Schema() {
		o.tables[spec.Attr] = spec.NewTable()
	}
	return o
}

// Table returns the table stored under attr, or nil for an unknown attr.
func (o *Odm) Table(attr string) *models.Table {
	return o.tables[attr]
}

// Tables returns the container's tables keyed by attribute.
func (o *Odm) Tables() map[string]*models.Table {
	return o.tables
}

// Validate checks every table against the ODM schema.
func (o *Odm) Validate() error {
	return models.ValidateTables(o.tables)
}

// LoadFrom replaces the container's tables by those of m. Nothing is
// loaded when m does not validate.
func (o *Odm) LoadFrom(m mapper.Mapper) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("mapper data rejected: %w", err)
	}
	for attr, t := range m.Tables() {
		if _, ok := o.tables[attr]; !ok || t == nil {
			continue
		}
		o.tables[attr] = t.DropDuplicates()
	}
	o.logger.Debug("Loaded mapper", zap.Any("rows", o.counts()))
	return nil
}

// AppendFrom adds the rows of src to the container, keeping the first of
// duplicate rows. src is validated unless it is another container.
func (o *Odm) AppendFrom(src mapper.Mapper) error {
	if _, isOdm := src.(*Odm); !isOdm {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("mapper data rejected: %w", err)
		}
	}
	for _, attr := range models.Attrs() {
		current := o.tables[attr]
		incoming := src.Tables()[attr]
		switch {
		case current.Empty() && incoming != nil:
			o.tables[attr] = incoming.Clone()
		case incoming == nil || incoming.Empty():
			continue
		default:
			o.tables[attr] = current.Concat(incoming).DropDuplicates()
		}
	}
	o.logger.Debug("Appended mapper", zap.Any("rows", o.counts()))
	return nil
}

// AppendOdm adds the rows of another container.
func (o *Odm) AppendOdm(other *Odm) error {
	return o.AppendFrom(other)
}

func (o *Odm) counts() map[string]int {
	c := make(map[string]int, len(o.tables))
	for attr, t := range o.tables {
		c[attr] = t.Len()
	}
	return c
}

// DatePrefix returns the export prefix tag followed by now as YYYY-MM-DD.
func DatePrefix(tag string, now time.Time) string {
	return tag + now.Format("2006-01-02")
}
