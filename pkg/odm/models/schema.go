// Package models defines the Ottawa Data Model (ODM) tables and the
// in-memory table type used to carry them.
package models

// Kind is the value type of an ODM field.
type Kind string

const (
	// KindText is free text, identifiers and categories.
	KindText Kind = "text"
	// KindNumber is a decimal value.
	KindNumber Kind = "number"
	// KindDateTime is a timestamp, stored as "2006-01-02 15:04:05".
	KindDateTime Kind = "datetime"
	// KindBool is a True/False flag.
	KindBool Kind = "bool"
)

// Field describes a column of an ODM table.
type Field struct {
	// Name is the ODM column name.
	Name string
	// Kind is the value type.
	Kind Kind
	// Validate is an extra validator tag checked on non-empty values.
	Validate string
}

// TableSpec describes an ODM table.
type TableSpec struct {
	// Attr is the key the table is stored under in a container.
	Attr string
	// Name is the ODM table name, used for file and SQL table names.
	Name string
	// Fields lists the columns in ODM order. The first field is the table ID.
	Fields []Field
}

// FieldNames returns the spec's column names in order.
func (s TableSpec) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the named field.
func (s TableSpec) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IDField returns the name of the table's identifier column.
func (s TableSpec) IDField() string {
	return s.Fields[0].Name
}

// NewTable returns an empty table with the spec's columns.
func (s TableSpec) NewTable() *Table {
	return NewTable(s.FieldNames()...)
}

func text(name string) Field   { return Field{Name: name, Kind: KindText} }
func number(name string) Field { return Field{Name: name, Kind: KindNumber} }
func date(name string) Field   { return Field{Name: name, Kind: KindDateTime} }
func flag(name string) Field   { return Field{Name: name, Kind: KindBool} }

func accessFields() []Field {
	return []Field{
		flag("accessToPublic"),
		flag("accessToAllOrg"),
		flag("accessToSelf"),
		flag("accessToPHAC"),
		flag("accessToLocalHA"),
		flag("accessToProvHA"),
		flag("accessToOtherProv"),
		text("accessToDetails"),
	}
}

func join(groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var schema = []TableSpec{
	{
		Attr: "sample",
		Name: "Sample",
		Fields: []Field{
			text("sampleID"),
			text("siteID"),
			date("dateTime"),
			date("dateTimeStart"),
			date("dateTimeEnd"),
			text("type"),
			text("typeOther"),
			text("collection"),
			text("preTreatment"),
			flag("pooled"),
			text("children"),
			text("parent"),
			number("sizeL"),
			number("fieldSampleTempC"),
			flag("shippedOnIce"),
			number("storageTempC"),
			flag("qualityFlag"),
			text("notes"),
		},
	},
	{
		Attr: "ww_measure",
		Name: "WWMeasure",
		Fields: join([]Field{
			text("uWwMeasureID"),
			text("wwMeasureID"),
			text("sampleID"),
			text("labID"),
			text("assayMethodID"),
			date("analysisDate"),
			date("reportDate"),
			text("fractionAnalyzed"),
			text("type"),
			text("typeDescription"),
			text("unit"),
			text("unitOther"),
			text("aggregation"),
			text("aggregationDesc"),
			number("index"),
			number("value"),
			flag("qualityFlag"),
		}, accessFields(), []Field{
			text("notes"),
		}),
	},
	{
		Attr: "site",
		Name: "Site",
		Fields: join([]Field{
			text("siteID"),
			text("name"),
			text("description"),
			text("reporterID"),
			text("type"),
			text("typeOther"),
			text("sampleShed"),
		}, accessFields(), []Field{
			text("county"),
			text("healthRegion"),
			number("popServed"),
			number("sizeM3"),
			{Name: "geoLat", Kind: KindNumber, Validate: "latitude"},
			{Name: "geoLong", Kind: KindNumber, Validate: "longitude"},
			text("sewerNetworkFileLink"),
			text("sewerNetworkFileBLOB"),
			text("polygonID"),
			text("notes"),
		}),
	},
	{
		Attr: "site_measure",
		Name: "SiteMeasure",
		Fields: join([]Field{
			text("uSiteMeasureID"),
			text("siteMeasureID"),
			text("siteID"),
			text("instrumentID"),
			text("reporterID"),
			date("dateTime"),
			text("type"),
			text("typeOther"),
			text("typeDescription"),
			text("aggregation"),
			text("aggregationDesc"),
			number("value"),
			text("unit"),
			text("unitOther"),
		}, accessFields(), []Field{
			text("notes"),
		}),
	},
	{
		Attr: "reporter",
		Name: "Reporter",
		Fields: []Field{
			text("reporterID"),
			text("siteIDDefault"),
			text("labIDDefault"),
			text("contactName"),
			{Name: "contactEmail", Kind: KindText, Validate: "email"},
			text("contactPhone"),
			flag("allowAccessToSelf"),
			flag("allowAccessToPHAC"),
			flag("allowAccessToLocalHA"),
			flag("allowAccessToProvHA"),
			flag("allowAccessToOtherProv"),
			text("allowAccessToDetails"),
			text("organizationID"),
			text("notes"),
		},
	},
	{
		Attr: "lab",
		Name: "Lab",
		Fields: []Field{
			text("labID"),
			text("assayMethodIDDefault"),
			text("laboratoryName"),
			text("contactName"),
			{Name: "contactEmail", Kind: KindText, Validate: "email"},
			text("contactPhone"),
			date("labUpdateDate"),
			text("notes"),
		},
	},
	{
		Attr: "assay_method",
		Name: "AssayMethod",
		Fields: []Field{
			text("assayMethodID"),
			text("version"),
			number("sampleSizeL"),
			number("loq"),
			number("lod"),
			text("units"),
			text("unitsOther"),
			text("concentrationMethod"),
			text("extractionMethod"),
			text("pcrMethod"),
			text("qualityAssuranceQC"),
			text("inhibition"),
			text("surrogateRecovery"),
			date("assayDate"),
			text("notes"),
		},
	},
	{
		Attr: "instrument",
		Name: "Instrument",
		Fields: []Field{
			text("instrumentID"),
			text("name"),
			text("model"),
			text("description"),
			flag("alwaysUsed"),
			text("type"),
			text("typeOther"),
			text("notes"),
		},
	},
	{
		Attr: "polygon",
		Name: "Polygon",
		Fields: []Field{
			text("polygonID"),
			text("name"),
			number("pop"),
			text("type"),
			text("wkt"),
			text("file"),
			text("link"),
			text("notes"),
		},
	},
	{
		Attr: "cphd",
		Name: "CPHD",
		Fields: []Field{
			text("cphdID"),
			text("reporterID"),
			text("polygonID"),
			date("date"),
			text("dateType"),
			text("type"),
			number("value"),
			text("notes"),
		},
	},
}

// Schema returns the ODM table specs in container order.
func Schema() []TableSpec {
	out := make([]TableSpec, len(schema))
	copy(out, schema)
	return out
}

// Attrs returns the container attribute keys in schema order.
func Attrs() []string {
	attrs := make([]string, len(schema))
	for i, s := range schema {
		attrs[i] = s.Attr
	}
	return attrs
}

// Spec returns the spec stored under the container attribute attr.
func Spec(attr string) (TableSpec, bool) {
	for _, s := range schema {
		if s.Attr == attr {
			return s, true
		}
	}
	return TableSpec{}, false
}

// SpecByName returns the spec of the ODM table called name.
func SpecByName(name string) (TableSpec, bool) {
	for _, s := range schema {
		if s.Name == name {
			return s, true
		}
	}
	return TableSpec{}, false
}

// TableFields returns the column names of the ODM table called name,
// or nil if there is no such table.
func TableFields(name string) []string {
	s, ok := SpecByName(name)
	if !ok {
		return nil
	}
	return s.FieldNames()
}
