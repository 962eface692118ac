package mapper

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_mapping.yaml
var defaultMappingYAML []byte

// Binding fills an ODM field from a sheet column or a constant.
// In YAML a bare string is shorthand for {column: "..."}.
type Binding struct {
	// Column is the source header, matched case-insensitively.
	Column string `yaml:"column"`
	// Value is a constant used when Column is empty or its cell is blank.
	Value string `yaml:"value"`
	// Optional lets the column be absent from the sheet.
	Optional bool `yaml:"optional"`
}

// UnmarshalYAML accepts a scalar column name or a mapping.
func (b *Binding) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		b.Column = node.Value
		return nil
	}
	type plain Binding
	return node.Decode((*plain)(b))
}

// MeasureBinding melts one sheet column into one WWMeasure row per sample.
type MeasureBinding struct {
	Column           string `yaml:"column"`
	Type             string `yaml:"type"`
	TypeDescription  string `yaml:"typeDescription"`
	Unit             string `yaml:"unit"`
	Aggregation      string `yaml:"aggregation"`
	FractionAnalyzed string `yaml:"fractionAnalyzed"`
	AssayMethodID    string `yaml:"assayMethodID"`
}

// SiteMeasureBinding melts one sheet column into one SiteMeasure row per sample.
type SiteMeasureBinding struct {
	Column       string `yaml:"column"`
	Type         string `yaml:"type"`
	Unit         string `yaml:"unit"`
	Aggregation  string `yaml:"aggregation"`
	InstrumentID string `yaml:"instrumentID"`
}

// Mapping describes how a lab sheet lays out ODM data.
type Mapping struct {
	LabID      string `yaml:"lab_id"`
	ReporterID string `yaml:"reporter_id"`
	// Sample binds Sample fields.
	Sample map[string]Binding `yaml:"sample"`
	// MeasureFields binds WWMeasure fields shared by all measures of a row,
	// such as analysisDate or index.
	MeasureFields map[string]Binding   `yaml:"measure_fields"`
	Measures      []MeasureBinding     `yaml:"measures"`
	SiteMeasures  []SiteMeasureBinding `yaml:"site_measures"`
	// Defaults are constant values per table attribute, applied to every
	// generated row before bindings.
	Defaults map[string]map[string]string `yaml:"defaults"`
	// Static holds literal rows per table attribute (site, lab, polygon...).
	Static map[string][]map[string]string `yaml:"static"`
}

// ParseMapping decodes a YAML mapping and checks it against the ODM schema.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadMapping reads a YAML mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return ParseMapping(data)
}

// DefaultMapping returns the built-in mapping for the "Lab analyses" layout.
func DefaultMapping() (*Mapping, error) {
	return ParseMapping(defaultMappingYAML)
}

func (m *Mapping) check() error {
	sample, _ := models.Spec("sample")
	ww, _ := models.Spec("ww_measure")
	if _, ok := m.Sample["sampleID"]; !ok {
		return fmt.Errorf("mapping: sample.sampleID binding is required")
	}
	for field := range m.Sample {
		if _, ok := sample.Field(field); !ok {
			return fmt.Errorf("mapping: sample.%s is not a Sample field", field)
		}
	}
	for field := range m.MeasureFields {
		if _, ok := ww.Field(field); !ok {
			return fmt.Errorf("mapping: measure_fields.%s is not a WWMeasure field", field)
		}
	}
	for i, mb := range m.Measures {
		if mb.Column == "" || mb.Type == "" || mb.Unit == "" {
			return fmt.Errorf("mapping: measures[%d] needs column, type and unit", i)
		}
	}
	for i, sb := range m.SiteMeasures {
		if sb.Column == "" || sb.Type == "" {
			return fmt.Errorf("mapping: site_measures[%d] needs column and type", i)
		}
	}
	for attr, fields := range m.Defaults {
		if err := checkFields(attr, fields); err != nil {
			return fmt.Errorf("mapping: defaults: %w", err)
		}
	}
	for attr, rows := range m.Static {
		for _, row := range rows {
			if err := checkFields(attr, row); err != nil {
				return fmt.Errorf("mapping: static: %w", err)
			}
		}
	}
	return nil
}

func checkFields(attr string, fields map[string]string) error {
	spec, ok := models.Spec(attr)
	if !ok {
		return fmt.Errorf("unknown table %q", attr)
	}
	for f := range fields {
		if _, ok := spec.Field(f); !ok {
			return fmt.Errorf("%s is not a %s field", f, spec.Name)
		}
	}
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
