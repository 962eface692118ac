package mapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExcelMapper maps a lab analyses worksheet into ODM tables.
type ExcelMapper struct {
	opts   Options
	logger *zap.Logger
	tables map[string]*models.Table

	// replicate counts per sampleID/type/unit/aggregation, for rows
	// without an index column
	replicates map[string]int
}

// NewExcelMapper creates a mapper with the given options.
func NewExcelMapper(opts Options) *ExcelMapper {
	return &ExcelMapper{
		opts:   opts,
		logger: opts.logger().Named("excel_mapper"),
		tables: emptyTables(),

		replicates: make(map[string]int),
	}
}

// Tables returns the mapped tables keyed by container attribute.
func (m *ExcelMapper) Tables() map[string]*models.Table {
	return m.tables
}

// Validate checks the mapped tables against the ODM schema.
func (m *ExcelMapper) Validate() error {
	return models.ValidateTables(m.tables)
}

// Read maps the sheet named sheetName of the workbook at path. Rows are
// added to what earlier Read calls produced.
func (m *ExcelMapper) Read(ctx context.Context, path, sheetName string) error {
	mapping, err := m.opts.mapping()
	if err != nil {
		return err
	}
	a, err := parseArea(m.opts.Range)
	if err != nil {
		return err
	}

	f, err := openWorkbook(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheetName, filepath.Base(path))
	}

	rows, err := readRows(f, sheetName, a)
	if err != nil {
		return NewMappingError(sheetName, 0, "", err)
	}
	h := findHeader(rows, m.opts.HeaderRow)
	if h < 0 {
		return NewMappingError(sheetName, m.opts.HeaderRow, "", ErrNoData)
	}

	s := &sheetMapping{
		sheet:    sheetName,
		mapping:  mapping,
		labID:    mapping.LabID,
		date1904: date1904(f),
		logger:   m.logger.With(zap.String("sheet", sheetName), zap.String("file", filepath.Base(path))),

		replicates: m.replicates,
	}
	if m.opts.LabID != "" {
		s.labID = m.opts.LabID
	}
	if err := s.bindHeader(rows[h]); err != nil {
		return err
	}

	mapped := 0
	for _, row := range rows[h+1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row.empty() {
			continue
		}
		if s.mapRow(row, m.tables) {
			mapped++
		}
	}
	s.addStatic(m.tables)

	m.logger.Info("Mapped lab sheet",
		zap.String("file", filepath.Base(path)),
		zap.String("sheet", sheetName),
		zap.Int("samples", mapped),
		zap.Int("ww_measures", m.tables["ww_measure"].Len()),
		zap.Int("site_measures", m.tables["site_measure"].Len()))
	return nil
}

// ReadStatic loads a workbook whose sheets are named after ODM tables
// (Site, Lab, Polygon...) and whose header rows hold ODM field names.
// Sheets with other names are ignored.
func (m *ExcelMapper) ReadStatic(ctx context.Context, path string) error {
	f, err := openWorkbook(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d1904 := date1904(f)
	for _, sheetName := range f.GetSheetList() {
		spec, ok := models.SpecByName(strings.TrimSpace(sheetName))
		if !ok {
			m.logger.Debug("Skipping non-ODM sheet", zap.String("sheet", sheetName))
			continue
		}
		rows, err := readRows(f, sheetName, nil)
		if err != nil {
			return NewMappingError(sheetName, 0, "", err)
		}
		h := findHeader(rows, 0)
		if h < 0 {
			continue
		}
		header := make([]string, len(rows[h].Cells))
		for j, name := range rows[h].Cells {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := spec.Field(name); !ok {
				m.logger.Warn("Skipping unknown static column",
					zap.String("sheet", sheetName), zap.String("column", name))
				continue
			}
			header[j] = name
		}
		t := m.tables[spec.Attr]
		for _, row := range rows[h+1:] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if row.empty() {
				continue
			}
			values := make(map[string]string, len(header))
			for j, name := range header {
				if name == "" || j >= len(row.Cells) {
					continue
				}
				field, _ := spec.Field(name)
				v, ok := normalize(row.Cells[j], field.Kind, d1904)
				if !ok {
					m.logger.Warn("Unreadable static value",
						zap.String("sheet", sheetName), zap.Int("row", row.R),
						zap.String("field", name), zap.String("value", row.Cells[j]))
					v = models.NA
				}
				values[name] = v
			}
			t.AppendRow(values)
		}
		m.logger.Info("Loaded static table", zap.String("table", spec.Name), zap.Int("rows", t.Len()))
	}
	return nil
}

func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return f, nil
}

func date1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

func emptyTables() map[string]*models.Table {
	tables := make(map[string]*models.Table)
	for _, spec := range models.Schema() {
		tables[spec.Attr] = spec.NewTable()
	}
	return tables
}

// sheetMapping carries the state of mapping one sheet.
type sheetMapping struct {
	sheet    string
	mapping  *Mapping
	labID    string
	date1904 bool
	logger   *zap.Logger
	header   map[string]int

	replicates map[string]int
}

func (s *sheetMapping) bindHeader(row sheetRow) error {
	s.header = make(map[string]int, len(row.Cells))
	for j, h := range row.Cells {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := s.header[key]; !dup {
			s.header[key] = j
		}
	}
	check := func(b Binding) error {
		if b.Column == "" || b.Optional {
			return nil
		}
		if _, ok := s.header[normalizeHeader(b.Column)]; !ok {
			return NewMappingError(s.sheet, row.R, b.Column, ErrColumnNotFound)
		}
		return nil
	}
	for _, b := range s.mapping.Sample {
		if err := check(b); err != nil {
			return err
		}
	}
	for _, b := range s.mapping.MeasureFields {
		if err := check(b); err != nil {
			return err
		}
	}
	found := 0
	for _, mb := range s.mapping.Measures {
		if _, ok := s.header[normalizeHeader(mb.Column)]; ok {
			found++
		} else {
			s.logger.Debug("Measure column absent", zap.String("column", mb.Column))
		}
	}
	if found == 0 && len(s.mapping.Measures) > 0 {
		s.logger.Warn("No measure columns found in header")
	}
	return nil
}

func (s *sheetMapping) cell(row sheetRow, column string) (string, bool) {
	j, ok := s.header[normalizeHeader(column)]
	if !ok || j >= len(row.Cells) {
		return "", false
	}
	return row.Cells[j], true
}

// bind resolves b on row for a field of the given kind.
func (s *sheetMapping) bind(row sheetRow, field string, kind models.Kind, b Binding) string {
	if b.Column != "" {
		if raw, ok := s.cell(row, b.Column); ok && strings.TrimSpace(raw) != "" {
			v, ok := normalize(raw, kind, s.date1904)
			if ok {
				return v
			}
			s.logger.Warn("Unreadable cell",
				zap.Int("row", row.R), zap.String("column", b.Column),
				zap.String("field", field), zap.String("value", raw))
			return models.NA
		}
	}
	v, _ := normalize(b.Value, kind, s.date1904)
	return v
}

func (s *sheetMapping) bindAll(row sheetRow, spec models.TableSpec, bindings map[string]Binding) map[string]string {
	values := make(map[string]string, len(bindings))
	for field, v := range s.mapping.Defaults[spec.Attr] {
		values[field] = v
	}
	for field, b := range bindings {
		f, _ := spec.Field(field)
		if v := s.bind(row, field, f.Kind, b); v != models.NA {
			values[field] = v
		} else if _, ok := values[field]; !ok {
			values[field] = models.NA
		}
	}
	return values
}

// mapRow appends the Sample, WWMeasure and SiteMeasure rows of one sheet
// row. It reports whether the row held a sample.
func (s *sheetMapping) mapRow(row sheetRow, tables map[string]*models.Table) bool {
	sampleSpec, _ := models.Spec("sample")
	wwSpec, _ := models.Spec("ww_measure")
	smSpec, _ := models.Spec("site_measure")

	sample := s.bindAll(row, sampleSpec, s.mapping.Sample)
	sampleID := sample["sampleID"]
	if sampleID == models.NA {
		s.logger.Debug("Skipping row without sample ID", zap.Int("row", row.R))
		return false
	}
	tables["sample"].AppendRow(sample)

	shared := s.bindAll(row, wwSpec, s.mapping.MeasureFields)
	for _, mb := range s.mapping.Measures {
		raw, ok := s.cell(row, mb.Column)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		values := make(map[string]string, len(wwSpec.Fields))
		for k, v := range shared {
			values[k] = v
		}
		aggregation := orDefault(mb.Aggregation, "single")
		index := shared["index"]
		if index == models.NA {
			index = s.nextReplicate(sampleID, mb.Type, mb.Unit, aggregation)
		}
		wwID := strings.Join([]string{sampleID, mb.Type, mb.Unit, aggregation, index}, "_")
		values["uWwMeasureID"] = stableID(s.labID, wwID)
		values["wwMeasureID"] = wwID
		values["sampleID"] = sampleID
		values["labID"] = s.labID
		setNonEmpty(values, "assayMethodID", mb.AssayMethodID)
		setNonEmpty(values, "fractionAnalyzed", mb.FractionAnalyzed)
		values["type"] = mb.Type
		setNonEmpty(values, "typeDescription", mb.TypeDescription)
		values["unit"] = mb.Unit
		values["aggregation"] = aggregation
		values["index"] = index
		if v, ok := normalizeNumber(raw); ok {
			values["value"] = v
			values["qualityFlag"] = "False"
		} else {
			// ND, <LOD and similar lab annotations
			values["value"] = models.NA
			values["qualityFlag"] = "True"
			values["notes"] = strings.TrimSpace(raw)
		}
		tables["ww_measure"].AppendRow(values)
	}

	when := firstOf(sample["dateTimeEnd"], sample["dateTime"], sample["dateTimeStart"])
	siteID := sample["siteID"]
	for _, sb := range s.mapping.SiteMeasures {
		raw, ok := s.cell(row, sb.Column)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, ok := normalizeNumber(raw)
		if !ok {
			s.logger.Warn("Unreadable site measure",
				zap.Int("row", row.R), zap.String("column", sb.Column), zap.String("value", raw))
			continue
		}
		aggregation := orDefault(sb.Aggregation, "single")
		smID := strings.Join([]string{siteID, when, sb.Type, sb.Unit, aggregation}, "_")
		values := make(map[string]string, len(smSpec.Fields))
		for k, dv := range s.mapping.Defaults["site_measure"] {
			values[k] = dv
		}
		values["uSiteMeasureID"] = stableID(s.labID, smID)
		values["siteMeasureID"] = smID
		values["siteID"] = siteID
		setNonEmpty(values, "instrumentID", sb.InstrumentID)
		setNonEmpty(values, "reporterID", s.mapping.ReporterID)
		values["dateTime"] = when
		values["type"] = sb.Type
		values["unit"] = sb.Unit
		values["aggregation"] = aggregation
		values["value"] = v
		tables["site_measure"].AppendRow(values)
	}
	return true
}

// addStatic appends the mapping's literal rows, plus a Lab row for the lab
// when no Lab row carries its ID.
func (s *sheetMapping) addStatic(tables map[string]*models.Table) {
	for _, spec := range models.Schema() {
		for _, row := range s.mapping.Static[spec.Attr] {
			values := make(map[string]string, len(row))
			for field, raw := range row {
				f, _ := spec.Field(field)
				v, ok := normalize(raw, f.Kind, s.date1904)
				if !ok {
					v = models.NA
				}
				values[field] = v
			}
			tables[spec.Attr].AppendRow(values)
		}
	}
	if s.labID == "" {
		return
	}
	for _, id := range tables["lab"].Column("labID") {
		if id == s.labID {
			return
		}
	}
	tables["lab"].AppendRow(map[string]string{"labID": s.labID})
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Big-Life-Lab/ODM"))

// stableID derives a name-based UUID so repeated runs give the same IDs.
func stableID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "/"))).String()
}

// nextReplicate numbers the measures of one sample, type, unit and
// aggregation 1, 2, ... in the order the sheet lists them.
func (s *sheetMapping) nextReplicate(parts ...string) string {
	key := strings.Join(parts, "\x1f")
	s.replicates[key]++
	return strconv.Itoa(s.replicates[key])
}

// setNonEmpty stores v under field unless v is empty, so a mapping default
// survives a measure binding that leaves the field out.
func setNonEmpty(values map[string]string, field, v string) {
	if v != "" {
		values[field] = v
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != models.NA {
			return v
		}
	}
	return models.NA
}
