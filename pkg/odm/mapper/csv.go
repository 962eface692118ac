package mapper

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"
)

// CSVNA is the token written for missing values in ODM CSV files.
const CSVNA = "na"

var bom = []byte{0xef, 0xbb, 0xbf}

// CSVMapper reads back a directory of <prefix>_<Table>.csv files.
type CSVMapper struct {
	// Prefix selects a file prefix. Empty picks the greatest prefix found,
	// which for date-stamped prefixes is the latest export.
	Prefix string

	logger *zap.Logger
	tables map[string]*models.Table
}

// NewCSVMapper creates a CSV mapper.
func NewCSVMapper(prefix string, logger *zap.Logger) *CSVMapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVMapper{
		Prefix: prefix,
		logger: logger.Named("csv_mapper"),
		tables: emptyTables(),
	}
}

// Tables returns the loaded tables keyed by container attribute.
func (m *CSVMapper) Tables() map[string]*models.Table {
	return m.tables
}

// Validate checks the loaded tables against the ODM schema.
func (m *CSVMapper) Validate() error {
	return models.ValidateTables(m.tables)
}

// csvFile is an ODM CSV file split into prefix and table.
type csvFile struct {
	path   string
	prefix string
	spec   models.TableSpec
}

// splitCSVName parses "<prefix>_<Table>.csv".
func splitCSVName(name string) (prefix string, spec models.TableSpec, ok bool) {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return "", models.TableSpec{}, false
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return "", models.TableSpec{}, false
	}
	spec, ok = models.SpecByName(base[idx+1:])
	return base[:idx], spec, ok
}

// Read loads the ODM CSV files found in dir.
func (m *CSVMapper) Read(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return err
	}

	var files []csvFile
	prefixes := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		prefix, spec, ok := splitCSVName(e.Name())
		if !ok {
			continue
		}
		files = append(files, csvFile{path: filepath.Join(dir, e.Name()), prefix: prefix, spec: spec})
		prefixes[prefix] = true
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no ODM csv files in %s", ErrNoData, dir)
	}

	prefix := m.Prefix
	if prefix == "" {
		all := make([]string, 0, len(prefixes))
		for p := range prefixes {
			all = append(all, p)
		}
		sort.Strings(all)
		prefix = all[len(all)-1]
	} else if !prefixes[prefix] {
		return fmt.Errorf("%w: no files with prefix %q in %s", ErrFileNotFound, prefix, dir)
	}

	for _, cf := range files {
		if cf.prefix != prefix {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := readCSVTable(cf.path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filepath.Base(cf.path), err)
		}
		m.tables[cf.spec.Attr] = m.tables[cf.spec.Attr].Concat(t)
		m.logger.Debug("Loaded ODM csv",
			zap.String("file", filepath.Base(cf.path)),
			zap.String("table", cf.spec.Name),
			zap.Int("rows", t.Len()))
	}
	m.logger.Info("Read ODM csv directory", zap.String("dir", dir), zap.String("prefix", prefix))
	return nil
}

func readCSVTable(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	t := models.NewTable(records[0]...)
	if len(t.Columns()) != len(records[0]) {
		return nil, fmt.Errorf("duplicate column in header")
	}
	for i, rec := range records[1:] {
		for j, v := range rec {
			if v == CSVNA {
				rec[j] = models.NA
			}
		}
		if err := t.AppendValues(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return t, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, bom)
	reader := csv.NewReader(bytes.NewReader(data))
	return reader.ReadAll()
}
