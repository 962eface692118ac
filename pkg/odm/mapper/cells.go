package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"github.com/xuri/excelize/v2"
)

// area is a 1-based inclusive cell range.
type area struct {
	R1, C1, R2, C2 int
}

func (a *area) contains(row, col int) bool {
	if a == nil {
		return true
	}
	return row >= a.R1 && row <= a.R2 && col >= a.C1 && col <= a.C2
}

// parseArea parses a range string like $A$1:$D$10.
func parseArea(rangeStr string) (*area, error) {
	if rangeStr == "" {
		return nil, nil
	}
	rangeStr = strings.ReplaceAll(rangeStr, "$", "")
	if idx := strings.LastIndex(rangeStr, "!"); idx >= 0 {
		rangeStr = rangeStr[idx+1:]
	}

	parts := strings.Split(rangeStr, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid range %q", rangeStr)
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", rangeStr, err)
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", rangeStr, err)
	}

	return &area{R1: startRow, C1: startCol, R2: endRow, C2: endCol}, nil
}

// sheetRow is a row of raw cell values with its 1-based sheet row number.
type sheetRow struct {
	R     int
	Cells []string
}

func (r sheetRow) empty() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// readRows returns the raw cell values of a sheet clipped to a, keeping
// the sheet row number of each row. Date cells come back as serial numbers.
func readRows(f *excelize.File, sheetName string, a *area) ([]sheetRow, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	var result []sheetRow
	for rowIdx, row := range rows {
		rowNum := rowIdx + 1
		if a != nil && (rowNum < a.R1 || rowNum > a.R2) {
			continue
		}
		var cells []string
		for colIdx, v := range row {
			if a.contains(rowNum, colIdx+1) {
				cells = append(cells, v)
			}
		}
		result = append(result, sheetRow{R: rowNum, Cells: cells})
	}
	return result, nil
}

// findHeader returns the index in rows of the header row: the row numbered
// headerRow when set, else the first non-empty row.
func findHeader(rows []sheetRow, headerRow int) int {
	for i, r := range rows {
		if headerRow > 0 {
			if r.R == headerRow {
				return i
			}
			continue
		}
		if !r.empty() {
			return i
		}
	}
	return -1
}

// normalizeNumber returns the canonical text of a numeric cell.
// Integers stay integers and decimals use the shortest exact form.
func normalizeNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	if strings.Contains(s, ",") {
		// a lone comma is a decimal separator, except before exactly
		// three digits where it may group thousands
		i := strings.Index(s, ",")
		if strings.Count(s, ",") > 1 || strings.Contains(s, ".") || len(s)-i-1 == 3 {
			return "", false
		}
		s = s[:i] + "." + s[i+1:]
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return models.FormatNumber(f), true
	}
	return "", false
}

// normalizeDateTime converts an Excel serial or a textual date.
func normalizeDateTime(s string, date1904 bool) (string, bool) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return "", false
		}
		return models.FormatDateTime(t.Round(time.Second)), true
	}
	if t, ok := models.ParseDateTime(s); ok {
		return models.FormatDateTime(t), true
	}
	return "", false
}

// normalize converts a raw cell into the canonical text for kind.
// ok is false when a non-empty cell cannot be read as kind.
func normalize(raw string, kind models.Kind, date1904 bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.NA, true
	}
	switch kind {
	case models.KindNumber:
		return normalizeNumber(raw)
	case models.KindDateTime:
		return normalizeDateTime(raw, date1904)
	case models.KindBool:
		b, ok := models.ParseBool(raw)
		if !ok {
			return "", false
		}
		return models.FormatBool(b), true
	default:
		return raw, true
	}
}
