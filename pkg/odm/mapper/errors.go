package mapper

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrSheetNotFound indicates the workbook has no sheet with the requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrColumnNotFound indicates a mapped column is missing from the header row.
var ErrColumnNotFound = errors.New("column not found")

// ErrNoData indicates the source holds no ODM rows.
var ErrNoData = errors.New("no data")

// MappingError represents an error while mapping a sheet into ODM tables.
type MappingError struct {
	Sheet  string
	Row    int    // 1-based sheet row, 0 when not row specific
	Column string // source column header
	Err    error
}

func (e *MappingError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("mapping error in sheet %q row %d (%s): %v", e.Sheet, e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("mapping error in sheet %q (%s): %v", e.Sheet, e.Column, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// NewMappingError creates a new MappingError.
func NewMappingError(sheet string, row int, column string, err error) *MappingError {
	return &MappingError{
		Sheet:  sheet,
		Row:    row,
		Column: column,
		Err:    err,
	}
}
