package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidData is wrapped by every ValidationError.
var ErrInvalidData = errors.New("invalid ODM data")

// Issue is a single validation failure.
type Issue struct {
	Table string
	Row   int // 0-based data row; -1 for table-level issues
	Field string
	Value string
	Rule  string
}

func (i Issue) String() string {
	if i.Row < 0 {
		return fmt.Sprintf("%s.%s: %s", i.Table, i.Field, i.Rule)
	}
	return fmt.Sprintf("%s[%d].%s=%q: %s", i.Table, i.Row, i.Field, i.Value, i.Rule)
}

// ValidationError lists the issues found in a set of tables.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	const max = 10
	parts := make([]string, 0, max)
	for i, is := range e.Issues {
		if i == max {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Issues)-max))
			break
		}
		parts = append(parts, is.String())
	}
	return fmt.Sprintf("%v: %s", ErrInvalidData, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidData
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterValidation("odmnumber", func(fl validator.FieldLevel) bool {
			_, ok := ParseNumber(fl.Field().String())
			return ok
		})
		v.RegisterValidation("odmdatetime", func(fl validator.FieldLevel) bool {
			_, ok := ParseDateTime(fl.Field().String())
			return ok
		})
		v.RegisterValidation("odmbool", func(fl validator.FieldLevel) bool {
			_, ok := ParseBool(fl.Field().String())
			return ok
		})
		validate = v
	})
	return validate
}

// Tag returns the validator tag checked on non-empty values of f.
func (f Field) Tag() string {
	var tags []string
	switch f.Kind {
	case KindNumber:
		tags = append(tags, "odmnumber")
	case KindDateTime:
		tags = append(tags, "odmdatetime")
	case KindBool:
		tags = append(tags, "odmbool")
	}
	if f.Validate != "" {
		tags = append(tags, f.Validate)
	}
	return strings.Join(tags, ",")
}

// ValidateTable checks t against spec: every column must be an ODM field,
// the ID column must be filled and non-empty cells must match their kind.
func ValidateTable(spec TableSpec, t *Table) []Issue {
	var issues []Issue
	if t == nil {
		return nil
	}
	v := getValidator()
	fields := make([]Field, len(t.columns))
	for j, col := range t.columns {
		f, ok := spec.Field(col)
		if !ok {
			issues = append(issues, Issue{Table: spec.Name, Row: -1, Field: col, Rule: "not an ODM field"})
			continue
		}
		fields[j] = f
	}
	id := t.Index(spec.IDField())
	for i, row := range t.rows {
		if id >= 0 && strings.TrimSpace(row[id]) == "" {
			issues = append(issues, Issue{Table: spec.Name, Row: i, Field: spec.IDField(), Rule: "required"})
		}
		for j, val := range row {
			if val == NA || fields[j].Name == "" {
				continue
			}
			tag := fields[j].Tag()
			if tag == "" {
				continue
			}
			if err := v.Var(val, tag); err != nil {
				var verrs validator.ValidationErrors
				rule := tag
				if errors.As(err, &verrs) && len(verrs) > 0 {
					rule = verrs[0].Tag()
				}
				issues = append(issues, Issue{Table: spec.Name, Row: i, Field: fields[j].Name, Value: val, Rule: rule})
			}
		}
	}
	return issues
}

// ValidateTables validates every table keyed by container attribute.
// It returns nil or a *ValidationError.
func ValidateTables(tables map[string]*Table) error {
	var issues []Issue
	for _, spec := range schema {
		t, ok := tables[spec.Attr]
		if !ok {
			continue
		}
		issues = append(issues, ValidateTable(spec, t)...)
	}
	for attr := range tables {
		if _, ok := Spec(attr); !ok {
			issues = append(issues, Issue{Table: attr, Row: -1, Field: "*", Rule: "unknown table"})
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
