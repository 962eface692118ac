package models

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// naElement is how a gota string series renders a missing element.
const naElement = "NaN"

// Frame returns t as a gota DataFrame holding one string series per column.
// NA cells become missing elements. A table without columns gives a
// DataFrame whose Err is set.
func (t *Table) Frame() dataframe.DataFrame {
	cols := make([]series.Series, len(t.columns))
	for j, c := range t.columns {
		values := make([]string, len(t.rows))
		for i, row := range t.rows {
			values[i] = row[j]
			if values[i] == NA {
				values[i] = naElement
			}
		}
		cols[j] = series.New(values, series.String, c)
	}
	return dataframe.New(cols...)
}

// FromFrame converts df into a table. Missing elements become NA, and so
// do cells reading NaN, which gota does not tell apart.
func FromFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	records := df.Records()
	t := NewTable(records[0]...)
	if len(t.columns) != len(records[0]) {
		return nil, fmt.Errorf("frame has repeated column names: %v", records[0])
	}
	t.rows = make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		for j, v := range rec {
			if v == naElement {
				rec[j] = NA
			}
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// mustTable converts the result of a DataFrame operation whose inputs the
// caller already checked.
func mustTable(df dataframe.DataFrame) *Table {
	t, err := FromFrame(df)
	if err != nil {
		panic("models: " + err.Error())
	}
	return t
}

func naSeries(name string, n int) series.Series {
	values := make([]string, n)
	for i := range values {
		values[i] = naElement
	}
	return series.New(values, series.String, name)
}
