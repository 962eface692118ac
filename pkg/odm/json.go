package odm

import (
	"encoding/json"
	"fmt"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

// frame is the split orientation of a table: column names and rows,
// with missing values as null.
type frame struct {
	Columns []string    `json:"columns"`
	Data    [][]*string `json:"data"`
}

type encodedTable struct {
	Frame frame `json:"__DataFrame__"`
}

type encodedOdm struct {
	Tables map[string]encodedTable `json:"__Odm__"`
}

// MarshalJSON encodes the container as {"__Odm__": {attr: {"__DataFrame__": ...}}}.
func (o *Odm) MarshalJSON() ([]byte, error) {
	enc := encodedOdm{Tables: make(map[string]encodedTable, len(o.tables))}
	for attr, t := range o.tables {
		f := frame{Columns: t.Columns(), Data: make([][]*string, t.Len())}
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			cells := make([]*string, len(row))
			for j := range row {
				if row[j] != models.NA {
					v := row[j]
					cells[j] = &v
				}
			}
			f.Data[i] = cells
		}
		enc.Tables[attr] = encodedTable{Frame: f}
	}
	return json.Marshal(enc)
}

// UnmarshalJSON restores a container encoded by MarshalJSON.
func (o *Odm) UnmarshalJSON(data []byte) error {
	var enc encodedOdm
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	if enc.Tables == nil {
		return fmt.Errorf("missing __Odm__ object")
	}
	blank := New(nil)
	if o.logger != nil {
		blank.logger = o.logger
	}
	for attr, et := range enc.Tables {
		if _, ok := models.Spec(attr); !ok {
			return fmt.Errorf("unknown table %q", attr)
		}
		t := models.NewTable(et.Frame.Columns...)
		for i, cells := range et.Frame.Data {
			row := make([]string, len(cells))
			for j, c := range cells {
				if c != nil {
					row[j] = *c
				}
			}
			if err := t.AppendValues(row); err != nil {
				return fmt.Errorf("%s row %d: %w", attr, i, err)
			}
		}
		blank.tables[attr] = t
	}
	*o = *blank
	return nil
}
