package odm

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

func sqlType(k models.Kind) string {
	if k == models.KindNumber {
		return "REAL"
	}
	return "TEXT"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SchemaStatements returns one CREATE TABLE statement per ODM table,
// keyed on the table's ID column.
func SchemaStatements() []string {
	stmts := make([]string, 0, len(models.Schema()))
	for _, spec := range models.Schema() {
		defs := make([]string, 0, len(spec.Fields))
		for i, f := range spec.Fields {
			def := quoteIdent(f.Name) + " " + sqlType(f.Kind)
			if i == 0 {
				def += " PRIMARY KEY"
			}
			defs = append(defs, def)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
			quoteIdent(spec.Name), strings.Join(defs, ",\n\t")))
	}
	return stmts
}

// CreateDB creates an SQLite database at path holding the empty ODM tables.
func CreateDB(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, stmt := range SchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create ODM schema: %w", err)
		}
	}
	return nil
}

// ToSQLite upserts the tables into the SQLite database at path, creating
// it with the ODM schema if it does not exist. Rows replace stored rows
// with the same ID. Without attrs every non-empty table is written.
func (o *Odm) ToSQLite(ctx context.Context, path string, attrs ...string) error {
	specs, err := o.selectSpecs(attrs)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := CreateDB(ctx, path); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		n, err := replaceTable(ctx, tx, spec, o.tables[spec.Attr])
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to write %s: %w", spec.Name, err)
		}
		o.logger.Debug("Wrote table to sqlite", zap.String("table", spec.Name), zap.Int("rows", n))
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	o.logger.Info("Wrote ODM sqlite database", zap.String("path", path), zap.Int("tables", len(specs)))
	return nil
}

func replaceTable(ctx context.Context, tx *sql.Tx, spec models.TableSpec, t *models.Table) (int, error) {
	cols := t.Columns()
	kinds := make([]models.Kind, len(cols))
	quoted := make([]string, len(cols))
	for j, c := range cols {
		f, ok := spec.Field(c)
		if !ok {
			return 0, fmt.Errorf("column %q is not a %s field", c, spec.Name)
		}
		kinds[j] = f.Kind
		quoted[j] = quoteIdent(c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("REPLACE INTO %s (%s) VALUES (%s)",
		quoteIdent(spec.Name), strings.Join(quoted, ","), ph))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			args[j] = sqliteValue(v, kinds[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return i, err
		}
	}
	return t.Len(), nil
}

func sqliteValue(v string, k models.Kind) any {
	if v == models.NA {
		return nil
	}
	if k == models.KindNumber {
		if f, ok := models.ParseNumber(v); ok {
			return f
		}
	}
	return v
}
