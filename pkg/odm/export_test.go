package odm

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/wbeodm-go/pkg/odm/mapper"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
)

func TestToCSV(t *testing.T) {
	o := labOdm(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := o.ToCSV(context.Background(), dir, "lab_2026-10-14")
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"lab_2026-10-14_Sample.csv",
		"lab_2026-10-14_WWMeasure.csv",
		"lab_2026-10-14_Site.csv",
		"lab_2026-10-14_SiteMeasure.csv",
		"lab_2026-10-14_Polygon.csv",
	}, names)

	data, err := os.ReadFile(filepath.Join(dir, "lab_2026-10-14_Site.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(models.TableFields("Site"), ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "qc_01,Quebec East,na,"))
}

func TestToCSVSelectedTables(t *testing.T) {
	o := labOdm(t)
	dir := t.TempDir()

	paths, err := o.ToCSV(context.Background(), dir, "x", "site", "lab")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "x_Site.csv"), paths[0])

	_, err = o.ToCSV(context.Background(), dir, "x", "nope")
	assert.Error(t, err)
}

func TestToCSVRoundTrip(t *testing.T) {
	o := labOdm(t)
	dir := t.TempDir()
	_, err := o.ToCSV(context.Background(), dir, "lab_2026-10-14")
	require.NoError(t, err)

	m := mapper.NewCSVMapper("", nil)
	require.NoError(t, m.Read(context.Background(), dir))
	require.NoError(t, m.Validate())

	back := New(nil)
	require.NoError(t, back.LoadFrom(m))
	for _, attr := range models.Attrs() {
		if diff := cmp.Diff(o.Table(attr).Records(""), back.Table(attr).Records("")); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", attr, diff)
		}
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements()
	require.Len(t, stmts, len(models.Schema()))
	assert.True(t, strings.HasPrefix(stmts[0], `CREATE TABLE IF NOT EXISTS "Sample" (`))
	assert.Contains(t, stmts[0], `"sampleID" TEXT PRIMARY KEY`)
	assert.Contains(t, stmts[0], `"sizeL" REAL`)
}

func TestToSQLite(t *testing.T) {
	ctx := context.Background()
	o := labOdm(t)
	o.tables["sample"].Set(0, "sizeL", "1.5")
	path := filepath.Join(t.TempDir(), "odm.db")

	require.NoError(t, o.ToSQLite(ctx, path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	count := func(table string) int {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
		return n
	}
	assert.Equal(t, 2, count("Sample"))
	assert.Equal(t, 3, count("WWMeasure"))
	assert.Equal(t, 0, count("Lab"))

	var size sql.NullFloat64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT sizeL FROM Sample WHERE sampleID = 's1'`).Scan(&size))
	assert.Equal(t, sql.NullFloat64{Float64: 1.5, Valid: true}, size)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT sizeL FROM Sample WHERE sampleID = 's2'`).Scan(&size))
	assert.False(t, size.Valid)

	// rows with a stored ID are replaced
	o.tables["sample"].Set(0, "sizeL", "2")
	require.NoError(t, o.ToSQLite(ctx, path, "sample"))
	assert.Equal(t, 2, count("Sample"))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT sizeL FROM Sample WHERE sampleID = 's1'`).Scan(&size))
	assert.Equal(t, 2.0, size.Float64)
}

func TestMarshalJSON(t *testing.T) {
	o := labOdm(t)
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"__Odm__"`)
	assert.Contains(t, string(data), `"__DataFrame__"`)

	back := New(nil)
	require.NoError(t, json.Unmarshal(data, back))
	for _, attr := range models.Attrs() {
		if diff := cmp.Diff(o.Table(attr).Records(""), back.Table(attr).Records("")); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", attr, diff)
		}
	}

	assert.Error(t, json.Unmarshal([]byte(`{"__Odm__":{"bogus":{"__DataFrame__":{"columns":[],"data":[]}}}}`), back))
	assert.Error(t, json.Unmarshal([]byte(`{}`), back))
}
