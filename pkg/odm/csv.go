package odm

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ukaji3/wbeodm-go/pkg/odm/mapper"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CSVFileName returns the file name of an ODM table exported with prefix.
func CSVFileName(prefix string, spec models.TableSpec) string {
	return prefix + "_" + spec.Name + ".csv"
}

// ToCSV writes one <prefix>_<Table>.csv file per table into dir, creating
// dir if needed. Missing values are written as "na". Without attrs every
// non-empty table is written. It returns the paths written.
func (o *Odm) ToCSV(ctx context.Context, dir, prefix string, attrs ...string) ([]string, error) {
	specs, err := o.selectSpecs(attrs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		t := o.tables[spec.Attr]
		path := filepath.Join(dir, CSVFileName(prefix, spec))
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeCSV(path, t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.Info("Wrote ODM csv files",
		zap.String("dir", dir),
		zap.String("prefix", prefix),
		zap.Int("files", len(paths)))
	return paths, nil
}

// selectSpecs resolves attrs to specs, defaulting to the non-empty tables.
func (o *Odm) selectSpecs(attrs []string) ([]models.TableSpec, error) {
	var specs []models.TableSpec
	if len(attrs) == 0 {
		for _, spec := range models.Schema() {
			if !o.tables[spec.Attr].Empty() {
				specs = append(specs, spec)
			}
		}
		return specs, nil
	}
	for _, attr := range attrs {
		spec, ok := models.Spec(attr)
		if !ok {
			return nil, fmt.Errorf("unknown table %q", attr)
		}
		if o.tables[attr].Empty() {
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// WriteTableCSV writes t to path with missing values written as "na".
func WriteTableCSV(path string, t *models.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return writeCSV(path, t)
}

func writeCSV(path string, t *models.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	writer := csv.NewWriter(file)
	for i, record := range t.Records(mapper.CSVNA) {
		if err := writer.Write(record); err != nil {
			file.Close()
			return fmt.Errorf("failed to write record %d of %s: %w", i, filepath.Base(path), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
