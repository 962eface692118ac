package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukaji3/wbeodm-go/pkg/odm"
	"github.com/ukaji3/wbeodm-go/pkg/odm/influx"
	"github.com/ukaji3/wbeodm-go/pkg/odm/models"
	"go.uber.org/zap"
)

func newCombineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Write the per-sample view of an ODM csv export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, prefix := a.csvSource(cmd)
			out, _ := cmd.Flags().GetString("out")
			table, _ := cmd.Flags().GetString("table")

			store, err := a.loadCSV(cmd.Context(), dir, prefix)
			if err != nil {
				return err
			}
			var view *models.Table
			if table != "" {
				if view, err = store.Prepared(table); err != nil {
					return err
				}
			} else if view, err = store.CombinePerSample(); err != nil {
				return err
			}
			if err := odm.WriteTableCSV(out, view); err != nil {
				return err
			}
			a.logger.Info("Wrote combined table",
				zap.String("path", out),
				zap.Int("rows", view.Len()),
				zap.Int("columns", len(view.Columns())))
			return nil
		},
	}
	csvFlags(cmd)
	cmd.Flags().StringP("out", "o", "combined.csv", "Output csv file")
	cmd.Flags().String("table", "", "Write the prepared form of one table (sample, ww_measure, site_measure, site, polygon, cphd) instead")
	return cmd
}

func newGeoJSONCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geojson",
		Short: "Export the polygons of an ODM csv export as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, prefix := a.csvSource(cmd)
			out, _ := cmd.Flags().GetString("out")
			types, _ := cmd.Flags().GetStringSlice("type")

			store, err := a.loadCSV(cmd.Context(), dir, prefix)
			if err != nil {
				return err
			}
			fc := store.GeoJSON(types...)
			data, err := json.Marshal(fc)
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			a.logger.Info("Exported polygons", zap.Int("features", len(fc.Features)))
			return writeOutput(cmd, out, data)
		},
	}
	csvFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringSlice("type", nil, "Polygon types to keep, e.g. swrCat")
	return cmd
}

func newSQLiteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlite",
		Short: "Upsert an ODM csv export into an SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, prefix := a.csvSource(cmd)
			db, _ := cmd.Flags().GetString("db")
			tables, _ := cmd.Flags().GetStringSlice("table")

			store, err := a.loadCSV(cmd.Context(), dir, prefix)
			if err != nil {
				return err
			}
			return store.ToSQLite(cmd.Context(), db, tables...)
		},
	}
	csvFlags(cmd)
	cmd.Flags().String("db", "odm.db", "SQLite database file")
	cmd.Flags().StringSlice("table", nil, "Tables to write (default: all non-empty)")
	return cmd
}

func newJSONCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Encode an ODM csv export as one JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, prefix := a.csvSource(cmd)
			out, _ := cmd.Flags().GetString("out")
			pretty, _ := cmd.Flags().GetBool("pretty")

			store, err := a.loadCSV(cmd.Context(), dir, prefix)
			if err != nil {
				return err
			}
			var data []byte
			if pretty {
				data, err = json.MarshalIndent(store, "", "  ")
			} else {
				data, err = json.Marshal(store)
			}
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			return writeOutput(cmd, out, data)
		},
	}
	csvFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
	return cmd
}

func newInfluxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "influx",
		Short: "Write the measures of an ODM csv export to InfluxDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, prefix := a.csvSource(cmd)
			ic := influx.Config(a.cfg.Influx)
			override(cmd, "url", &ic.URL, cmd.Flags().GetString)
			override(cmd, "org", &ic.Org, cmd.Flags().GetString)
			override(cmd, "bucket", &ic.Bucket, cmd.Flags().GetString)
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			store, err := a.loadCSV(ctx, dir, prefix)
			if err != nil {
				return err
			}
			points := influx.Points(store)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d points\n", len(points))
				return nil
			}

			w, err := influx.NewWriter(ic, a.logger)
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Check(ctx); err != nil {
				return err
			}
			return w.Write(ctx, points)
		},
	}
	csvFlags(cmd)
	cmd.Flags().String("url", "", "InfluxDB URL (default: influx.url from config)")
	cmd.Flags().String("org", "", "InfluxDB organization")
	cmd.Flags().String("bucket", "", "InfluxDB bucket")
	cmd.Flags().Bool("dry-run", false, "Count the points without writing them")
	return cmd
}
