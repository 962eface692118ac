// Package main provides the CLI entry point for wbeodm.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukaji3/wbeodm-go/internal/config"
	"github.com/ukaji3/wbeodm-go/internal/logging"
	"github.com/ukaji3/wbeodm-go/pkg/odm"
	"github.com/ukaji3/wbeodm-go/pkg/odm/mapper"
	"go.uber.org/zap"
)

// app carries state shared by the subcommands.
type app struct {
	cfgFile string
	verbose bool
	now     func() time.Time

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{now: time.Now}
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wbeodm",
		Short: "Convert wastewater lab spreadsheets to Ottawa Data Model tables",
		Long: `wbeodm maps a lab's "Lab analyses" sheet to the tables of the
Ottawa Data Model and writes them as dated CSV files, then combines
and exports those files (per-sample view, GeoJSON, SQLite, InfluxDB).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, err = logging.New(cfg.Logging, a.verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newConvertCmd(a),
		newCombineCmd(a),
		newGeoJSONCmd(a),
		newSQLiteCmd(a),
		newJSONCmd(a),
		newInfluxCmd(a),
	)
	return rootCmd
}

// override copies a flag's value into dst when it was set on the command line.
func override[T any](cmd *cobra.Command, name string, dst *T, get func(string) (T, error)) {
	if !cmd.Flags().Changed(name) {
		return
	}
	if v, err := get(name); err == nil {
		*dst = v
	}
}

// loadCSV reads an ODM CSV export directory into a container.
func (a *app) loadCSV(ctx context.Context, dir, prefix string) (*odm.Odm, error) {
	m := mapper.NewCSVMapper(prefix, a.logger)
	if err := m.Read(ctx, dir); err != nil {
		return nil, err
	}
	store := odm.New(a.logger)
	if err := store.LoadFrom(m); err != nil {
		return nil, err
	}
	return store, nil
}

// csvFlags registers the flags selecting a CSV export to read.
func csvFlags(cmd *cobra.Command) {
	cmd.Flags().String("csv", "", "Directory of ODM csv files (default: output_dir from config)")
	cmd.Flags().String("prefix", "", "File prefix to read (default: latest)")
}

func (a *app) csvSource(cmd *cobra.Command) (dir, prefix string) {
	dir = a.cfg.OutputDir
	override(cmd, "csv", &dir, cmd.Flags().GetString)
	prefix, _ = cmd.Flags().GetString("prefix")
	return dir, prefix
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
