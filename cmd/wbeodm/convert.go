package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukaji3/wbeodm-go/pkg/odm"
	"github.com/ukaji3/wbeodm-go/pkg/odm/mapper"
	"go.uber.org/zap"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Map a lab workbook to ODM csv files",
		Long: `convert reads the lab analyses sheet of a workbook, maps it to the ODM
tables and writes one <tag><date>_<Table>.csv file per non-empty table.`,
		Args: cobra.NoArgs,
		RunE: a.runConvert,
	}
	cmd.Flags().StringP("input", "i", "", "Lab workbook (.xlsx)")
	cmd.Flags().String("sheet", "", `Sheet to read (default "Lab analyses")`)
	cmd.Flags().String("mapping", "", "Mapping file (YAML, default: built-in)")
	cmd.Flags().String("static", "", "Workbook with static ODM tables (Site, Lab, Polygon...)")
	cmd.Flags().String("tag", "", "Output file prefix placed before the date")
	cmd.Flags().StringP("out", "o", "", `Output directory (default "odm_csv")`)
	cmd.Flags().Int("header-row", 0, "1-based header row (default: first non-empty row)")
	cmd.Flags().String("range", "", "Cell range to read, e.g. A1:K400")
	cmd.Flags().String("lab-id", "", "Lab ID overriding the mapping")
	cmd.Flags().String("append-csv", "", "Existing ODM csv directory to merge the new rows into")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := *a.cfg
	override(cmd, "input", &c.Input, cmd.Flags().GetString)
	override(cmd, "sheet", &c.Sheet, cmd.Flags().GetString)
	override(cmd, "mapping", &c.Mapping, cmd.Flags().GetString)
	override(cmd, "static", &c.Static, cmd.Flags().GetString)
	override(cmd, "tag", &c.Tag, cmd.Flags().GetString)
	override(cmd, "out", &c.OutputDir, cmd.Flags().GetString)
	override(cmd, "header-row", &c.HeaderRow, cmd.Flags().GetInt)
	override(cmd, "range", &c.Range, cmd.Flags().GetString)
	override(cmd, "lab-id", &c.LabID, cmd.Flags().GetString)
	appendDir, _ := cmd.Flags().GetString("append-csv")

	if c.Input == "" {
		return fmt.Errorf("no input workbook: set --input or input in the config")
	}

	opts := mapper.Options{
		HeaderRow: c.HeaderRow,
		Range:     c.Range,
		LabID:     c.LabID,
		Logger:    a.logger,
	}
	if c.Mapping != "" {
		m, err := mapper.LoadMapping(c.Mapping)
		if err != nil {
			return err
		}
		opts.Mapping = m
	}

	m := mapper.NewExcelMapper(opts)
	if c.Static != "" {
		if err := m.ReadStatic(ctx, c.Static); err != nil {
			return fmt.Errorf("failed to read static tables: %w", err)
		}
	}
	if err := m.Read(ctx, c.Input, c.Sheet); err != nil {
		return fmt.Errorf("failed to map %s: %w", c.Input, err)
	}

	store := odm.New(a.logger)
	if appendDir != "" {
		prev, err := a.loadCSV(ctx, appendDir, "")
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", appendDir, err)
		}
		store = prev
		if err := store.AppendFrom(m); err != nil {
			return err
		}
	} else if err := store.LoadFrom(m); err != nil {
		return err
	}

	prefix := odm.DatePrefix(c.Tag, a.now())
	paths, err := store.ToCSV(ctx, c.OutputDir, prefix)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	a.logger.Info("Converted lab workbook",
		zap.String("input", c.Input),
		zap.String("prefix", prefix),
		zap.Int("files", len(paths)))
	return nil
}
