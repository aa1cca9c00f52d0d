// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datalabel/internal/dataio"
	"github.com/pdiddy/datalabel/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export RESULT",
	Short: "Convert the responses of a result or merge file to another format",
	Long: `Export reads the responses list of an annotator result file or a merge
output and writes it as json, jsonl, csv, yaml, or xlsx. The format defaults
to the output file's extension. Lists and objects are JSON encoded in csv
and xlsx cells.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"export.format":     "format",
			"export.sheet_name": "sheet",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return fmt.Errorf("output path required: use --output")
		}

		cfg := types.ExportConfig{
			Format:    types.ExportFormat(viper.GetString("export.format")),
			SheetName: viper.GetString("export.sheet_name"),
		}
		if cfg.Format == "" {
			cfg.Format = dataio.FormatFromPath(output, types.FormatJSON)
		}

		recs, err := dataio.ReadResponses(args[0])
		if err != nil {
			return err
		}
		n, err := dataio.WriteRecords(output, recs, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%s, %d records)\n", output, cfg.Format, n)
		return nil
	},
}

var importTasksCmd = &cobra.Command{
	Use:   "import-tasks INPUT",
	Short: "Convert a task file to a DataLabel JSON task list",
	Long: `Import-tasks reads tasks from JSON, JSONL, or CSV and writes them as a JSON
list. The input format is detected from the extension unless --format is
given. A JSON object is read through its "samples" or "tasks" key. CSV cells
that hold a JSON object or list are decoded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return fmt.Errorf("output path required: use --output")
		}
		format, _ := cmd.Flags().GetString("format")

		tasks, err := dataio.ImportTasks(args[0], types.ExportFormat(format))
		if err != nil {
			return err
		}
		n, err := dataio.WriteRecords(output, tasks, types.ExportConfig{Format: types.FormatJSON})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d tasks)\n", output, n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file path")
	exportCmd.Flags().StringP("format", "f", "", "output format: json, jsonl, csv, yaml, xlsx (default: from extension)")
	exportCmd.Flags().String("sheet", "responses", "worksheet name for xlsx output")

	importTasksCmd.Flags().StringP("output", "o", "", "output JSON path")
	importTasksCmd.Flags().StringP("format", "f", "", "input format: json, jsonl, csv (default: from extension)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importTasksCmd)
}
