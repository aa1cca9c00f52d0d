// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/pdiddy/datalabel/internal/loader"
	"github.com/pdiddy/datalabel/internal/render"
	"github.com/pdiddy/datalabel/internal/summary"
)

var statsCmd = &cobra.Command{
	Use:   "stats FILE [FILE...]",
	Short: "Summarise value distributions across result files",
	Long: `Stats reports per-annotator progress and the distribution of annotation
values. Multi-choice answers count every selected item, rankings count the
first-place item, and free text is not counted. Scores also get mean,
median, standard deviation, min, and max.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, err := loader.LoadAll(cmd.Context(), args)
		if err != nil {
			return err
		}
		s := summary.Compute(sets)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		render.New(cmd.OutOrStdout(), useColor(cmd)).Summary(s)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "print the summary as JSON")

	rootCmd.AddCommand(statsCmd)
}
