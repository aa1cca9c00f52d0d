// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/pdiddy/datalabel/internal/loader"
	"github.com/pdiddy/datalabel/internal/render"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts MERGED",
	Short: "List the conflicting tasks of a merge output file",
	Long: `Conflicts prints every task of a merge output where annotators disagreed,
with each annotator's value. Text and choice values are shown as a
character diff against the first annotator's value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := loader.LoadMergeOutput(args[0])
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Conflicts)
		}
		render.New(cmd.OutOrStdout(), useColor(cmd)).Conflicts(out.Conflicts)
		return nil
	},
}

func init() {
	conflictsCmd.Flags().Bool("json", false, "print conflicts as JSON")

	rootCmd.AddCommand(conflictsCmd)
}
