// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datalabel/internal/render"
	"github.com/pdiddy/datalabel/internal/store"
	"github.com/pdiddy/datalabel/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List merge runs archived with merge --archive",
	Long: `Runs lists the merge runs archived in the SQLite database, newest first.
With --conflicts RUN_ID it prints the conflicts recorded for that run.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"store.path": "db"})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(types.StoreConfig{Path: viper.GetString("store.path")})
		if err != nil {
			return err
		}
		defer s.Close()

		w := cmd.OutOrStdout()
		p := render.New(w, useColor(cmd))
		jsonOutput, _ := cmd.Flags().GetBool("json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		runID, _ := cmd.Flags().GetString("conflicts")
		if runID != "" {
			conflicts, err := s.RunConflicts(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return enc.Encode(conflicts)
			}
			p.Conflicts(conflicts)
			return nil
		}

		runs, err := s.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return enc.Encode(runs)
		}
		p.Runs(runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().String("db", "datalabel.db", "SQLite archive path")
	runsCmd.Flags().String("conflicts", "", "print the conflicts of this run ID")
	runsCmd.Flags().Bool("json", false, "print as JSON")

	rootCmd.AddCommand(runsCmd)
}
