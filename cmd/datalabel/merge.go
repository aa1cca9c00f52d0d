// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datalabel/internal/loader"
	"github.com/pdiddy/datalabel/internal/merge"
	"github.com/pdiddy/datalabel/internal/render"
	"github.com/pdiddy/datalabel/internal/store"
	"github.com/pdiddy/datalabel/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge FILE FILE [FILE...]",
	Short: "Merge annotator result files into one consensus record per task",
	Long: `Merge loads two or more annotator result files and reconciles every task
into a consensus value under the chosen strategy:

  majority  most frequent value (ties go to the smallest value)
  average   mean of scores; choices use majority, rankings Borda count
  strict    a value only when every annotator agrees

Free text is never merged automatically; the first annotator's text is kept
and every text stays in individual_values. Tasks where annotators disagree
are listed under conflicts. Pass --archive (or set merge.archive) to save the
run in the SQLite archive at store.path; --db PATH archives to PATH.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"merge.strategy":    "strategy",
			"merge.output_path": "output",
			"merge.archive":     "archive",
			"store.path":        "db",
		})
	},
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := types.MergeConfig{
		Strategy:      viper.GetString("merge.strategy"),
		OutputPath:    viper.GetString("merge.output_path"),
		MinAnnotators: viper.GetInt("merge.min_annotators"),
		Archive:       viper.GetBool("merge.archive") || cmd.Flags().Changed("db"),
	}
	if len(args) < cfg.MinAnnotators {
		return fmt.Errorf("at least %d result files required, got %d", cfg.MinAnnotators, len(args))
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("output path required: use --output")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "merging %d result files (strategy %s)\n", len(args), cfg.Strategy)

	sets, err := loader.LoadAll(cmd.Context(), args)
	if err != nil {
		return err
	}

	out, err := merge.Merge(sets, merge.Options{
		Strategy: merge.Strategy(cfg.Strategy),
		Version:  version,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	if err := merge.WriteFile(cfg.OutputPath, out); err != nil {
		return err
	}
	render.New(w, useColor(cmd)).MergeResult(out, cfg.OutputPath)

	if !cfg.Archive {
		return nil
	}
	dbPath := viper.GetString("store.path")
	s, err := store.Open(types.StoreConfig{Path: dbPath})
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SaveRun(cmd.Context(), out); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	fmt.Fprintf(w, "  archived:   %s\n", dbPath)
	return nil
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "", "merge output JSON path")
	mergeCmd.Flags().StringP("strategy", "s", "majority", "merge strategy: majority, average, strict")
	mergeCmd.Flags().Bool("archive", false, "archive the run in the SQLite database at store.path")
	mergeCmd.Flags().String("db", store.DefaultPath, "archive the run in this SQLite database (implies --archive)")

	rootCmd.AddCommand(mergeCmd)
}
