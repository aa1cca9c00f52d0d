// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datalabel/internal/agreement"
	"github.com/pdiddy/datalabel/internal/loader"
	"github.com/pdiddy/datalabel/internal/render"
)

var iaaCmd = &cobra.Command{
	Use:   "iaa FILE FILE [FILE...]",
	Short: "Report inter-annotator agreement",
	Long: `IAA computes agreement over the tasks every annotator answered: the exact
agreement rate, pairwise agreement and Cohen's Kappa for every annotator
pair, Fleiss' Kappa, and a nominal Krippendorff's Alpha.

Fewer than two annotators or no common tasks is reported as an error and
the command exits non-zero.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"agreement.json": "json"})
	},
	RunE: runIAA,
}

func runIAA(cmd *cobra.Command, args []string) error {
	if need := viper.GetInt("merge.min_annotators"); len(args) < need {
		return fmt.Errorf("at least %d result files required, got %d", need, len(args))
	}

	sets, err := loader.LoadAll(cmd.Context(), args)
	if err != nil {
		return err
	}

	report := agreement.NewEngine(logger).Compute(sets)

	w := cmd.OutOrStdout()
	if viper.GetBool("agreement.json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		return report.Err()
	}

	if report.Failed() {
		return report.Err()
	}
	render.New(w, useColor(cmd)).Agreement(report)
	return nil
}

func init() {
	iaaCmd.Flags().Bool("json", false, "print the report as JSON")

	rootCmd.AddCommand(iaaCmd)
}
