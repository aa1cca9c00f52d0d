// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the datalabel CLI. It merges
// annotator result files, reports inter-annotator agreement, converts
// task and result files, and serves the same operations over HTTP.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datalabel/internal/logging"
	"github.com/pdiddy/datalabel/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured in the root PersistentPreRunE.
var logger *logging.Logger

// rootCmd is the base command for the datalabel CLI.
var rootCmd = &cobra.Command{
	Use:   "datalabel",
	Short: "Merge annotator results and measure inter-annotator agreement",
	Long: `datalabel reconciles independent annotators' judgments on a shared task
set into one consensus record per task and reports how well the annotators
agree (exact agreement, pairwise agreement, Cohen's Kappa, Fleiss' Kappa,
Krippendorff's Alpha).

Result files are JSON or YAML documents with a metadata block and a
responses list. Each response carries a task_id and one of score, choice,
choices, text, or ranking.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		}, os.Stderr)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./datalabel.yaml or ~/.config/datalabel/datalabel.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable coloured output")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("merge.strategy", "majority")
	viper.SetDefault("merge.min_annotators", 2)
	viper.SetDefault("merge.archive", false)
	viper.SetDefault("agreement.color", true)
	viper.SetDefault("export.sheet_name", "responses")
	viper.SetDefault("store.path", "datalabel.db")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8210)
	viper.SetDefault("server.max_body_bytes", 32<<20)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func initConfig() {
	// .env values become environment variables before viper reads them.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("datalabel")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "datalabel"))
		}
	}

	viper.SetEnvPrefix("DATALABEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// bindFlags binds the named flags of cmd to config keys. It runs in a
// command's PreRunE because viper holds one binding per key and several
// commands share keys.
func bindFlags(cmd *cobra.Command, keyToFlag map[string]string) error {
	for key, name := range keyToFlag {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// useColor reports whether coloured output is enabled for cmd.
func useColor(cmd *cobra.Command) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return !noColor && !color.NoColor && viper.GetBool("agreement.color")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
