// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datalabel/internal/server"
	"github.com/pdiddy/datalabel/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve merge and agreement over HTTP",
	Long: `Serve starts the HTTP surface:

  GET  /healthz     liveness check
  POST /merge       {"strategy": "...", "results": [result files]}
  POST /merge/iaa   {"results": [result files]}
  GET  /metrics     Prometheus metrics

Malformed input is answered with 400 and agreement preconditions with 422,
both as {"error": "..."}. The server stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"server.host": "host",
			"server.port": "port",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.New(server.Options{
			Config: types.ServerConfig{
				Host:         viper.GetString("server.host"),
				Port:         viper.GetInt("server.port"),
				MaxBodyBytes: viper.GetInt64("server.max_body_bytes"),
				ReadTimeout:  viper.GetDuration("server.read_timeout"),
				WriteTimeout: viper.GetDuration("server.write_timeout"),
			},
			Logger:  logger,
			Version: version,
		})
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8210, "listen port")

	rootCmd.AddCommand(serveCmd)
}
