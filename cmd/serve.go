package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zilean-lol/zilean/internal/server"
)

var (
	serveIn   inputFlags
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a collection's summary, subsets, aggregates and schema over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		c, err := serveIn.open(cmd)
		if err != nil {
			return err
		}

		srv := server.New(c, server.WithAllowedOrigins(cfg.Server.AllowedOrigins))
		return srv.ListenAndServe(ctx, cfg.Server.Port)
	},
}

func init() {
	serveIn.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
