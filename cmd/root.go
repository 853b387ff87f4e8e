package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "zilean",
	Short: "League of Legends timeline feature extraction",
	Long: "Turns Riot match-v5 timelines into lane-by-lane team difference features at chosen minutes, " +
		"and crawls, aggregates, splits and serves the resulting tables.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
