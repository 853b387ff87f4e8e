package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zilean-lol/zilean/internal/split"
)

var (
	splitIn        inputFlags
	splitTestSize  float64
	splitSeed      uint64
	splitOut       string
	splitOverwrite bool
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Write reproducible train_/test_ tables of per-match features",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("test-size") {
			cfg.Split.TestSize = splitTestSize
		}
		if cmd.Flags().Changed("seed") {
			cfg.Split.Seed = splitSeed
		}
		if err := cfg.Validate("split"); err != nil {
			return err
		}

		c, err := splitIn.open(cmd)
		if err != nil {
			return err
		}
		res, err := split.Collection(c, split.FromConfig(cfg.Split))
		if err != nil {
			return err
		}

		out := splitOut
		if out == "" {
			out = cfg.Export.Dir
		}
		trainPath, testPath, err := res.ToDisk(out, c.Frames(), splitOverwrite || cfg.Export.Overwrite)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "train: %d rows -> %s\ntest:  %d rows -> %s\n",
			len(res.Train), trainPath, len(res.Test), testPath)
		return nil
	},
}

func init() {
	splitIn.register(splitCmd)
	splitCmd.Flags().Float64Var(&splitTestSize, "test-size", 0.33, "fraction of matches in the test set")
	splitCmd.Flags().Uint64Var(&splitSeed, "seed", 42, "shuffle seed")
	splitCmd.Flags().StringVar(&splitOut, "out", "", "output directory (default from config)")
	splitCmd.Flags().BoolVar(&splitOverwrite, "overwrite", false, "replace existing train_/test_ files")
	rootCmd.AddCommand(splitCmd)
}
