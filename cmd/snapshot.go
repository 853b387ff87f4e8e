package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/snapshots"
)

var (
	snapshotIn           inputFlags
	snapshotFeatures     []string
	snapshotLanes        []string
	snapshotSubsetFrames []int
	snapshotOut          string
	snapshotFormat       string
	snapshotOverwrite    bool
	snapshotVerbose      bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Extract lane difference features and write match_/frame_ tables",
	Example: `  zilean snapshot --input data/matches.json --frames 8,12
  zilean snapshot --input data/match_8_12.csv --features xp,totalGold --lanes MID --out data/mid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("snapshot"); err != nil {
			return err
		}

		opts := snapshotIn.options(cmd)
		opts.Overwrite = opts.Overwrite || snapshotOverwrite

		c, err := snapshots.Open(snapshotIn.input, opts)
		if err != nil {
			return err
		}

		if len(snapshotFeatures) > 0 || len(snapshotLanes) > 0 || len(snapshotSubsetFrames) > 0 {
			c, err = c.Subset(snapshots.Filter{
				Features: snapshotFeatures,
				Lanes:    snapshotLanes,
				Frames:   snapshotSubsetFrames,
			})
			if err != nil {
				return err
			}
		}

		out := snapshotOut
		if out == "" {
			out = cfg.Export.Dir
		}
		format := snapshotFormat
		if format == "" {
			format = cfg.Export.Format
		}

		switch format {
		case "csv":
			if err := c.ToDisk(out, snapshotVerbose); err != nil {
				return err
			}
			matchName, frameName := snapshots.FileNames(c.Frames())
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d matches to %s and %s in %s\n", c.Len(), matchName, frameName, out)
		case "xlsx":
			path, err := c.ToXLSX(out, snapshotVerbose)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d matches to %s\n", c.Len(), path)
		default:
			return eris.Wrapf(snapshots.ErrUsage, "unknown format %q (want csv or xlsx)", format)
		}

		zap.L().Info("snapshot complete",
			zap.String("input", snapshotIn.input),
			zap.Ints("frames", c.Frames()),
			zap.Int("matches", c.Len()),
		)
		return nil
	},
}

func init() {
	snapshotIn.register(snapshotCmd)
	snapshotCmd.Flags().StringSliceVar(&snapshotFeatures, "features", nil, "keep only these stats (e.g. xp,totalGold)")
	snapshotCmd.Flags().StringSliceVar(&snapshotLanes, "lanes", nil, "keep only these lanes (TOP,JUG,MID,BOT,SUP or 0-4)")
	snapshotCmd.Flags().IntSliceVar(&snapshotSubsetFrames, "subset-frames", nil, "keep only these frames")
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "", "output directory (default from config)")
	snapshotCmd.Flags().StringVar(&snapshotFormat, "format", "", "csv or xlsx (default from config)")
	snapshotCmd.Flags().BoolVar(&snapshotOverwrite, "overwrite", false, "replace existing result files")
	snapshotCmd.Flags().BoolVarP(&snapshotVerbose, "verbose", "v", false, "log each file written")
	rootCmd.AddCommand(snapshotCmd)
}
