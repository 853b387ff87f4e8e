package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/snapshots"
)

var (
	aggIn     inputFlags
	aggType   string
	aggFunc   string
	aggOutput string
)

var aggCmd = &cobra.Command{
	Use:   "agg",
	Short: "Aggregate features across lanes (team) or across frames (frame)",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := snapshots.ParseAggKind(aggType)
		if err != nil {
			return err
		}
		fn, err := snapshots.AggFuncByName(aggFunc)
		if err != nil {
			return err
		}

		c, err := aggIn.open(cmd)
		if err != nil {
			return err
		}
		res, err := c.Agg(kind, fn)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if aggOutput != "" {
			f, err := os.Create(aggOutput)
			if err != nil {
				return eris.Wrapf(err, "agg: create %s", aggOutput)
			}
			defer f.Close()
			w = f
		}
		if err := res.WriteCSV(w); err != nil {
			return err
		}

		zap.L().Info("aggregation complete",
			zap.String("type", string(kind)),
			zap.Int("columns", len(res.Columns)),
			zap.Int("rows", len(res.Rows)),
		)
		return nil
	},
}

func init() {
	aggIn.register(aggCmd)
	aggCmd.Flags().StringVar(&aggType, "type", "", "team (sum over lanes) or frame (sum over frames)")
	aggCmd.Flags().StringVar(&aggFunc, "func", "sum", "sum, mean, min, max or median")
	aggCmd.Flags().StringVarP(&aggOutput, "output", "o", "", "CSV file to write (default stdout)")
	_ = aggCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(aggCmd)
}
