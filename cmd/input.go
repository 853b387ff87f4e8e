package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zilean-lol/zilean/internal/snapshots"
)

// inputFlags are shared by every command that loads a collection.
type inputFlags struct {
	input        string
	frames       []int
	noCreepScore bool
	noProportion bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "timeline JSON file or match_/frame_ CSV written by snapshot")
	cmd.Flags().IntSliceVar(&f.frames, "frames", nil, "minutes to sample (default from config; CSV inputs read them from the file name)")
	cmd.Flags().BoolVar(&f.noCreepScore, "no-creep-score", false, "keep jungle and lane minion counts separate")
	cmd.Flags().BoolVar(&f.noProportion, "no-proportion", false, "skip gold and xp team shares")
	_ = cmd.MarkFlagRequired("input")
}

// options merges the flags over the snapshots config section.
func (f *inputFlags) options(cmd *cobra.Command) snapshots.Options {
	opts := snapshots.Options{
		CreepScore: cfg.Snapshots.CreepScore && !f.noCreepScore,
		Proportion: cfg.Snapshots.Proportion && !f.noProportion,
		Overwrite:  cfg.Export.Overwrite,
	}

	switch {
	case cmd.Flags().Changed("frames"):
		opts.Frames = f.frames
	case strings.EqualFold(filepath.Ext(f.input), ".csv"):
		opts.Frames = nil
	default:
		opts.Frames = append([]int(nil), cfg.Snapshots.Frames...)
	}
	return opts
}

func (f *inputFlags) open(cmd *cobra.Command) (*snapshots.Collection, error) {
	return snapshots.Open(f.input, f.options(cmd))
}
