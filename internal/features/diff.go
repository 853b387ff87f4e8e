package features

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/zilean-lol/zilean/internal/timeline"
)

// Options selects frames and the optional derived stats.
type Options struct {
	Frames     []int
	CreepScore bool
	Proportion bool
}

// Result is the output for one match: the merged record over all requested
// frames and one record per frame.
type Result struct {
	Match    Record
	PerFrame []Record
}

// Difference computes lane-by-lane team differences. For lane i every stat on
// participant i is diffed against participant i+5. Stats are visited in
// sorted order so columns are deterministic.
func Difference(f *Frames, matchID string, win bool) (*Result, error) {
	res := &Result{Match: newRecord(matchID, win)}

	for _, frame := range f.Order {
		players := f.Players[frame]
		if len(players) != 2*PlayersPerTeam {
			return nil, eris.Wrapf(ErrMissingData, "frame %d has %d participants", frame, len(players))
		}

		perFrame := newRecord(matchID, win)
		perFrame.PerFrame = true
		perFrame.Frame = frame

		for lane := 0; lane < PlayersPerTeam; lane++ {
			a, b := players[lane], players[lane+PlayersPerTeam]

			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				av, ok := timeline.Number(a[k])
				if !ok {
					return nil, eris.Wrapf(ErrMissingData, "frame %d slot %d: %s is not numeric", frame, lane+1, k)
				}
				braw, ok := b[k]
				if !ok {
					return nil, eris.Wrapf(ErrMissingData, "frame %d slot %d: missing %s", frame, lane+PlayersPerTeam+1, k)
				}
				bv, ok := timeline.Number(braw)
				if !ok {
					return nil, eris.Wrapf(ErrMissingData, "frame %d slot %d: %s is not numeric", frame, lane+PlayersPerTeam+1, k)
				}

				col := Column{Feature: k, Lane: lane, Frame: frame}
				res.Match.Set(col, av-bv)
				perFrame.Set(col, av-bv)
			}
		}
		res.PerFrame = append(res.PerFrame, perFrame)
	}

	return res, nil
}

// Process runs extraction, the enabled normalizers and differencing for one
// timeline. matchID may be empty, in which case records carry UnknownMatchID.
func Process(t *timeline.RawTimeline, matchID string, opts Options) (*Result, error) {
	frames, err := Extract(t, opts.Frames)
	if err != nil {
		return nil, err
	}
	if opts.CreepScore {
		if frames, err = AddCreepScore(frames); err != nil {
			return nil, err
		}
	}
	if opts.Proportion {
		if frames, err = AddProportions(frames); err != nil {
			return nil, err
		}
	}
	return Difference(frames, matchID, t.FirstTeamWon())
}
