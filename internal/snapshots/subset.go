package snapshots

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zilean-lol/zilean/internal/features"
)

// LaneNames maps lane slots to their conventional role names.
var LaneNames = []string{"TOP", "JUG", "MID", "BOT", "SUP"}

var upper = cases.Upper(language.Und)

// ParseLane accepts a role name (TOP, JUG, MID, BOT, SUP, any case) or a slot
// number 0-4.
func ParseLane(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i := lo.IndexOf(LaneNames, upper.String(s)); i >= 0 {
		return i, nil
	}
	lane, err := strconv.Atoi(s)
	if err != nil || lane < 0 || lane >= features.NumLanes {
		return 0, eris.Wrapf(ErrUsage, "snapshots: unknown lane %q", s)
	}
	return lane, nil
}

// Filter selects stat columns. Empty fields place no restriction; a column is
// kept only when it matches every non-empty field.
type Filter struct {
	Features []string
	Lanes    []string
	Frames   []int
}

func (f Filter) matcher() (func(features.Column) bool, error) {
	lanes := make([]int, 0, len(f.Lanes))
	for _, l := range f.Lanes {
		lane, err := ParseLane(l)
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, lane)
	}

	return func(c features.Column) bool {
		return (len(f.Features) == 0 || lo.Contains(f.Features, c.Feature)) &&
			(len(lanes) == 0 || lo.Contains(lanes, c.Lane)) &&
			(len(f.Frames) == 0 || lo.Contains(f.Frames, c.Frame))
	}, nil
}

// Subset returns a new collection restricted to the columns matching f.
// matchId, win and frame are always kept. Matching nothing is not an error;
// the result then only carries metadata.
func (c *Collection) Subset(f Filter) (*Collection, error) {
	keep, err := f.matcher()
	if err != nil {
		return nil, err
	}

	project := func(r features.Record, _ int) features.Record { return r.Project(keep) }
	return &Collection{
		opts:     c.opts,
		frames:   append([]int(nil), c.frames...),
		matches:  lo.Map(c.matches, project),
		perFrame: lo.Map(c.perFrame, project),
	}, nil
}
