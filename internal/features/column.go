package features

import (
	"strconv"
	"strings"
)

// Metadata column names carried by every flattened record.
const (
	MatchIDColumn = "matchId"
	WinColumn     = "win"
	FrameColumn   = "frame"

	// UnknownMatchID stands in when a record has no match id.
	UnknownMatchID = "UNKNOWN"

	frameTag = "frame"
)

// NumLanes is the number of lane slots per team.
const NumLanes = 5

// Column identifies one differenced statistic: a stat, a lane slot (0-4) and
// the frame (minute) it was taken at.
type Column struct {
	Feature string `json:"feature" yaml:"feature"`
	Lane    int    `json:"lane" yaml:"lane"`
	Frame   int    `json:"frame" yaml:"frame"`
}

// Name renders the flattened column name. Frame-qualified names look like
// totalGold_0_frame8; unqualified ones like totalGold_0.
func (c Column) Name(frameQualified bool) string {
	name := c.Feature + "_" + strconv.Itoa(c.Lane)
	if frameQualified {
		name += "_" + frameTag + strconv.Itoa(c.Frame)
	}
	return name
}

// FrameQualified reports whether names for these requested frames carry the
// frame suffix. Only a single requested frame drops it.
func FrameQualified(frames []int) bool {
	return len(frames) != 1
}

// Names renders the flattened names of cols.
func Names(cols []Column, frameQualified bool) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name(frameQualified)
	}
	return out
}

// Descriptor is one entry of the schema index. Feature, Lane and Frame are
// nil for metadata columns (matchId, win, frame).
type Descriptor struct {
	Name    string  `json:"name" yaml:"name"`
	Feature *string `json:"feature" yaml:"feature"`
	Lane    *int    `json:"lane" yaml:"lane"`
	Frame   *int    `json:"frame" yaml:"frame"`
}

// Column returns the typed column for a statistical descriptor.
func (d Descriptor) Column() (Column, bool) {
	if d.Feature == nil || d.Lane == nil || d.Frame == nil {
		return Column{}, false
	}
	return Column{Feature: *d.Feature, Lane: *d.Lane, Frame: *d.Frame}, true
}

// IsStat reports whether the descriptor names a differenced statistic.
func (d Descriptor) IsStat() bool {
	_, ok := d.Column()
	return ok
}

func describe(name string, c Column) Descriptor {
	feature, lane, frame := c.Feature, c.Lane, c.Frame
	return Descriptor{Name: name, Feature: &feature, Lane: &lane, Frame: &frame}
}

// ParseName splits a flattened column name back into a descriptor.
//
// Three underscore-separated segments give feature, lane and frame (the digits
// after the literal "frame"). Two segments are only statistical when exactly
// one frame was requested, which then supplies the frame. Anything else,
// including names whose lane or frame does not parse, is a metadata column.
func ParseName(name string, frames []int) Descriptor {
	parts := strings.Split(name, "_")
	switch {
	case len(parts) == 3:
		lane, ok := parseLane(parts[1])
		if !ok || !strings.HasPrefix(parts[2], frameTag) {
			break
		}
		frame, err := strconv.Atoi(strings.TrimPrefix(parts[2], frameTag))
		if err != nil {
			break
		}
		return describe(name, Column{Feature: parts[0], Lane: lane, Frame: frame})
	case len(parts) == 2 && len(frames) == 1:
		lane, ok := parseLane(parts[1])
		if !ok {
			break
		}
		return describe(name, Column{Feature: parts[0], Lane: lane, Frame: frames[0]})
	}
	return Descriptor{Name: name}
}

func parseLane(s string) (int, bool) {
	lane, err := strconv.Atoi(s)
	if err != nil || lane < 0 || lane >= NumLanes {
		return 0, false
	}
	return lane, true
}

// BuildSchema parses every name of a record header.
func BuildSchema(names []string, frames []int) []Descriptor {
	out := make([]Descriptor, len(names))
	for i, n := range names {
		out[i] = ParseName(n, frames)
	}
	return out
}
