package snapshots

import (
	"github.com/zilean-lol/zilean/internal/features"
	"github.com/zilean-lol/zilean/internal/timeline"
)

// DefaultFrame is the minute sampled when no frames are given.
const DefaultFrame = 8

// Options controls how a collection is built and written.
type Options struct {
	// Frames are the minutes to sample. For tabular sources an empty list
	// means "read them from the file name".
	Frames     []int
	CreepScore bool
	Proportion bool
	// Overwrite lets ToDisk replace existing result files.
	Overwrite bool
}

// DefaultOptions returns a fresh option set: frame 8 with creep score and
// proportions enabled.
func DefaultOptions() Options {
	return Options{
		Frames:     []int{DefaultFrame},
		CreepScore: true,
		Proportion: true,
	}
}

func (o Options) features() features.Options {
	return features.Options{
		Frames:     append([]int(nil), o.Frames...),
		CreepScore: o.CreepScore,
		Proportion: o.Proportion,
	}
}

type sourceKind int

const (
	sourceTimelines sourceKind = iota + 1
	sourceJSONFile
	sourceTabularFile
)

// Source is where a collection's data comes from. Build one with
// FromTimeline, FromTimelines, FromJSONFile or FromTabularFile.
type Source struct {
	kind      sourceKind
	timelines []*timeline.RawTimeline
	path      string
}

// FromTimeline wraps a single decoded timeline.
func FromTimeline(t *timeline.RawTimeline) Source {
	return Source{kind: sourceTimelines, timelines: []*timeline.RawTimeline{t}}
}

// FromTimelines wraps decoded timelines. An empty list is rejected by New.
func FromTimelines(ts []*timeline.RawTimeline) Source {
	return Source{kind: sourceTimelines, timelines: ts}
}

// FromJSONFile reads a JSON array of timelines (or a single timeline).
func FromJSONFile(path string) Source {
	return Source{kind: sourceJSONFile, path: path}
}

// FromTabularFile reloads results written by ToDisk. Either the match_ or
// the frame_ file may be given; the other is located by name.
func FromTabularFile(path string) Source {
	return Source{kind: sourceTabularFile, path: path}
}
