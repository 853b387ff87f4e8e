// Package snapshots turns match timelines into lane-differenced feature
// tables and offers summary, subset, aggregation and export over them.
package snapshots

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/features"
	"github.com/zilean-lol/zilean/internal/timeline"
)

// Collection holds the differenced records of a batch of matches. It is not
// modified after construction; Subset returns a new collection.
type Collection struct {
	opts     Options
	frames   []int
	matches  []features.Record
	perFrame []features.Record
}

// New builds a collection from src. A malformed timeline aborts the whole
// batch.
func New(src Source, opts Options) (*Collection, error) {
	switch src.kind {
	case sourceTimelines:
		return fromTimelines(src.timelines, opts)
	case sourceJSONFile:
		if err := checkExists(src.path); err != nil {
			return nil, err
		}
		ts, err := timeline.LoadFile(src.path)
		if err != nil {
			return nil, err
		}
		return fromTimelines(ts, opts)
	case sourceTabularFile:
		return loadTabular(src.path, opts)
	default:
		return nil, eris.Wrap(ErrUsage, "snapshots: unknown source")
	}
}

// Open builds a collection from a file, choosing the source by extension:
// .json for timelines, .csv for previously written results.
func Open(path string, opts Options) (*Collection, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return New(FromJSONFile(path), opts)
	case ".csv":
		return New(FromTabularFile(path), opts)
	default:
		return nil, eris.Wrapf(ErrUsage, "snapshots: unsupported input %q (want .json or .csv)", path)
	}
}

func fromTimelines(ts []*timeline.RawTimeline, opts Options) (*Collection, error) {
	if len(ts) == 0 {
		return nil, eris.Wrap(ErrUsage, "snapshots: no timelines given")
	}
	if len(opts.Frames) == 0 {
		return nil, eris.Wrap(features.ErrNoFrames, "snapshots: build")
	}

	c := &Collection{opts: opts, frames: append([]int(nil), opts.Frames...)}
	fopts := opts.features()

	for i, t := range ts {
		res, err := processOne(i, t, fopts)
		if err != nil {
			return nil, err
		}
		c.matches = append(c.matches, res.Match)
		c.perFrame = append(c.perFrame, res.PerFrame...)

		zap.L().Debug("snapshots: processed match",
			zap.String("match_id", res.Match.MatchID),
			zap.Ints("frames", c.frames),
		)
	}

	return c, nil
}

func processOne(i int, t *timeline.RawTimeline, opts features.Options) (*features.Result, error) {
	if t == nil {
		return nil, eris.Wrapf(timeline.ErrInvalidTimeline, "snapshots: timeline %d is null", i)
	}
	matchID, err := timeline.Validate(t)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshots: timeline %d", i)
	}
	res, err := features.Process(t, matchID, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshots: match %s", matchID)
	}
	return res, nil
}

func checkExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(ErrNotFound, "snapshots: %s", path)
		}
		return eris.Wrapf(err, "snapshots: stat %s", path)
	}
	return nil
}

// Frames returns the frames the collection was built for.
func (c *Collection) Frames() []int {
	return append([]int(nil), c.frames...)
}

// Options returns the options the collection was built with.
func (c *Collection) Options() Options {
	o := c.opts
	o.Frames = c.Frames()
	return o
}

// Len is the number of matches.
func (c *Collection) Len() int {
	return len(c.matches)
}

// FrameQualified reports whether flattened names carry the frame suffix.
func (c *Collection) FrameQualified() bool {
	return features.FrameQualified(c.frames)
}

// Summary returns copies of the per-match records, or of the per-frame
// records when perFrame is set.
func (c *Collection) Summary(perFrame bool) []features.Record {
	src := c.matches
	if perFrame {
		src = c.perFrame
	}
	out := make([]features.Record, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out
}

// Header returns the flattened column names of the per-match or per-frame
// table.
func (c *Collection) Header(perFrame bool) []string {
	records := c.matches
	if perFrame {
		records = c.perFrame
	}
	if len(records) > 0 {
		return records[0].Header(c.FrameQualified())
	}
	empty := features.Record{PerFrame: perFrame}
	return empty.Header(c.FrameQualified())
}

// Schema describes every column of the per-match table.
func (c *Collection) Schema() []features.Descriptor {
	return features.BuildSchema(c.Header(false), c.frames)
}
