package snapshots

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/samber/lo"

	"github.com/zilean-lol/zilean/internal/features"
)

// rowMeta holds the metadata columns of a result row; every other named
// column is a stat.
type rowMeta struct {
	MatchID string `csv:"matchId"`
	Win     bool   `csv:"win"`
	Frame   int    `csv:"frame,omitempty"`
}

// SiblingPath returns the other table of a ToDisk pair by swapping the
// match/frame prefix of the file name.
func SiblingPath(path string) (string, error) {
	dir, base := filepath.Split(path)
	switch {
	case strings.HasPrefix(base, MatchPrefix):
		return filepath.Join(dir, FramePrefix+strings.TrimPrefix(base, MatchPrefix)), nil
	case strings.HasPrefix(base, FramePrefix):
		return filepath.Join(dir, MatchPrefix+strings.TrimPrefix(base, FramePrefix)), nil
	default:
		return "", eris.Wrapf(ErrUsage, "snapshots: %s is not a match_ or frame_ result file", base)
	}
}

// FramesFromName reads the frames tag of a result file name, e.g. [8 12]
// from match_8_12.csv.
func FramesFromName(path string) ([]int, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return nil, eris.Wrapf(ErrUsage, "snapshots: no frames in file name %s", base)
	}

	frames := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		f, err := strconv.Atoi(p)
		if err != nil || f < 0 {
			return nil, eris.Wrapf(ErrUsage, "snapshots: bad frame %q in file name %s", p, base)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func loadTabular(path string, opts Options) (*Collection, error) {
	sibling, err := SiblingPath(path)
	if err != nil {
		return nil, err
	}
	if err := checkExists(path); err != nil {
		return nil, err
	}
	if err := checkExists(sibling); err != nil {
		return nil, err
	}

	frames, err := tabularFrames(path, opts.Frames)
	if err != nil {
		return nil, err
	}

	matchPath, framePath := path, sibling
	if strings.HasPrefix(filepath.Base(path), FramePrefix) {
		matchPath, framePath = sibling, path
	}

	c := &Collection{opts: opts, frames: append([]int(nil), frames...)}
	if c.matches, err = readTable(matchPath, frames, false); err != nil {
		return nil, err
	}
	if c.perFrame, err = readTable(framePath, frames, true); err != nil {
		return nil, err
	}
	c.opts.Frames = c.Frames()
	return c, nil
}

// tabularFrames decides the frames of a result file. Frames in the file name
// win; requested frames must then match them. Requested frames are only
// used on their own when the name carries none.
func tabularFrames(path string, requested []int) ([]int, error) {
	named, err := FramesFromName(path)
	switch {
	case err == nil:
		if len(requested) > 0 && !slices.Equal(requested, named) {
			return nil, eris.Wrapf(ErrUsage, "snapshots: frames %v do not match %v in %s",
				requested, named, filepath.Base(path))
		}
		return named, nil
	case len(requested) > 0:
		return requested, nil
	default:
		return nil, err
	}
}

func readTable(path string, frames []int, perFrame bool) ([]features.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshots: open %s", path)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.Wrapf(ErrUsage, "snapshots: %s is empty", path)
		}
		return nil, eris.Wrapf(err, "snapshots: read header of %s", path)
	}

	header := dec.Header()
	if !lo.Every(header, []string{features.MatchIDColumn, features.WinColumn}) {
		return nil, eris.Wrapf(ErrUsage, "snapshots: %s lacks %s or %s column", path, features.MatchIDColumn, features.WinColumn)
	}
	if perFrame && !lo.Contains(header, features.FrameColumn) {
		return nil, eris.Wrapf(ErrUsage, "snapshots: %s lacks %s column", path, features.FrameColumn)
	}

	var records []features.Record
	for line := 2; ; line++ {
		var meta rowMeta
		if err := dec.Decode(&meta); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "snapshots: %s line %d", path, line)
		}

		r := features.Record{MatchID: meta.MatchID, Win: meta.Win, PerFrame: perFrame}
		if perFrame {
			r.Frame = meta.Frame
		}

		raw := dec.Record()
		for _, i := range dec.Unused() {
			name := header[i]
			if name == "" || name == features.FrameColumn {
				continue
			}
			col, ok := features.ParseName(name, frames).Column()
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(raw[i], 64)
			if err != nil {
				return nil, eris.Wrapf(ErrUsage, "snapshots: %s line %d: %s is not a number: %q", path, line, name, raw[i])
			}
			r.Set(col, v)
		}
		records = append(records, r)
	}

	return records, nil
}
