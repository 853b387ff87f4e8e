package crawler

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// CompactStats reports what Compact kept.
type CompactStats struct {
	Kept       int
	Short      int
	Duplicates int
}

// Compact turns the crawler's NDJSON file into one JSON array of timelines,
// the format snapshot inputs use. Timelines covering less than cutoff
// (frames times frameInterval) are dropped, as are repeated match ids. in and
// out may be the same file. A line that is not valid JSON fails the whole
// compaction and leaves out untouched.
func Compact(in, out string, cutoff time.Duration, metrics *Metrics) (*CompactStats, error) {
	src, err := os.Open(in)
	if err != nil {
		return nil, eris.Wrapf(err, "crawler: open %s", in)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, eris.Wrapf(err, "crawler: create directory for %s", out)
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".compact-*.json")
	if err != nil {
		return nil, eris.Wrap(err, "crawler: create temp file")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	w := bufio.NewWriter(tmp)
	stats := &CompactStats{}
	seen := make(map[string]struct{})

	if err := w.WriteByte('['); err != nil {
		return nil, eris.Wrap(err, "crawler: write")
	}
	err = scanLines(src, func(n int, line []byte) error {
		if !gjson.ValidBytes(line) {
			return eris.Wrapf(errNotJSON, "%s line %d", in, n)
		}

		fields := gjson.GetManyBytes(line, "metadata.matchId", "info.frames.#", "info.frameInterval")
		id := fields[0].String()
		covered := time.Duration(fields[1].Int()*fields[2].Int()) * time.Millisecond
		if covered < cutoff {
			stats.Short++
			if metrics != nil {
				metrics.Dropped.Inc()
			}
			return nil
		}
		if id != "" {
			if _, dup := seen[id]; dup {
				stats.Duplicates++
				return nil
			}
			seen[id] = struct{}{}
		}

		if stats.Kept > 0 {
			if err := w.WriteByte(','); err != nil {
				return eris.Wrap(err, "crawler: write")
			}
		}
		if _, err := w.Write(line); err != nil {
			return eris.Wrap(err, "crawler: write")
		}
		stats.Kept++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := w.WriteByte(']'); err != nil {
		return nil, eris.Wrap(err, "crawler: write")
	}
	if err := w.Flush(); err != nil {
		return nil, eris.Wrap(err, "crawler: flush")
	}
	if err := tmp.Close(); err != nil {
		return nil, eris.Wrap(err, "crawler: close temp file")
	}
	src.Close()

	if err := os.Rename(tmp.Name(), out); err != nil {
		return nil, eris.Wrapf(err, "crawler: write %s", out)
	}

	zap.L().Info("crawler: compacted timelines",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("kept", stats.Kept),
		zap.Int("short", stats.Short),
		zap.Int("duplicates", stats.Duplicates),
		zap.Duration("cutoff", cutoff),
	)
	return stats, nil
}
