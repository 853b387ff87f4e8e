// Package crawler collects ranked match timelines from the Riot API into a
// newline-delimited JSON file, one timeline per line.
package crawler

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/pkg/riot"
)

const (
	// visitedCapacity sizes the visited-match filter; the false positive
	// rate only holds up to roughly this many matches.
	visitedCapacity = 100000
	visitedFPRate   = 0.001

	maxLineSize = 64 << 20
)

// Crawler walks a ranked ladder: league entries, then each player's recent
// matches, then each match's timeline. It runs sequentially.
type Crawler struct {
	client  riot.Client
	opts    Options
	metrics *Metrics
	visited *bloom.BloomFilter
	log     *zap.Logger
	id      string
}

// Result summarises one crawl.
type Result struct {
	ID      string
	Output  string
	Matches []string
	Elapsed time.Duration
}

// New validates opts and prepares a crawler. metrics may be nil.
func New(client riot.Client, opts Options, metrics *Metrics) (*Crawler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	id := uuid.NewString()
	capacity := uint(max(visitedCapacity, 2*opts.Count))
	return &Crawler{
		client:  client,
		opts:    opts,
		metrics: metrics,
		visited: bloom.NewWithEstimates(capacity, visitedFPRate),
		log: zap.L().With(
			zap.String("crawl_id", id),
			zap.String("region", opts.Platform),
			zap.String("tier", opts.Tier),
			zap.String("queue", opts.Queue),
		),
		id: id,
	}, nil
}

// ID identifies the crawl in logs.
func (c *Crawler) ID() string { return c.id }

// Crawl appends up to Count previously unseen timelines to the output file.
// Matches already present in the file count as seen. Players whose history
// cannot be read are skipped; an invalid API key or a write failure stops the
// crawl. On cancellation the matches written so far are returned with the
// context error.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{ID: c.id, Output: c.opts.Output}

	existing, err := c.seedVisited()
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		c.log.Info("crawler: resuming, existing matches will be skipped", zap.Int("existing", existing))
	}

	entries, err := c.client.LeagueEntries(ctx, c.opts.Platform, c.opts.Queue, c.opts.Tier)
	c.metrics.request("league", err)
	if err != nil {
		return nil, eris.Wrap(err, "crawler: league entries")
	}
	c.log.Info("crawler: fetched league entries", zap.Int("entries", len(entries)))

	if err := os.MkdirAll(filepath.Dir(c.opts.Output), 0o755); err != nil {
		return nil, eris.Wrapf(err, "crawler: create directory for %s", c.opts.Output)
	}
	f, err := os.OpenFile(c.opts.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "crawler: open %s", c.opts.Output)
	}
	defer f.Close()

	err = c.walk(ctx, entries, f, res)
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, err
	}

	if len(res.Matches) < c.opts.Count {
		c.log.Warn("crawler: ladder exhausted before reaching the requested count",
			zap.Int("requested", c.opts.Count),
			zap.Int("collected", len(res.Matches)),
		)
	}
	c.log.Info("crawler: done",
		zap.Int("collected", len(res.Matches)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (c *Crawler) walk(ctx context.Context, entries []riot.LeagueEntry, f *os.File, res *Result) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "crawler: cancelled")
		}

		puuid, err := c.puuid(ctx, entry)
		if err != nil {
			if eris.Is(err, riot.ErrForbidden) {
				return err
			}
			c.skip("summoner", err, zap.String("summoner_id", entry.SummonerID))
			continue
		}

		ids, err := c.client.MatchIDsByPUUID(ctx, c.opts.Platform, puuid, c.opts.MatchesPerSummoner)
		c.metrics.request("match_ids", err)
		if err != nil {
			if eris.Is(err, riot.ErrForbidden) {
				return eris.Wrap(err, "crawler: match ids")
			}
			c.skip("match_ids", err, zap.String("puuid", puuid))
			continue
		}
		if len(ids) == 0 {
			c.skip("no_matches", nil, zap.String("puuid", puuid))
			continue
		}

		for _, id := range ids[:min(len(ids), c.opts.MatchesPerSummoner)] {
			if c.visited.TestString(id) {
				c.metrics.Duplicates.Inc()
				continue
			}

			data, err := c.client.Timeline(ctx, c.opts.Platform, id)
			c.metrics.request("timeline", err)
			if err != nil {
				if eris.Is(err, riot.ErrForbidden) {
					return eris.Wrap(err, "crawler: timeline")
				}
				c.skip("timeline", err, zap.String("match_id", id))
				continue
			}

			if err := appendLine(f, data); err != nil {
				if eris.Is(err, errNotJSON) {
					c.skip("malformed", err, zap.String("match_id", id))
					continue
				}
				return err
			}

			c.visited.AddString(id)
			c.metrics.Matches.Inc()
			res.Matches = append(res.Matches, id)
			c.log.Debug("crawler: saved timeline",
				zap.String("match_id", id),
				zap.Int("collected", len(res.Matches)),
			)

			if len(res.Matches) >= c.opts.Count {
				return nil
			}
		}
	}
	return nil
}

// puuid uses the entry's puuid when the ladder includes it and otherwise
// resolves the summoner id.
func (c *Crawler) puuid(ctx context.Context, entry riot.LeagueEntry) (string, error) {
	if entry.PUUID != "" {
		return entry.PUUID, nil
	}
	s, err := c.client.SummonerByID(ctx, c.opts.Platform, entry.SummonerID)
	c.metrics.request("summoner", err)
	if err != nil {
		return "", eris.Wrap(err, "crawler: summoner")
	}
	return s.PUUID, nil
}

func (c *Crawler) skip(reason string, err error, fields ...zap.Field) {
	c.metrics.Skipped.WithLabelValues(reason).Inc()
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.log.Warn("crawler: skipping", append(fields, zap.String("reason", reason))...)
}

// seedVisited marks every match already in the output file as seen.
func (c *Crawler) seedVisited() (int, error) {
	f, err := os.Open(c.opts.Output)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, eris.Wrapf(err, "crawler: open %s", c.opts.Output)
	}
	defer f.Close()

	n := 0
	err = scanLines(f, func(_ int, line []byte) error {
		if id := gjson.GetBytes(line, "metadata.matchId").String(); id != "" {
			c.visited.AddString(id)
			n++
		}
		return nil
	})
	return n, err
}

var errNotJSON = eris.New("crawler: response is not valid JSON")

// appendLine writes data as a single compact line.
func appendLine(f *os.File, data []byte) error {
	if !gjson.ValidBytes(data) {
		return errNotJSON
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return eris.Wrap(errNotJSON, err.Error())
	}
	buf.WriteByte('\n')
	if _, err := f.Write(buf.Bytes()); err != nil {
		return eris.Wrapf(err, "crawler: append to %s", f.Name())
	}
	return nil
}

// scanLines calls fn for every non-blank line; line numbers start at 1.
func scanLines(f *os.File, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), maxLineSize)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return eris.Wrapf(sc.Err(), "crawler: read %s", f.Name())
}
