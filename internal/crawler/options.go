package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/zilean-lol/zilean/internal/config"
	"github.com/zilean-lol/zilean/pkg/riot"
)

// ErrInvalidOptions wraps every option validation failure.
var ErrInvalidOptions = eris.New("crawler: invalid options")

// Options selects the ladder to crawl and how much to collect.
type Options struct {
	Platform string
	Tier     string
	Queue    string

	// Count is the number of unique matches to collect.
	Count int
	// MatchesPerSummoner caps how many recent matches are taken per player.
	MatchesPerSummoner int
	// Output is the NDJSON file timelines are appended to.
	Output string
}

// OptionsFromConfig copies the crawl section.
func OptionsFromConfig(c config.CrawlConfig) Options {
	return Options{
		Platform:           c.Region,
		Tier:               c.Tier,
		Queue:              c.Queue,
		Count:              c.Count,
		MatchesPerSummoner: c.MatchesPerSummoner,
		Output:             c.Output,
	}
}

// Cutoff converts crawl.cutoff_minutes.
func Cutoff(c config.CrawlConfig) time.Duration {
	return time.Duration(c.CutoffMinutes) * time.Minute
}

// Validate checks the options against the known platforms, tiers and
// queues. Values are case sensitive.
func (o Options) Validate() error {
	var problems []string
	if !riot.IsPlatform(o.Platform) {
		problems = append(problems, fmt.Sprintf("region %q must be one of %s", o.Platform, strings.Join(riot.Platforms, ", ")))
	}
	if !riot.IsTier(o.Tier) {
		problems = append(problems, fmt.Sprintf("tier %q must be one of %s", o.Tier, strings.Join(riot.Tiers, ", ")))
	}
	if !riot.IsQueue(o.Queue) {
		problems = append(problems, fmt.Sprintf("queue %q must be one of %s", o.Queue, strings.Join(riot.Queues, ", ")))
	}
	if o.Count <= 0 {
		problems = append(problems, "count must be positive")
	}
	if o.MatchesPerSummoner <= 0 {
		problems = append(problems, "matches per summoner must be positive")
	}
	if o.Output == "" {
		problems = append(problems, "output file is required")
	}

	if len(problems) > 0 {
		return eris.Wrap(ErrInvalidOptions, strings.Join(problems, "; "))
	}
	return nil
}
