package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zilean-lol/zilean/internal/crawler"
	"github.com/zilean-lol/zilean/internal/resilience"
	"github.com/zilean-lol/zilean/pkg/riot"
)

var (
	crawlCount       int
	crawlRegion      string
	crawlTier        string
	crawlQueue       string
	crawlPerSummoner int
	crawlCutoff      int
	crawlOutput      string
	crawlCompactPath string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect ranked match timelines from the Riot API",
	Long: "Walks a ranked ladder (league entries, then each player's recent matches) and appends every " +
		"new timeline to an NDJSON file. With --compact the file is then turned into a JSON array, " +
		"dropping matches shorter than the cutoff.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyCrawlFlags(cmd)
		if err := cfg.Validate("crawl"); err != nil {
			return err
		}

		client := riot.NewClient(cfg.Riot.Key,
			riot.WithBaseURL(cfg.Riot.BaseURL),
			riot.WithRateLimit(cfg.Riot.RequestsPerSecond, cfg.Riot.Burst),
			riot.WithRetry(resilience.FromConfig(cfg.Riot.Retry)),
			riot.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Riot.TimeoutSecs) * time.Second}),
		)

		metrics := crawler.NewMetrics(nil)
		c, err := crawler.New(client, crawler.OptionsFromConfig(cfg.Crawl), metrics)
		if err != nil {
			return err
		}

		res, err := c.Crawl(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "crawl %s: saved %d timelines to %s in %s\n",
			res.ID, len(res.Matches), res.Output, res.Elapsed.Round(time.Second))

		if crawlCompactPath == "" {
			return nil
		}
		stats, err := crawler.Compact(cfg.Crawl.Output, crawlCompactPath, crawler.Cutoff(cfg.Crawl), metrics)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "compacted %d timelines into %s (%d shorter than %d minutes, %d duplicates)\n",
			stats.Kept, crawlCompactPath, stats.Short, cfg.Crawl.CutoffMinutes, stats.Duplicates)
		return nil
	},
}

// applyCrawlFlags copies explicitly set flags over the crawl config section.
func applyCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("count") {
		cfg.Crawl.Count = crawlCount
	}
	if f.Changed("region") {
		cfg.Crawl.Region = crawlRegion
	}
	if f.Changed("tier") {
		cfg.Crawl.Tier = crawlTier
	}
	if f.Changed("queue") {
		cfg.Crawl.Queue = crawlQueue
	}
	if f.Changed("per-summoner") {
		cfg.Crawl.MatchesPerSummoner = crawlPerSummoner
	}
	if f.Changed("cutoff") {
		cfg.Crawl.CutoffMinutes = crawlCutoff
	}
	if f.Changed("output") {
		cfg.Crawl.Output = crawlOutput
	}
}

var compactCutoff int

var compactCmd = &cobra.Command{
	Use:   "compact <input.ndjson> <output.json>",
	Short: "Turn a crawl NDJSON file into a JSON array of timelines",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff := crawler.Cutoff(cfg.Crawl)
		if cmd.Flags().Changed("cutoff") {
			cutoff = time.Duration(compactCutoff) * time.Minute
		}
		stats, err := crawler.Compact(args[0], args[1], cutoff, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "kept %d timelines (%d short, %d duplicates)\n", stats.Kept, stats.Short, stats.Duplicates)
		return nil
	},
}

func init() {
	crawlCmd.Flags().IntVarP(&crawlCount, "count", "n", 0, "unique matches to collect (default from config)")
	crawlCmd.Flags().StringVar(&crawlRegion, "region", "", "platform: br1 eun1 euw1 jp1 kr la1 la2 na1 oc1 ru tr1")
	crawlCmd.Flags().StringVar(&crawlTier, "tier", "", "CHALLENGER, GRANDMASTER, MASTER, DIAMOND ... IRON")
	crawlCmd.Flags().StringVar(&crawlQueue, "queue", "", "RANKED_SOLO_5x5, RANKED_FLEX_SR or RANKED_FLEX_TT")
	crawlCmd.Flags().IntVar(&crawlPerSummoner, "per-summoner", 0, "recent matches taken per player")
	crawlCmd.Flags().IntVar(&crawlCutoff, "cutoff", 0, "drop matches shorter than this many minutes when compacting")
	crawlCmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "NDJSON file to append to")
	crawlCmd.Flags().StringVar(&crawlCompactPath, "compact", "", "also write a JSON array of timelines here")
	crawlCmd.AddCommand(compactCmd)
	compactCmd.Flags().IntVar(&compactCutoff, "cutoff", 0, "minimum match length in minutes (default from config)")
	rootCmd.AddCommand(crawlCmd)
}
