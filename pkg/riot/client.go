// Package riot is a small client for the Riot Games endpoints the timeline
// crawler needs: league-v4, summoner-v4 and match-v5.
package riot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/zilean-lol/zilean/internal/resilience"
)

const (
	defaultBaseURL = "https://%s.api.riotgames.com"

	// Development keys allow 20 requests per second; stay under it.
	defaultRequestsPerSecond = 15
	defaultBurst             = 20
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = eris.New("riot: not found")
	// ErrForbidden is returned for 401 and 403 responses, usually an expired key.
	ErrForbidden = eris.New("riot: forbidden (check the API key)")
)

// Client reads ranked ladders, summoners and match timelines.
type Client interface {
	LeagueEntries(ctx context.Context, platform, queue, tier string) ([]LeagueEntry, error)
	SummonerByID(ctx context.Context, platform, summonerID string) (*Summoner, error)
	MatchIDsByPUUID(ctx context.Context, platform, puuid string, count int) ([]string, error)
	Timeline(ctx context.Context, platform, matchID string) ([]byte, error)
}

// LeagueEntry is one ranked player on a ladder.
type LeagueEntry struct {
	SummonerID   string `json:"summonerId"`
	PUUID        string `json:"puuid"`
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// LeagueList is the response of the apex league endpoints.
type LeagueList struct {
	LeagueID string        `json:"leagueId"`
	Tier     string        `json:"tier"`
	Queue    string        `json:"queue"`
	Entries  []LeagueEntry `json:"entries"`
}

// Summoner is a summoner-v4 record.
type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	SummonerLevel int64  `json:"summonerLevel"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the host template. A %s in it is replaced by the
// platform or regional route; without one every call goes to the same host.
func WithBaseURL(template string) Option {
	return func(c *httpClient) {
		c.baseURL = template
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the client-side request rate.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *httpClient) {
		if requestsPerSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	now     func() time.Time
}

// NewClient creates a Riot API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(defaultRequestsPerSecond, defaultBurst),
		retry:   resilience.DefaultRetryConfig(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) LeagueEntries(ctx context.Context, platform, queue, tier string) ([]LeagueEntry, error) {
	q := url.PathEscape(queue)

	var apex string
	switch tier {
	case "CHALLENGER":
		apex = "/lol/league/v4/challengerleagues/by-queue/" + q
	case "GRANDMASTER":
		apex = "/lol/league/v4/grandmasterleagues/by-queue/" + q
	case "MASTER":
		apex = "/lol/league/v4/masterleagues/by-queue/" + q
	}

	if apex != "" {
		var list LeagueList
		if err := c.getJSON(ctx, platform, apex, "league-v4", &list); err != nil {
			return nil, err
		}
		return list.Entries, nil
	}

	var entries []LeagueEntry
	path := "/lol/league/v4/entries/" + q + "/" + url.PathEscape(tier) + "/I?page=1"
	if err := c.getJSON(ctx, platform, path, "league-v4", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *httpClient) SummonerByID(ctx context.Context, platform, summonerID string) (*Summoner, error) {
	var s Summoner
	if err := c.getJSON(ctx, platform, "/lol/summoner/v4/summoners/"+url.PathEscape(summonerID), "summoner-v4", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *httpClient) MatchIDsByPUUID(ctx context.Context, platform, puuid string, count int) ([]string, error) {
	region, err := RegionalRoute(platform)
	if err != nil {
		return nil, err
	}
	path := "/lol/match/v5/matches/by-puuid/" + url.PathEscape(puuid) + "/ids?start=0&count=" + strconv.Itoa(count)

	var ids []string
	if err := c.getJSON(ctx, region, path, "match-v5", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *httpClient) Timeline(ctx context.Context, platform, matchID string) ([]byte, error) {
	region, err := RegionalRoute(platform)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, region, "/lol/match/v5/matches/"+url.PathEscape(matchID)+"/timeline", "match-v5")
}

func (c *httpClient) getJSON(ctx context.Context, host, path, endpoint string, out any) error {
	body, err := c.get(ctx, host, path, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "riot: %s: unmarshal response", endpoint)
	}
	return nil
}

func (c *httpClient) get(ctx context.Context, host, path, endpoint string) ([]byte, error) {
	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(endpoint)
	}
	target := c.url(host) + path

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "riot: %s: rate limiter", endpoint)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "riot: %s: create request", endpoint)
		}
		req.Header.Set("X-Riot-Token", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "riot: %s: send request", endpoint)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrapf(err, "riot: %s: read response", endpoint), resp.StatusCode)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, eris.Wrapf(ErrNotFound, "riot: %s %s", endpoint, path)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, eris.Wrapf(ErrForbidden, "riot: %s: status %d", endpoint, resp.StatusCode)
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			err := eris.Errorf("riot: %s: unexpected status %d: %s", endpoint, resp.StatusCode, snippet(body))
			return nil, resilience.NewTransientError(err, resp.StatusCode).
				WithRetryAfter(resilience.ParseRetryAfter(resp.Header, c.now()))
		default:
			return nil, eris.Errorf("riot: %s: unexpected status %d: %s", endpoint, resp.StatusCode, snippet(body))
		}
	})
}

func (c *httpClient) url(host string) string {
	if strings.Contains(c.baseURL, "%s") {
		return fmt.Sprintf(c.baseURL, host)
	}
	return strings.TrimRight(c.baseURL, "/")
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
