package riot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilean-lol/zilean/internal/resilience"
)

func testClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("RGAPI-test",
		WithBaseURL(srv.URL),
		WithRateLimit(1000, 100),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}),
	)
}

func TestLeagueEntries(t *testing.T) {
	tests := []struct {
		tier string
		path string
		body string
	}{
		{"CHALLENGER", "/lol/league/v4/challengerleagues/by-queue/RANKED_SOLO_5x5", `{"tier":"CHALLENGER","entries":[{"summonerId":"s1","leaguePoints":1200}]}`},
		{"GRANDMASTER", "/lol/league/v4/grandmasterleagues/by-queue/RANKED_SOLO_5x5", `{"entries":[{"summonerId":"s1"}]}`},
		{"MASTER", "/lol/league/v4/masterleagues/by-queue/RANKED_SOLO_5x5", `{"entries":[{"summonerId":"s1"}]}`},
		{"GOLD", "/lol/league/v4/entries/RANKED_SOLO_5x5/GOLD/I", `[{"summonerId":"s1","tier":"GOLD","rank":"I"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, "RGAPI-test", r.Header.Get("X-Riot-Token"))
				_, _ = w.Write([]byte(tt.body))
			})

			entries, err := c.LeagueEntries(context.Background(), "na1", "RANKED_SOLO_5x5", tt.tier)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "s1", entries[0].SummonerID)
		})
	}
}

func TestSummonerAndMatchIDs(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lol/summoner/v4/summoners/s1":
			_, _ = w.Write([]byte(`{"id":"s1","puuid":"p1","summonerLevel":312}`))
		case "/lol/match/v5/matches/by-puuid/p1/ids":
			assert.Equal(t, "3", r.URL.Query().Get("count"))
			_, _ = w.Write([]byte(`["NA1_1","NA1_2","NA1_3"]`))
		default:
			http.NotFound(w, r)
		}
	})

	s, err := c.SummonerByID(context.Background(), "na1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "p1", s.PUUID)
	assert.Equal(t, int64(312), s.SummonerLevel)

	ids, err := c.MatchIDsByPUUID(context.Background(), "na1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"NA1_1", "NA1_2", "NA1_3"}, ids)
}

func TestTimeline_ReturnsRawBody(t *testing.T) {
	body := `{"metadata":{"matchId":"KR_9"},"info":{"frameInterval":60000,"frames":[]}}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lol/match/v5/matches/KR_9/timeline", r.URL.Path)
		_, _ = w.Write([]byte(body))
	})

	data, err := c.Timeline(context.Background(), "kr", "KR_9")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(data))
}

func TestGet_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"s1","puuid":"p1"}`))
	})

	s, err := c.SummonerByID(context.Background(), "euw1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "p1", s.PUUID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		target  error
		calls   int32
		wantMsg string
	}{
		{"not found", http.StatusNotFound, ErrNotFound, 1, ""},
		{"forbidden", http.StatusForbidden, ErrForbidden, 1, ""},
		{"unauthorized", http.StatusUnauthorized, ErrForbidden, 1, ""},
		{"bad request", http.StatusBadRequest, nil, 1, "unexpected status 400"},
		{"unavailable", http.StatusServiceUnavailable, nil, 3, "unexpected status 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"status":{"message":"nope"}}`))
			})

			_, err := c.SummonerByID(context.Background(), "na1", "s1")
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, eris.Is(err, tt.target), "got %v", err)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestGet_MalformedJSON(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{invalid`))
	})
	_, err := c.SummonerByID(context.Background(), "na1", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestRouting(t *testing.T) {
	for platform, want := range map[string]string{"na1": "americas", "euw1": "europe", "kr": "asia", "oc1": "sea"} {
		got, err := RegionalRoute(platform)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, p := range Platforms {
		_, err := RegionalRoute(p)
		assert.NoError(t, err, p)
	}
	_, err := RegionalRoute("NA1")
	assert.Error(t, err)

	assert.True(t, IsTier("CHALLENGER"))
	assert.False(t, IsTier("challenger"))
	assert.True(t, IsQueue("RANKED_FLEX_SR"))
	assert.False(t, IsPlatform("na"))
}

func TestURLTemplate(t *testing.T) {
	c := NewClient("k").(*httpClient)
	assert.Equal(t, "https://americas.api.riotgames.com", c.url("americas"))

	c = NewClient("k", WithBaseURL("http://127.0.0.1:9000/")).(*httpClient)
	assert.Equal(t, "http://127.0.0.1:9000", c.url("na1"))
}
