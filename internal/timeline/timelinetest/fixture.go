// Package timelinetest builds synthetic match timelines for tests.
//
// Stat values depend only on the minute m and slot s (1-10), so lane
// differences are easy to predict: for every lane, slot s is diffed against
// s+5, giving totalGold -50, xp -25, minionsKilled -5 and 0 jungle minions.
package timelinetest

import (
	json "github.com/goccy/go-json"

	"github.com/zilean-lol/zilean/internal/timeline"
)

// DefaultFrames is the number of frames generated when none is set.
const DefaultFrames = 17

type override struct {
	frame, slot int
	key         string
	value       any
	remove      bool
}

// Builder assembles a RawTimeline.
type Builder struct {
	matchID   string
	frames    int
	winner    *int
	interval  int64
	overrides []override
}

// New starts a timeline for matchID that team 100 wins.
func New(matchID string) *Builder {
	w := timeline.FirstTeamID
	return &Builder{matchID: matchID, frames: DefaultFrames, winner: &w, interval: 60000}
}

// Frames sets how many frames the timeline has.
func (b *Builder) Frames(n int) *Builder {
	b.frames = n
	return b
}

// Winner sets the winningTeam of the final event.
func (b *Builder) Winner(team int) *Builder {
	b.winner = &team
	return b
}

// NoWinner drops the winningTeam from the final event.
func (b *Builder) NoWinner() *Builder {
	b.winner = nil
	return b
}

// Interval sets frameInterval in milliseconds.
func (b *Builder) Interval(ms int64) *Builder {
	b.interval = ms
	return b
}

// Set overrides one stat of one participant (slot 1-10) at one frame.
func (b *Builder) Set(frame, slot int, key string, value any) *Builder {
	b.overrides = append(b.overrides, override{frame: frame, slot: slot, key: key, value: value})
	return b
}

// SetAll overrides one stat for every participant at every frame.
func (b *Builder) SetAll(key string, value any) *Builder {
	for f := 0; f < b.frames; f++ {
		for s := 1; s <= 10; s++ {
			b.Set(f, s, key, value)
		}
	}
	return b
}

// Delete removes one stat of one participant at one frame.
func (b *Builder) Delete(frame, slot int, key string) *Builder {
	b.overrides = append(b.overrides, override{frame: frame, slot: slot, key: key, remove: true})
	return b
}

// Build returns the timeline.
func (b *Builder) Build() *timeline.RawTimeline {
	interval := b.interval
	t := &timeline.RawTimeline{
		Metadata: timeline.Metadata{DataVersion: "2", MatchID: b.matchID},
		Info:     timeline.Info{FrameInterval: &interval},
	}

	for m := 0; m < b.frames; m++ {
		frame := timeline.Frame{
			Timestamp:         int64(m) * interval,
			ParticipantFrames: make(map[string]timeline.ParticipantFrame, 10),
			Events:            []timeline.Event{{Type: "ITEM_PURCHASED", Timestamp: int64(m) * interval}},
		}
		for s := 1; s <= 10; s++ {
			frame.ParticipantFrames[slotKey(s)] = Participant(m, s)
		}
		t.Info.Frames = append(t.Info.Frames, frame)
	}

	for _, o := range b.overrides {
		if o.frame >= len(t.Info.Frames) {
			continue
		}
		p := t.Info.Frames[o.frame].ParticipantFrames[slotKey(o.slot)]
		if o.remove {
			delete(p, o.key)
			continue
		}
		p[o.key] = o.value
	}

	if n := len(t.Info.Frames); n > 0 {
		last := &t.Info.Frames[n-1]
		last.Events = append(last.Events, timeline.Event{Type: "GAME_END", Timestamp: last.Timestamp, WinningTeam: b.winner})
	}
	return t
}

// JSON returns the timeline encoded as a MatchTimelineDto.
func (b *Builder) JSON() []byte {
	data, err := json.Marshal(b.Build())
	if err != nil {
		panic(err)
	}
	return data
}

// JSONList encodes timelines as the JSON array a snapshot input file holds.
func JSONList(ts ...*timeline.RawTimeline) []byte {
	data, err := json.Marshal(ts)
	if err != nil {
		panic(err)
	}
	return data
}

// Participant returns the default stat block for minute m and slot s.
func Participant(m, s int) timeline.ParticipantFrame {
	fm, fs := float64(m), float64(s)
	jungle := 0.0
	if s == 2 || s == 7 {
		jungle = fm
	}
	return timeline.ParticipantFrame{
		"championStats": map[string]any{
			"armor":        30.0 + fm,
			"attackDamage": 60.0 + fm,
		},
		"currentGold": 100.0 + fs,
		"damageStats": map[string]any{
			"magicDamageDone":               10 * fm,
			"magicDamageDoneToChampions":    fm,
			"magicDamageTaken":              2 * fm,
			"physicalDamageDone":            20 * fm,
			"physicalDamageDoneToChampions": 2 * fm,
			"physicalDamageTaken":           4 * fm,
			"totalDamageDone":               1000*fm + fs,
			"totalDamageDoneToChampions":    100*fm + fs,
			"totalDamageTaken":              200*fm + fs,
			"trueDamageDone":                fm,
			"trueDamageDoneToChampions":     0.0,
			"trueDamageTaken":               0.0,
		},
		"goldPerSecond":            0.0,
		"jungleMinionsKilled":      jungle,
		"level":                    1 + float64(m/2),
		"minionsKilled":            6*fm + fs,
		"participantId":            fs,
		"position":                 map[string]any{"x": 100 * fs, "y": 100 * fm},
		"timeEnemySpentControlled": 0.0,
		"totalGold":                500 + 300*fm + 10*fs,
		"xp":                       280*fm + 5*fs,
	}
}

// CleanStats are the stat names left after extraction, before normalization.
var CleanStats = []string{
	"jungleMinionsKilled", "level", "minionsKilled", "timeEnemySpentControlled",
	"totalDamageDone", "totalDamageDoneToChampions", "totalDamageTaken",
	"totalGold", "xp",
}

// NormalizedStats are the stat names after creep score and proportions, sorted.
var NormalizedStats = []string{
	"creepScore", "goldProportion", "level", "timeEnemySpentControlled",
	"totalDamageDone", "totalDamageDoneToChampions", "totalDamageTaken",
	"totalGold", "xp", "xpProportion",
}

func slotKey(s int) string {
	const digits = "0123456789"
	if s < 10 {
		return digits[s : s+1]
	}
	return "1" + digits[s-10:s-9]
}
