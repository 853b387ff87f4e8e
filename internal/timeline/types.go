// Package timeline models Riot match-v5 timelines (MatchTimelineDto) and checks
// that a decoded record has the shape the feature pipeline relies on.
package timeline

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// FirstTeamID is the teamId of the team owning participant slots 1-5.
const FirstTeamID = 100

// RawTimeline is a MatchTimelineDto as returned by
// /lol/match/v5/matches/{matchId}/timeline.
type RawTimeline struct {
	Metadata Metadata `json:"metadata"`
	Info     Info     `json:"info"`
}

// Metadata identifies the match.
type Metadata struct {
	DataVersion  string   `json:"dataVersion,omitempty"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants,omitempty"` // PUUIDs
}

// Info holds the per-minute frames.
type Info struct {
	FrameInterval *int64  `json:"frameInterval"` // milliseconds
	Frames        []Frame `json:"frames"`
}

// Frame is one snapshot of all participants.
type Frame struct {
	Timestamp         int64                       `json:"timestamp"`
	ParticipantFrames map[string]ParticipantFrame `json:"participantFrames,omitempty"`
	Events            []Event                     `json:"events"`
}

// Event is a timeline event. Only the fields the pipeline reads are kept.
type Event struct {
	Type        string `json:"type,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
	WinningTeam *int   `json:"winningTeam,omitempty"`
}

// ParticipantFrame is one participant's stat block at one frame. Values are
// numbers, or nested maps such as damageStats, championStats and position.
type ParticipantFrame map[string]any

// Clone returns a deep copy. Nested maps are copied; other values are shared
// because they are immutable scalars after decoding.
func (p ParticipantFrame) Clone() ParticipantFrame {
	if p == nil {
		return nil
	}
	out := make(ParticipantFrame, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case ParticipantFrame:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// Number reads a stat value as float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// IsNested reports whether a stat value is a sub-record rather than a scalar.
func IsNested(v any) bool {
	switch v.(type) {
	case map[string]any, ParticipantFrame:
		return true
	default:
		return false
	}
}

// Participants returns the frame's stat blocks ordered by participant slot.
// Slot keys that are not integers sort after numeric ones.
func (f Frame) Participants() []ParticipantFrame {
	keys := make([]string, 0, len(f.ParticipantFrames))
	for k := range f.ParticipantFrames {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	out := make([]ParticipantFrame, len(keys))
	for i, k := range keys {
		out[i] = f.ParticipantFrames[k]
	}
	return out
}

// WinningTeam returns the winningTeam of the last event of the last frame.
func (t *RawTimeline) WinningTeam() (int, bool) {
	if len(t.Info.Frames) == 0 {
		return 0, false
	}
	events := t.Info.Frames[len(t.Info.Frames)-1].Events
	if len(events) == 0 || events[len(events)-1].WinningTeam == nil {
		return 0, false
	}
	return *events[len(events)-1].WinningTeam, true
}

// FirstTeamWon reports whether the team in slots 1-5 won.
func (t *RawTimeline) FirstTeamWon() bool {
	team, ok := t.WinningTeam()
	return ok && team == FirstTeamID
}

// Duration is the covered game time: number of frames times the frame interval.
func (t *RawTimeline) Duration() time.Duration {
	if t.Info.FrameInterval == nil {
		return 0
	}
	return time.Duration(int64(len(t.Info.Frames))**t.Info.FrameInterval) * time.Millisecond
}
