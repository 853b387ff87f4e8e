package features

import (
	"github.com/rotisserie/eris"

	"github.com/zilean-lol/zilean/internal/timeline"
)

// PlayersPerTeam is the number of participants on each side.
const PlayersPerTeam = 5

const damageStatsKey = "damageStats"

// noiseFields are always dropped: raw currency, identifiers and the
// per-type damage breakdown that duplicates the totals.
var noiseFields = []string{
	"currentGold", "goldPerSecond", "participantId",
	"magicDamageDone", "magicDamageDoneToChampions", "magicDamageTaken",
	"physicalDamageDone", "physicalDamageDoneToChampions", "physicalDamageTaken",
	"trueDamageDone", "trueDamageDoneToChampions", "trueDamageTaken",
}

// Frames holds the ten cleaned participant stat blocks for each requested
// frame, in slot order (slot 1 at index 0).
type Frames struct {
	Order   []int
	Players map[int][]timeline.ParticipantFrame
}

// Clone returns a deep copy.
func (f *Frames) Clone() *Frames {
	out := &Frames{
		Order:   append([]int(nil), f.Order...),
		Players: make(map[int][]timeline.ParticipantFrame, len(f.Players)),
	}
	for frame, players := range f.Players {
		cp := make([]timeline.ParticipantFrame, len(players))
		for i, p := range players {
			cp[i] = p.Clone()
		}
		out.Players[frame] = cp
	}
	return out
}

// Extract pulls the requested frames out of t and cleans them. The timeline
// is not modified.
//
// Fields holding nested records on the first participant of the first
// requested frame are treated as noise for every participant of every frame,
// so the stat layout must be uniform. damageStats is merged into the flat
// namespace before noise is removed.
func Extract(t *timeline.RawTimeline, frames []int) (*Frames, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	out := &Frames{
		Order:   append([]int(nil), frames...),
		Players: make(map[int][]timeline.ParticipantFrame, len(frames)),
	}
	for _, frame := range frames {
		if frame < 0 || frame >= len(t.Info.Frames) {
			return nil, eris.Wrapf(ErrFrameOutOfRange, "frame %d of %d", frame, len(t.Info.Frames))
		}
		if _, dup := out.Players[frame]; dup {
			return nil, eris.Wrapf(ErrDuplicateFrame, "frame %d", frame)
		}

		raw := t.Info.Frames[frame].Participants()
		if len(raw) != 2*PlayersPerTeam {
			return nil, eris.Wrapf(ErrMissingData, "frame %d has %d participant frames, want %d",
				frame, len(raw), 2*PlayersPerTeam)
		}
		players := make([]timeline.ParticipantFrame, len(raw))
		for i, p := range raw {
			players[i] = p.Clone()
		}
		out.Players[frame] = players
	}

	mask := noiseMask(out.Players[frames[0]][0])
	for _, frame := range frames {
		for _, p := range out.Players[frame] {
			clean(p, mask)
		}
	}

	return out, nil
}

func noiseMask(first timeline.ParticipantFrame) []string {
	mask := make([]string, 0, len(noiseFields)+4)
	for k, v := range first {
		if timeline.IsNested(v) {
			mask = append(mask, k)
		}
	}
	return append(mask, noiseFields...)
}

func clean(p timeline.ParticipantFrame, mask []string) {
	if dmg, ok := p[damageStatsKey].(map[string]any); ok {
		for k, v := range dmg {
			p[k] = v
		}
	}
	for _, k := range mask {
		delete(p, k)
	}
}
