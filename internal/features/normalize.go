package features

import (
	"github.com/rotisserie/eris"

	"github.com/zilean-lol/zilean/internal/timeline"
)

// Stat names read or produced by the normalizer.
const (
	JungleMinionsKilled = "jungleMinionsKilled"
	MinionsKilled       = "minionsKilled"
	CreepScore          = "creepScore"
	TotalGold           = "totalGold"
	XP                  = "xp"
	GoldProportion      = "goldProportion"
	XPProportion        = "xpProportion"
)

// AddCreepScore replaces jungleMinionsKilled and minionsKilled with their sum
// under creepScore. A participant with neither field must already carry
// creepScore; one with only one of them is an error. f is not modified.
func AddCreepScore(f *Frames) (*Frames, error) {
	out := f.Clone()
	for _, frame := range out.Order {
		for slot, p := range out.Players[frame] {
			jungle, hasJungle := p[JungleMinionsKilled]
			lane, hasLane := p[MinionsKilled]

			switch {
			case hasJungle && hasLane:
				j, okJ := timeline.Number(jungle)
				l, okL := timeline.Number(lane)
				if !okJ || !okL {
					return nil, eris.Wrapf(ErrMissingData, "frame %d slot %d: minion counts are not numeric", frame, slot+1)
				}
				p[CreepScore] = j + l
				delete(p, JungleMinionsKilled)
				delete(p, MinionsKilled)
			case !hasJungle && !hasLane:
				if _, ok := p[CreepScore]; !ok {
					return nil, eris.Wrapf(ErrMissingData, "frame %d slot %d: no minion counts or creep score", frame, slot+1)
				}
			default:
				return nil, eris.Wrapf(ErrMissingData, "frame %d slot %d: only one of %s and %s present",
					frame, slot+1, JungleMinionsKilled, MinionsKilled)
			}
		}
	}
	return out, nil
}

// AddProportions adds each participant's share of their team's total gold and
// experience at every frame. Slots 1-5 and 6-10 form the two teams. A team
// total of zero fails with ErrZeroTeamTotal. f is not modified.
func AddProportions(f *Frames) (*Frames, error) {
	out := f.Clone()
	for _, frame := range out.Order {
		players := out.Players[frame]

		gold := make([]float64, len(players))
		xp := make([]float64, len(players))
		var teamGold, teamXP [2]float64
		for slot, p := range players {
			g, err := statValue(p, TotalGold, frame, slot)
			if err != nil {
				return nil, err
			}
			x, err := statValue(p, XP, frame, slot)
			if err != nil {
				return nil, err
			}
			gold[slot], xp[slot] = g, x
			teamGold[slot/PlayersPerTeam] += g
			teamXP[slot/PlayersPerTeam] += x
		}

		for team := 0; team < 2; team++ {
			if teamGold[team] == 0 || teamXP[team] == 0 {
				return nil, eris.Wrapf(ErrZeroTeamTotal, "frame %d team %d", frame, team+1)
			}
		}

		for slot, p := range players {
			team := slot / PlayersPerTeam
			p[GoldProportion] = gold[slot] / teamGold[team]
			p[XPProportion] = xp[slot] / teamXP[team]
		}
	}
	return out, nil
}

func statValue(p timeline.ParticipantFrame, key string, frame, slot int) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return 0, eris.Wrapf(ErrMissingData, "frame %d slot %d: missing %s", frame, slot+1, key)
	}
	v, ok := timeline.Number(raw)
	if !ok {
		return 0, eris.Wrapf(ErrMissingData, "frame %d slot %d: %s is not numeric", frame, slot+1, key)
	}
	return v, nil
}
