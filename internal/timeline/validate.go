package timeline

import "github.com/rotisserie/eris"

// ErrInvalidTimeline is the kind of every validation failure.
var ErrInvalidTimeline = eris.New("timeline: not a valid match timeline")

// Reason names the first required path that was missing.
type Reason string

const (
	ReasonMissingMatchID       Reason = "missing_match_id"
	ReasonMissingFrameInterval Reason = "missing_frame_interval"
	ReasonNoFrames             Reason = "no_frames"
	ReasonMissingWinner        Reason = "missing_winning_team"
	ReasonNoParticipants       Reason = "no_participant_frames"
)

// ValidationError reports a record that is not a usable MatchTimelineDto.
// The message is the same for every Reason; callers that need to tell the
// cases apart inspect Reason.
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	return ErrInvalidTimeline.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTimeline
}

// Validate confirms t carries a match id, a frame interval, at least one
// frame, a winning team on the final event and participant frames on the
// first frame. It returns the match id.
func Validate(t *RawTimeline) (string, error) {
	if t == nil || t.Metadata.MatchID == "" {
		return "", &ValidationError{Reason: ReasonMissingMatchID}
	}
	if t.Info.FrameInterval == nil {
		return "", &ValidationError{Reason: ReasonMissingFrameInterval}
	}
	if len(t.Info.Frames) == 0 {
		return "", &ValidationError{Reason: ReasonNoFrames}
	}
	if _, ok := t.WinningTeam(); !ok {
		return "", &ValidationError{Reason: ReasonMissingWinner}
	}
	if len(t.Info.Frames[0].ParticipantFrames) == 0 {
		return "", &ValidationError{Reason: ReasonNoParticipants}
	}
	return t.Metadata.MatchID, nil
}
