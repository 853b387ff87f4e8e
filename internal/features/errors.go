package features

import "github.com/rotisserie/eris"

var (
	// ErrMissingData means a participant record lacks a field a step needs.
	ErrMissingData = eris.New("features: missing participant data")
	// ErrZeroTeamTotal means a team's gold or xp sums to zero, so shares are undefined.
	ErrZeroTeamTotal = eris.New("features: team total is zero")
	// ErrFrameOutOfRange means a requested frame is not in the timeline.
	ErrFrameOutOfRange = eris.New("features: frame out of range")
	// ErrDuplicateFrame means the same frame was requested more than once.
	ErrDuplicateFrame = eris.New("features: frame requested twice")
	// ErrNoFrames means no frames were requested.
	ErrNoFrames = eris.New("features: no frames requested")
)
