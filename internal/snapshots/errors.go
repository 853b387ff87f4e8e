package snapshots

import "github.com/rotisserie/eris"

var (
	// ErrUsage means the caller asked for something the collection cannot do:
	// a bad source, an unknown aggregation, an existing output file.
	ErrUsage = eris.New("snapshots: invalid usage")
	// ErrNotFound means an input file, or the sibling of a tabular file, is missing.
	ErrNotFound = eris.New("snapshots: file not found")
)
