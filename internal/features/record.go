package features

// Record is one row of differenced features: team A minus team B for every
// column, plus the match outcome. Per-frame rows also carry the frame.
type Record struct {
	MatchID  string
	Win      bool
	Frame    int
	PerFrame bool
	Columns  []Column
	Values   map[Column]float64
}

func newRecord(matchID string, win bool) Record {
	if matchID == "" {
		matchID = UnknownMatchID
	}
	return Record{MatchID: matchID, Win: win, Values: make(map[Column]float64)}
}

// Set stores a value, appending the column on first use.
func (r *Record) Set(c Column, v float64) {
	if r.Values == nil {
		r.Values = make(map[Column]float64)
	}
	if _, ok := r.Values[c]; !ok {
		r.Columns = append(r.Columns, c)
	}
	r.Values[c] = v
}

// Value returns the value of c.
func (r Record) Value(c Column) (float64, bool) {
	v, ok := r.Values[c]
	return v, ok
}

// Clone returns a copy sharing nothing with r.
func (r Record) Clone() Record {
	out := r
	out.Columns = append([]Column(nil), r.Columns...)
	out.Values = make(map[Column]float64, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Project returns a copy holding only the columns keep accepts, in the
// input order. Metadata is always kept.
func (r Record) Project(keep func(Column) bool) Record {
	out := r
	out.Columns = nil
	out.Values = make(map[Column]float64)
	for _, c := range r.Columns {
		if keep(c) {
			out.Columns = append(out.Columns, c)
			out.Values[c] = r.Values[c]
		}
	}
	return out
}

// Header lists the flattened names of r: stat columns first, then matchId,
// win and, for per-frame rows, frame.
func (r Record) Header(frameQualified bool) []string {
	names := Names(r.Columns, frameQualified)
	names = append(names, MatchIDColumn, WinColumn)
	if r.PerFrame {
		names = append(names, FrameColumn)
	}
	return names
}

// Flat renders r as a name -> value map, the shape written to disk.
func (r Record) Flat(frameQualified bool) map[string]any {
	out := make(map[string]any, len(r.Columns)+3)
	for _, c := range r.Columns {
		out[c.Name(frameQualified)] = r.Values[c]
	}
	out[MatchIDColumn] = r.MatchID
	out[WinColumn] = r.Win
	if r.PerFrame {
		out[FrameColumn] = r.Frame
	}
	return out
}
