package snapshots

import (
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"

	"github.com/zilean-lol/zilean/internal/features"
)

// AggKind selects what an aggregation collapses.
type AggKind string

const (
	// AggTeam collapses lanes: one value per feature and frame (feature_frameN).
	AggTeam AggKind = "team"
	// AggFrame collapses frames: one value per feature and lane (feature_lane).
	AggFrame AggKind = "frame"
)

// ParseAggKind validates an aggregation kind.
func ParseAggKind(s string) (AggKind, error) {
	switch k := AggKind(strings.ToLower(strings.TrimSpace(s))); k {
	case AggTeam, AggFrame:
		return k, nil
	default:
		return "", eris.Wrapf(ErrUsage, "snapshots: unknown aggregation type %q (want team or frame)", s)
	}
}

// AggFunc reduces the values of one group.
type AggFunc func([]float64) float64

// Sum adds the values. It is the default aggregation.
func Sum(v []float64) float64 { return lo.Sum(v) }

// Mean averages the values.
func Mean(v []float64) float64 { return lo.Mean(v) }

// Min returns the smallest value.
func Min(v []float64) float64 { return lo.Min(v) }

// Max returns the largest value.
func Max(v []float64) float64 { return lo.Max(v) }

// Median returns the middle value, or the mean of the two middle values.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := slices.Clone(v)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

var aggFuncs = map[string]AggFunc{
	"sum":    Sum,
	"mean":   Mean,
	"min":    Min,
	"max":    Max,
	"median": Median,
}

// AggFuncNames lists the names AggFuncByName accepts.
func AggFuncNames() []string {
	names := lo.Keys(aggFuncs)
	slices.Sort(names)
	return names
}

// AggFuncByName resolves sum, mean, min, max or median. Empty means sum.
func AggFuncByName(name string) (AggFunc, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Sum, nil
	}
	fn, ok := aggFuncs[name]
	if !ok {
		return nil, eris.Wrapf(ErrUsage, "snapshots: unknown aggregation function %q (want one of %s)",
			name, strings.Join(AggFuncNames(), ", "))
	}
	return fn, nil
}

// AggRow is one match of an aggregation; Values line up with AggResult.Columns.
// Rows keep the order of the collection's matches.
type AggRow struct {
	Values []float64 `json:"values"`
}

// AggResult is an aggregated per-match table. It holds stat groups only;
// matchId and win are not carried over.
type AggResult struct {
	Kind    AggKind  `json:"type"`
	Columns []string `json:"columns"`
	Rows    []AggRow `json:"rows"`
}

// Header returns the aggregated column names.
func (r *AggResult) Header() []string {
	return slices.Clone(r.Columns)
}

// Agg groups the stat columns of every per-match record and reduces each
// group with fn (Sum when nil). Team aggregation groups the five lanes of a
// feature at one frame; frame aggregation groups the frames of a feature in
// one lane.
func (c *Collection) Agg(kind AggKind, fn AggFunc) (*AggResult, error) {
	var key func(features.Column) string
	switch kind {
	case AggTeam:
		key = func(col features.Column) string {
			return col.Feature + "_frame" + strconv.Itoa(col.Frame)
		}
	case AggFrame:
		key = func(col features.Column) string {
			return col.Feature + "_" + strconv.Itoa(col.Lane)
		}
	default:
		return nil, eris.Wrapf(ErrUsage, "snapshots: unknown aggregation type %q (want team or frame)", kind)
	}
	if fn == nil {
		fn = Sum
	}

	res := &AggResult{Kind: kind}
	index := make(map[string]int)
	for _, r := range c.matches {
		for _, col := range r.Columns {
			k := key(col)
			if _, ok := index[k]; !ok {
				index[k] = len(res.Columns)
				res.Columns = append(res.Columns, k)
			}
		}
	}

	for _, r := range c.matches {
		groups := make([][]float64, len(res.Columns))
		for _, col := range r.Columns {
			i := index[key(col)]
			groups[i] = append(groups[i], r.Values[col])
		}
		row := AggRow{Values: make([]float64, len(groups))}
		for i, g := range groups {
			row.Values[i] = fn(g)
		}
		res.Rows = append(res.Rows, row)
	}

	return res, nil
}
