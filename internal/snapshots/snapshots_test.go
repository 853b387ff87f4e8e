package snapshots

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilean-lol/zilean/internal/features"
	"github.com/zilean-lol/zilean/internal/timeline"
	"github.com/zilean-lol/zilean/internal/timeline/timelinetest"
)

func sampleTimelines() []*timeline.RawTimeline {
	return []*timeline.RawTimeline{
		timelinetest.New("NA1_1").Build(),
		timelinetest.New("NA1_2").Winner(200).Build(),
		timelinetest.New("NA1_3").Set(8, 4, features.MinionsKilled, 50.0).Set(8, 9, features.MinionsKilled, 76.0).Build(),
	}
}

func newCollection(t *testing.T, frames ...int) *Collection {
	t.Helper()
	opts := DefaultOptions()
	if len(frames) > 0 {
		opts.Frames = frames
	}
	c, err := New(FromTimelines(sampleTimelines()), opts)
	require.NoError(t, err)
	return c
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDefaultOptions_Fresh(t *testing.T) {
	a := DefaultOptions()
	a.Frames[0] = 99
	a.CreepScore = false

	b := DefaultOptions()
	assert.Equal(t, []int{8}, b.Frames)
	assert.True(t, b.CreepScore)
	assert.True(t, b.Proportion)
	assert.False(t, b.Overwrite)
}

func TestNew_SingleFrame(t *testing.T) {
	c := newCollection(t)

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.FrameQualified())

	summary := c.Summary(false)
	require.Len(t, summary, 3)
	assert.Equal(t, "NA1_1", summary[0].MatchID)
	assert.True(t, summary[0].Win)
	assert.False(t, summary[1].Win)

	flat := summary[2].Flat(c.FrameQualified())
	assert.Equal(t, -26.0, flat["creepScore_3"])

	assert.Len(t, c.Summary(true), 3)
}

func TestNew_MultipleFrames(t *testing.T) {
	c := newCollection(t, 8, 12)

	assert.True(t, c.FrameQualified())
	perFrame := c.Summary(true)
	require.Len(t, perFrame, 6)
	assert.Equal(t, "NA1_1", perFrame[0].MatchID)
	assert.Equal(t, 8, perFrame[0].Frame)
	assert.Equal(t, 12, perFrame[1].Frame)

	header := c.Header(true)
	assert.Equal(t, "creepScore_0_frame8", header[0])
	assert.Equal(t, []string{features.MatchIDColumn, features.WinColumn, features.FrameColumn}, header[len(header)-3:])
}

func TestNew_SingleTimeline(t *testing.T) {
	c, err := New(FromTimeline(timelinetest.New("EUW1_9").Build()), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestNew_Errors(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		_, err := New(FromTimelines(nil), DefaultOptions())
		assert.True(t, eris.Is(err, ErrUsage), "got %v", err)
	})

	t.Run("invalid timeline aborts batch", func(t *testing.T) {
		ts := sampleTimelines()
		ts[1].Info.FrameInterval = nil
		_, err := New(FromTimelines(ts), DefaultOptions())
		require.Error(t, err)
		var verr *timeline.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Equal(t, timeline.ReasonMissingFrameInterval, verr.Reason)
	})

	t.Run("frame out of range", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Frames = []int{40}
		_, err := New(FromTimelines(sampleTimelines()), opts)
		assert.True(t, eris.Is(err, features.ErrFrameOutOfRange), "got %v", err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New(FromJSONFile(filepath.Join(t.TempDir(), "nope.json")), DefaultOptions())
		assert.True(t, eris.Is(err, ErrNotFound), "got %v", err)
	})
}

func TestOpen_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "matches.json", timelinetest.JSONList(sampleTimelines()...))

	c, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, newCollection(t).Summary(false), c.Summary(false))
}

func TestOpen_NotAMatchTimeline(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.json", []byte(`{"Nope":0}`))

	_, err := Open(path, DefaultOptions())
	require.Error(t, err)
	assert.True(t, eris.Is(err, timeline.ErrInvalidTimeline), "got %v", err)
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	_, err := Open("matches.parquet", DefaultOptions())
	assert.True(t, eris.Is(err, ErrUsage), "got %v", err)
}

func TestSchema(t *testing.T) {
	c := newCollection(t, 8, 12)
	schema := c.Schema()

	n := len(timelinetest.NormalizedStats) * features.NumLanes * 2
	require.Len(t, schema, n+2)
	for _, d := range schema[:n] {
		assert.True(t, d.IsStat(), d.Name)
	}
	assert.Equal(t, features.MatchIDColumn, schema[n].Name)
	assert.Nil(t, schema[n].Feature)
	assert.Equal(t, features.WinColumn, schema[n+1].Name)
}

func TestParseLane(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"TOP", 0}, {"jug", 1}, {"Mid", 2}, {"bot", 3}, {" SUP ", 4}, {"0", 0}, {"4", 4},
	}
	for _, tt := range tests {
		got, err := ParseLane(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"ADC", "5", "-1", ""} {
		_, err := ParseLane(bad)
		assert.True(t, eris.Is(err, ErrUsage), bad)
	}
}

func TestSubset(t *testing.T) {
	c := newCollection(t, 8, 12)

	sub, err := c.Subset(Filter{Features: []string{"xp", "totalGold"}, Lanes: []string{"MID", "4"}, Frames: []int{12}})
	require.NoError(t, err)

	for _, r := range sub.Summary(false) {
		require.Len(t, r.Columns, 4)
		for _, col := range r.Columns {
			assert.Contains(t, []string{"xp", "totalGold"}, col.Feature)
			assert.Contains(t, []int{2, 4}, col.Lane)
			assert.Equal(t, 12, col.Frame)
		}
	}

	perFrame := sub.Summary(true)
	require.Len(t, perFrame, 6)
	assert.Empty(t, perFrame[0].Columns, "frame 8 rows keep only metadata")
	assert.Len(t, perFrame[1].Columns, 4)
	assert.Equal(t, []string{"totalGold_2_frame12", "xp_2_frame12", "totalGold_4_frame12", "xp_4_frame12",
		features.MatchIDColumn, features.WinColumn}, sub.Header(false))

	// source untouched
	assert.Len(t, c.Summary(false)[0].Columns, len(timelinetest.NormalizedStats)*features.NumLanes*2)
}

func TestSubset_EmptyFilterKeepsEverything(t *testing.T) {
	for _, frames := range [][]int{{8}, {8, 12}} {
		t.Run(FramesTag(frames), func(t *testing.T) {
			c := newCollection(t, frames...)

			sub, err := c.Subset(Filter{})
			require.NoError(t, err)

			assert.ElementsMatch(t, c.Header(false), sub.Header(false))
			assert.ElementsMatch(t, c.Header(true), sub.Header(true))
			assert.Equal(t, c.Summary(false), sub.Summary(false))
			assert.Equal(t, c.Summary(true), sub.Summary(true))
			assert.Equal(t, c.Frames(), sub.Frames())
		})
	}
}

func TestSummary_PerFrameSlicesPerMatch(t *testing.T) {
	tests := []struct {
		name string
		c    *Collection
	}{
		{"one frame", newCollection(t)},
		{"two frames", newCollection(t, 8, 12)},
		{"varied lanes", variedCollection(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := make(map[string]features.Record)
			for _, m := range tt.c.Summary(false) {
				matches[m.MatchID] = m
			}

			perFrame := tt.c.Summary(true)
			require.Len(t, perFrame, len(matches)*len(tt.c.Frames()))
			for _, pf := range perFrame {
				m, ok := matches[pf.MatchID]
				require.True(t, ok, pf.MatchID)
				assert.Equal(t, m.Win, pf.Win)

				n := 0
				for _, col := range m.Columns {
					if col.Frame == pf.Frame {
						n++
					}
				}
				assert.Len(t, pf.Columns, n, "frame %d of %s", pf.Frame, pf.MatchID)
				for _, col := range pf.Columns {
					assert.Equal(t, pf.Frame, col.Frame)
					assert.Equal(t, m.Values[col], pf.Values[col], col.Name(true))
				}
			}
		})
	}
}

func TestSubset_EmptyIntersection(t *testing.T) {
	c := newCollection(t)

	sub, err := c.Subset(Filter{Features: []string{"doesNotExist"}})
	require.NoError(t, err)
	assert.Equal(t, []string{features.MatchIDColumn, features.WinColumn}, sub.Header(false))
	assert.Equal(t, 3, sub.Len())
}

func TestSubset_BadLane(t *testing.T) {
	_, err := newCollection(t).Subset(Filter{Lanes: []string{"JUNGLE"}})
	assert.True(t, eris.Is(err, ErrUsage), "got %v", err)
}

// variedCollection holds one match sampled at frames 8 and 12 where lane 2
// leads by 1000 gold at frame 12 only and lane 0 leads by 100 xp at frame 8
// only. Every other lane keeps the fixture's -50 gold and -25 xp.
func variedCollection(t *testing.T) *Collection {
	t.Helper()
	tl := timelinetest.New("NA1_9").
		Set(12, 3, features.TotalGold, 5180.0).
		Set(8, 1, features.XP, 2370.0).
		Build()
	opts := DefaultOptions()
	opts.Frames = []int{8, 12}
	c, err := New(FromTimeline(tl), opts)
	require.NoError(t, err)
	return c
}

func aggValue(t *testing.T, res *AggResult, column string) float64 {
	t.Helper()
	i := indexOf(res.Columns, column)
	require.GreaterOrEqual(t, i, 0, "no column %s", column)
	require.Len(t, res.Rows, 1)
	return res.Rows[0].Values[i]
}

func TestAgg_Team(t *testing.T) {
	c := newCollection(t, 8, 12)

	res, err := c.Agg(AggTeam, nil)
	require.NoError(t, err)

	assert.Len(t, res.Columns, len(timelinetest.NormalizedStats)*2)
	assert.Contains(t, res.Columns, "totalGold_frame8")
	assert.Contains(t, res.Columns, "xp_frame12")
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, res.Columns, res.Header())
	assert.NotContains(t, res.Header(), features.MatchIDColumn)
	assert.NotContains(t, res.Header(), features.WinColumn)
}

func TestAgg_TeamGroupsLanesPerFrame(t *testing.T) {
	c := variedCollection(t)

	tests := []struct {
		fn     AggFunc
		column string
		want   float64
	}{
		{Sum, "totalGold_frame8", -250},
		{Sum, "totalGold_frame12", 800},
		{Sum, "xp_frame8", 0},
		{Sum, "xp_frame12", -125},
		{Max, "totalGold_frame12", 1000},
		{Min, "xp_frame8", -25},
	}
	for _, tt := range tests {
		res, err := c.Agg(AggTeam, tt.fn)
		require.NoError(t, err)
		assert.Equal(t, tt.want, aggValue(t, res, tt.column), tt.column)
	}

	// every team column is the sum of that feature's five lanes at that frame
	res, err := c.Agg(AggTeam, Sum)
	require.NoError(t, err)
	rec := c.Summary(false)[0]
	want := make(map[string]float64)
	for _, col := range rec.Columns {
		want[col.Feature+"_frame"+strconv.Itoa(col.Frame)] += rec.Values[col]
	}
	require.Len(t, want, len(res.Columns))
	for i, name := range res.Columns {
		assert.InDelta(t, want[name], res.Rows[0].Values[i], 1e-9, name)
	}
}

func TestAgg_Frame(t *testing.T) {
	c := newCollection(t, 8, 12)

	res, err := c.Agg(AggFrame, Mean)
	require.NoError(t, err)

	assert.Len(t, res.Columns, len(timelinetest.NormalizedStats)*features.NumLanes)
	i := indexOf(res.Columns, "xp_3")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, -25.0, res.Rows[1].Values[i])
	assert.Equal(t, res.Columns, res.Header())
}

func TestAgg_FrameGroupsFramesPerLane(t *testing.T) {
	c := variedCollection(t)

	tests := []struct {
		fn     AggFunc
		column string
		want   float64
	}{
		{Sum, "totalGold_2", 950},
		{Sum, "totalGold_0", -100},
		{Sum, "xp_0", 75},
		{Sum, "xp_2", -50},
		{Mean, "totalGold_2", 475},
		{Max, "xp_0", 100},
	}
	for _, tt := range tests {
		res, err := c.Agg(AggFrame, tt.fn)
		require.NoError(t, err)
		assert.Equal(t, tt.want, aggValue(t, res, tt.column), tt.column)
	}
}

func TestAgg_UnknownKind(t *testing.T) {
	res, err := newCollection(t).Agg(AggKind("lane"), Sum)
	assert.Nil(t, res)
	assert.True(t, eris.Is(err, ErrUsage), "got %v", err)

	_, err = ParseAggKind("lane")
	assert.True(t, eris.Is(err, ErrUsage))
	k, err := ParseAggKind(" TEAM ")
	require.NoError(t, err)
	assert.Equal(t, AggTeam, k)
}

func TestAggFuncs(t *testing.T) {
	v := []float64{4, 1, 3, 2}
	assert.Equal(t, 10.0, Sum(v))
	assert.Equal(t, 2.5, Mean(v))
	assert.Equal(t, 1.0, Min(v))
	assert.Equal(t, 4.0, Max(v))
	assert.Equal(t, 2.5, Median(v))
	assert.Equal(t, 3.0, Median([]float64{5, 3, 1}))
	assert.Equal(t, []float64{4, 1, 3, 2}, v)

	fn, err := AggFuncByName("")
	require.NoError(t, err)
	assert.Equal(t, 10.0, fn(v))

	fn, err = AggFuncByName("MEDIAN")
	require.NoError(t, err)
	assert.Equal(t, 2.5, fn(v))

	_, err = AggFuncByName("mode")
	assert.True(t, eris.Is(err, ErrUsage))
}

func TestToDisk_WritesBothTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	c := newCollection(t, 8, 12)

	require.NoError(t, c.ToDisk(dir, true))

	f, err := os.Open(filepath.Join(dir, "match_8_12.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, "", rows[0][0])
	assert.Equal(t, "creepScore_0_frame8", rows[0][1])
	assert.Equal(t, []string{"0", "NA1_1", "True"}, []string{rows[1][0], rows[1][len(rows[1])-2], rows[1][len(rows[1])-1]})
	assert.Equal(t, "False", rows[2][len(rows[2])-1])

	assert.FileExists(t, filepath.Join(dir, "frame_8_12.csv"))
}

func TestToDisk_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	c := newCollection(t)
	require.NoError(t, c.ToDisk(dir, false))

	err := c.ToDisk(dir, false)
	assert.True(t, eris.Is(err, ErrUsage), "got %v", err)

	opts := DefaultOptions()
	opts.Overwrite = true
	c2, err := New(FromTimelines(sampleTimelines()), opts)
	require.NoError(t, err)
	assert.NoError(t, c2.ToDisk(dir, false))
}

func TestTabular_RoundTrip(t *testing.T) {
	for _, frames := range [][]int{{8}, {8, 12}} {
		t.Run(FramesTag(frames), func(t *testing.T) {
			dir := t.TempDir()
			c := newCollection(t, frames...)
			require.NoError(t, c.ToDisk(dir, false))

			matchName, frameName := FileNames(frames)
			for _, name := range []string{matchName, frameName} {
				loaded, err := Open(filepath.Join(dir, name), Options{})
				require.NoError(t, err)

				assert.Equal(t, frames, loaded.Frames())
				assert.Equal(t, c.Summary(false), loaded.Summary(false))
				assert.Equal(t, c.Summary(true), loaded.Summary(true))
				assert.Equal(t, c.Schema(), loaded.Schema())
			}
		})
	}
}

func TestTabular_MissingSibling(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newCollection(t).ToDisk(dir, false))
	require.NoError(t, os.Remove(filepath.Join(dir, "frame_8.csv")))

	_, err := Open(filepath.Join(dir, "match_8.csv"), Options{})
	assert.True(t, eris.Is(err, ErrNotFound), "got %v", err)
}

func TestTabular_RequestedFrames(t *testing.T) {
	dir := t.TempDir()
	c := newCollection(t, 8, 12)
	require.NoError(t, c.ToDisk(dir, false))
	path := filepath.Join(dir, "match_8_12.csv")

	tests := []struct {
		name      string
		requested []int
		wantErr   bool
	}{
		{"none", nil, false},
		{"same as file name", []int{8, 12}, false},
		{"default options", DefaultOptions().Frames, true},
		{"other order", []int{12, 8}, true},
		{"extra frame", []int{8, 12, 16}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := Open(path, Options{Frames: tt.requested})
			if tt.wantErr {
				assert.True(t, eris.Is(err, ErrUsage), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int{8, 12}, loaded.Frames())
			assert.True(t, loaded.FrameQualified())
			assert.Equal(t, c.Header(false), loaded.Header(false))
			assert.Equal(t, c.Schema(), loaded.Schema())
		})
	}
}

func TestTabular_FramesFromOptionsWhenNameHasNone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newCollection(t).ToDisk(dir, false))
	path := filepath.Join(dir, "match_8.csv")
	renamed := filepath.Join(dir, "match_x.csv")
	require.NoError(t, os.Rename(path, renamed))
	require.NoError(t, os.Rename(filepath.Join(dir, "frame_8.csv"), filepath.Join(dir, "frame_x.csv")))

	_, err := Open(renamed, Options{})
	assert.True(t, eris.Is(err, ErrUsage), "got %v", err)

	c, err := Open(renamed, Options{Frames: []int{8}})
	require.NoError(t, err)
	col, ok := c.Schema()[0].Column()
	require.True(t, ok)
	assert.Equal(t, 8, col.Frame)
}

func TestSiblingPath(t *testing.T) {
	got, err := SiblingPath(filepath.Join("data", "match_8_12.csv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "frame_8_12.csv"), got)

	got, err = SiblingPath("frame_8.csv")
	require.NoError(t, err)
	assert.Equal(t, "match_8.csv", got)

	_, err = SiblingPath("results.csv")
	assert.True(t, eris.Is(err, ErrUsage))
}

func TestAggResult_WriteCSV(t *testing.T) {
	res, err := newCollection(t).Agg(AggTeam, Sum)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, append([]string{""}, res.Columns...), rows[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(res.Columns)+1)
	}
}

func TestToXLSX(t *testing.T) {
	dir := t.TempDir()
	path, err := newCollection(t, 8, 12).ToXLSX(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshots_8_12.xlsx"), path)
	assert.FileExists(t, path)

	_, err = newCollection(t, 8, 12).ToXLSX(dir, false)
	assert.True(t, eris.Is(err, ErrUsage))
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
