package snapshots

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/features"
)

// File name prefixes of the two result tables.
const (
	MatchPrefix = "match"
	FramePrefix = "frame"
)

// FramesTag joins frames with underscores, as used in result file names.
func FramesTag(frames []int) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, "_")
}

// FileNames returns the per-match and per-frame CSV names for frames.
func FileNames(frames []int) (match, frame string) {
	tag := FramesTag(frames)
	return MatchPrefix + "_" + tag + ".csv", FramePrefix + "_" + tag + ".csv"
}

// FormatBool renders win the way pandas writes booleans.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FormatFloat renders a stat value without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Rows renders records as string rows in header order: stat values, matchId,
// win and, for per-frame records, frame.
func Rows(records []features.Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, 0, len(r.Columns)+3)
		for _, c := range r.Columns {
			row = append(row, FormatFloat(r.Values[c]))
		}
		row = append(row, r.MatchID, FormatBool(r.Win))
		if r.PerFrame {
			row = append(row, strconv.Itoa(r.Frame))
		}
		rows[i] = row
	}
	return rows
}

// WriteTable writes a CSV table whose first column is an unnamed row index.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	return WriteIndexedTable(w, header, nil, rows)
}

// WriteIndexedTable is WriteTable with explicit row labels. A nil index
// numbers rows from 0.
func WriteIndexedTable(w io.Writer, header []string, index []int, rows [][]string) error {
	if index != nil && len(index) != len(rows) {
		return eris.Errorf("snapshots: %d index labels for %d rows", len(index), len(rows))
	}
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{""}, header...)); err != nil {
		return eris.Wrap(err, "snapshots: write header")
	}
	for i, row := range rows {
		label := i
		if index != nil {
			label = index[i]
		}
		if err := cw.Write(append([]string{strconv.Itoa(label)}, row...)); err != nil {
			return eris.Wrap(err, "snapshots: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "snapshots: flush csv")
}

// WriteCSV writes the per-match or per-frame table.
func (c *Collection) WriteCSV(w io.Writer, perFrame bool) error {
	records := c.matches
	if perFrame {
		records = c.perFrame
	}
	return WriteTable(w, c.Header(perFrame), Rows(records))
}

// WriteCSV writes the aggregated table.
func (r *AggResult) WriteCSV(w io.Writer) error {
	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out := make([]string, 0, len(row.Values))
		for _, v := range row.Values {
			out = append(out, FormatFloat(v))
		}
		rows[i] = out
	}
	return WriteTable(w, r.Header(), rows)
}

// ToDisk writes match_<frames>.csv and frame_<frames>.csv into dir, creating
// it if needed. Existing files are only replaced with Options.Overwrite.
func (c *Collection) ToDisk(dir string, verbose bool) error {
	matchName, frameName := FileNames(c.frames)
	targets := []struct {
		path     string
		perFrame bool
	}{
		{filepath.Join(dir, matchName), false},
		{filepath.Join(dir, frameName), true},
	}

	if !c.opts.Overwrite {
		for _, t := range targets {
			if _, err := os.Stat(t.path); err == nil {
				return eris.Wrapf(ErrUsage, "snapshots: %s already exists (set overwrite to replace it)", t.path)
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "snapshots: create %s", dir)
	}

	for _, t := range targets {
		if err := c.writeFile(t.path, t.perFrame); err != nil {
			return err
		}
		if verbose {
			zap.L().Info("snapshots: wrote results",
				zap.String("path", t.path),
				zap.Bool("per_frame", t.perFrame),
				zap.Int("rows", c.rowCount(t.perFrame)),
			)
		}
	}
	return nil
}

func (c *Collection) writeFile(path string, perFrame bool) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "snapshots: create %s", path)
	}
	defer f.Close()

	if err := c.WriteCSV(f, perFrame); err != nil {
		return eris.Wrapf(err, "snapshots: write %s", path)
	}
	return eris.Wrapf(f.Close(), "snapshots: close %s", path)
}

func (c *Collection) rowCount(perFrame bool) int {
	if perFrame {
		return len(c.perFrame)
	}
	return len(c.matches)
}

// XLSXName returns the workbook name for frames.
func XLSXName(frames []int) string {
	return "snapshots_" + FramesTag(frames) + ".xlsx"
}

// ToXLSX writes both tables into one workbook, sheets "match" and "frame".
func (c *Collection) ToXLSX(dir string, verbose bool) (string, error) {
	path := filepath.Join(dir, XLSXName(c.frames))
	if !c.opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", eris.Wrapf(ErrUsage, "snapshots: %s already exists (set overwrite to replace it)", path)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "snapshots: create %s", dir)
	}

	file := xlsx.NewFile()
	for _, perFrame := range []bool{false, true} {
		name := MatchPrefix
		records := c.matches
		if perFrame {
			name, records = FramePrefix, c.perFrame
		}

		sheet, err := file.AddSheet(name)
		if err != nil {
			return "", eris.Wrapf(err, "snapshots: add sheet %s", name)
		}

		header := sheet.AddRow()
		for _, h := range c.Header(perFrame) {
			header.AddCell().SetString(h)
		}
		for _, r := range records {
			row := sheet.AddRow()
			for _, col := range r.Columns {
				row.AddCell().SetFloat(r.Values[col])
			}
			row.AddCell().SetString(r.MatchID)
			row.AddCell().SetBool(r.Win)
			if r.PerFrame {
				row.AddCell().SetInt(r.Frame)
			}
		}
	}

	if err := file.Save(path); err != nil {
		return "", eris.Wrapf(err, "snapshots: save %s", path)
	}
	if verbose {
		zap.L().Info("snapshots: wrote workbook", zap.String("path", path), zap.Int("matches", len(c.matches)))
	}
	return path, nil
}
