// Package split divides per-match records into reproducible train and test
// sets.
package split

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/config"
	"github.com/zilean-lol/zilean/internal/features"
	"github.com/zilean-lol/zilean/internal/snapshots"
)

// ErrTooFewRecords means a split would leave one side empty.
var ErrTooFewRecords = eris.New("split: too few records")

// Options sets the test fraction and the shuffle seed.
type Options struct {
	TestSize float64
	Seed     uint64
}

// DefaultOptions puts a third of the matches in the test set.
func DefaultOptions() Options {
	return Options{TestSize: 0.33, Seed: 42}
}

// FromConfig copies the split section.
func FromConfig(c config.SplitConfig) Options {
	return Options{TestSize: c.TestSize, Seed: c.Seed}
}

// Result holds both sides of a split. Index holds each record's position in
// the input, so written files keep the input row labels.
type Result struct {
	Train      []features.Record
	TrainIndex []int
	Test       []features.Record
	TestIndex  []int
}

// Split shuffles records with a generator seeded from opts.Seed and puts the
// first ceil(TestSize*n) of them in the test set. The same seed and input
// always give the same split.
func Split(records []features.Record, opts Options) (*Result, error) {
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, eris.Errorf("split: test size %v must be in (0, 1)", opts.TestSize)
	}

	n := len(records)
	nTest := int(math.Ceil(opts.TestSize * float64(n)))
	if nTest == 0 || nTest >= n {
		return nil, eris.Wrapf(ErrTooFewRecords, "%d records with test size %v", n, opts.TestSize)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	pick := func(idx []int) []features.Record {
		return lo.Map(idx, func(i int, _ int) features.Record { return records[i].Clone() })
	}
	testIdx, trainIdx := perm[:nTest], perm[nTest:]
	return &Result{
		Train:      pick(trainIdx),
		TrainIndex: append([]int(nil), trainIdx...),
		Test:       pick(testIdx),
		TestIndex:  append([]int(nil), testIdx...),
	}, nil
}

// Collection splits the per-match records of c.
func Collection(c *snapshots.Collection, opts Options) (*Result, error) {
	return Split(c.Summary(false), opts)
}

// FileNames returns train_<frames>.csv and test_<frames>.csv.
func FileNames(frames []int) (train, test string) {
	tag := snapshots.FramesTag(frames)
	return "train_" + tag + ".csv", "test_" + tag + ".csv"
}

// ToDisk writes both sets into dir in the snapshot CSV format and returns
// their paths. Existing files are kept unless overwrite is set.
func (r *Result) ToDisk(dir string, frames []int, overwrite bool) (string, string, error) {
	trainName, testName := FileNames(frames)
	trainPath, testPath := filepath.Join(dir, trainName), filepath.Join(dir, testName)

	if !overwrite {
		for _, p := range []string{trainPath, testPath} {
			if _, err := os.Stat(p); err == nil {
				return "", "", eris.Wrapf(snapshots.ErrUsage, "split: %s already exists (set overwrite to replace it)", p)
			}
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", eris.Wrapf(err, "split: create %s", dir)
	}

	q := features.FrameQualified(frames)
	for _, side := range []struct {
		path    string
		records []features.Record
		index   []int
	}{
		{trainPath, r.Train, r.TrainIndex},
		{testPath, r.Test, r.TestIndex},
	} {
		if err := writeSide(side.path, side.records, side.index, q); err != nil {
			return "", "", err
		}
		zap.L().Info("split: wrote set", zap.String("path", side.path), zap.Int("rows", len(side.records)))
	}
	return trainPath, testPath, nil
}

func writeSide(path string, records []features.Record, index []int, frameQualified bool) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "split: create %s", path)
	}
	defer f.Close()

	header := features.Record{}.Header(frameQualified)
	if len(records) > 0 {
		header = records[0].Header(frameQualified)
	}
	if err := snapshots.WriteIndexedTable(f, header, index, snapshots.Rows(records)); err != nil {
		return eris.Wrapf(err, "split: write %s", path)
	}
	return eris.Wrapf(f.Close(), "split: close %s", path)
}
