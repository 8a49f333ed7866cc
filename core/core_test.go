package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/iocache"
	"github.com/huangsam/sensorlabel/schema"
)

// TestHandlersCoverEveryOperation checks that every operation kind can be dispatched.
func TestHandlersCoverEveryOperation(t *testing.T) {
	for _, kind := range schema.AllOperationKinds {
		_, ok := Handlers[kind]
		assert.True(t, ok, "missing handler for %s", kind)
	}
	p, _, _ := newTestPipeline(testConfig(), nil)
	assert.ErrorContains(t, Run(context.Background(), "bogus", p), `unknown operation "bogus"`)
}

func TestExecuteHelp(t *testing.T) {
	p, _, buf := newTestPipeline(testConfig(), nil)
	require.NoError(t, Run(context.Background(), schema.HelpOp, p))
	assert.Contains(t, buf.String(), "Sensor labelling operations")
	assert.Contains(t, buf.String(), schema.OperationDescriptions[schema.LabelOp])
}

// TestExecuteLabel labels a file from flags and checks the data file, summary and run tracking.
func TestExecuteLabel(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 10)
	cfg := testConfig(path)
	cfg.Batch = true
	cfg.Subject = "s1"
	cfg.Points = []string{"10:00:00", "10:00:04", "10:00:06", "10:00:09"}
	cfg.Labels = []string{"Walk", schema.OtherLabel, "Sit"}

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", schema.LabelOp, path, mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
	runs.On("RecordSlices", int64(7), mock.MatchedBy(func(s []schema.SliceRecord) bool { return len(s) == 2 })).Return(nil)
	runs.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), 10, 8).Return(nil)

	p, prompter, buf := newTestPipeline(cfg, iocache.NewCacheStoreManager(nil, runs))
	require.NoError(t, ExecuteLabel(context.Background(), p))
	assert.Empty(t, prompter.Asked)

	lines := readLines(t, contract.DerivedPath(path, "labelled", ""))
	require.Len(t, lines, 9)
	assert.Equal(t, "Time,x,y,Label", lines[0])
	assert.Equal(t, "2024/03/24 10:00:00,0,0,Walk", lines[1])
	assert.Equal(t, "2024/03/24 10:00:04,6,12,Sit", lines[5], "Sit continues one second after the last Walk row")
	assert.Equal(t, "2024/03/24 10:00:07,9,18,Sit", lines[8])

	summary := readLines(t, contract.DerivedPath(path, "summary", ""))
	require.Len(t, summary, 3)
	assert.Equal(t, "Subject,Location,Label,Start,Duration,mean_x,mean_y,std_x,std_y", summary[0])
	assert.True(t, strings.HasPrefix(summary[1], "s1,,Walk,2024-03-24 10:00:00,0:00:04,1.50,3.00"))

	assert.Contains(t, buf.String(), "Summarized 2 slices (8 rows, 0:00:07)")
	runs.AssertExpectations(t)
}

// TestExecuteLabelInteractive answers every question, including one invalid boundary list.
func TestExecuteLabelInteractive(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 10)
	cfg := testConfig(path)
	cfg.DataFile = filepath.Join(t.TempDir(), "out.csv")
	cfg.SummaryFile = filepath.Join(t.TempDir(), "summary.csv")

	p, prompter, _ := newTestPipeline(cfg, nil,
		"10:00:04,10:00:00",
		"10:00:00,10:00:04,10:00:09",
		"2, sit",
		"",
	)
	require.NoError(t, ExecuteLabel(context.Background(), p))
	assert.Len(t, prompter.Asked, 4)
	assert.Contains(t, prompter.Asked[0], "data runs 2024/03/24 10:00:00 to 2024/03/24 10:00:09")
	assert.Zero(t, prompter.Remaining())

	lines := readLines(t, cfg.DataFile)
	require.Len(t, lines, 11)
	assert.Equal(t, "2024/03/24 10:00:03,3,6,Walk on level", lines[4])
	assert.Equal(t, "2024/03/24 10:00:09,9,18,Sit", lines[10])
}

func TestExecuteLabelRMSAndParquet(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 4)
	cfg := testConfig(path)
	cfg.Batch = true
	cfg.Points = []string{"10:00:00", "10:00:03"}
	cfg.Labels = []string{"Walk"}
	cfg.RMS = true
	cfg.ParquetFile = filepath.Join(t.TempDir(), "walk.parquet")

	p, _, _ := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteLabel(context.Background(), p))

	lines := readLines(t, contract.DerivedPath(path, "labelled", ""))
	assert.Equal(t, "Time,x,y,RMS,Label", lines[0])
	assert.Equal(t, "2024/03/24 10:00:01,1,2,2.24,Walk", lines[2])
	assert.FileExists(t, cfg.ParquetFile)
}

func TestExecuteLabelErrors(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 10)

	cfg := testConfig(path)
	cfg.Batch = true
	cfg.Points = []string{"10:00:00", "10:00:04"}
	cfg.Labels = []string{"Walk", "Sit"}
	p, _, _ := newTestPipeline(cfg, nil)
	assert.True(t, contract.IsRetryable(ExecuteLabel(context.Background(), p)))

	cfg.Labels = []string{schema.OtherLabel}
	assert.ErrorContains(t, ExecuteLabel(context.Background(), p), "no rows fall inside")

	cfg.Labels = nil
	assert.ErrorIs(t, ExecuteLabel(context.Background(), p), contract.ErrInputExhausted)

	cfg.InputFiles = nil
	assert.ErrorContains(t, ExecuteLabel(context.Background(), p), "label needs 1 input file(s)")
}

// TestExecuteMerge merges a 1 Hz file onto a 2 Hz file given in the opposite order.
func TestExecuteMerge(t *testing.T) {
	hr := writeSensorFile(t, "hr.csv", unambiguousStart, "Time,hr", 120, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, fmt.Sprint(60 + i%5)
	})
	acc := writeSensorFile(t, "acc.csv", unambiguousStart, "Time,x,y", 240, func(i int) (time.Duration, string) {
		return time.Duration(i/2) * time.Second, fmt.Sprintf("%d,%d", i, -i)
	})
	cfg := testConfig(hr, acc)
	cfg.Synchronized = schema.YesAnswer

	p, _, buf := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteMerge(context.Background(), p))

	out := buf.String()
	assert.Contains(t, out, "Mode:      synchronized")
	assert.Contains(t, out, "240 over 2 windows (0 carried forward)")
	assert.Contains(t, out, "used as primary")

	lines := readLines(t, contract.DerivedPath(acc, "merged", ""))
	require.Len(t, lines, 241)
	assert.Equal(t, "Time,x,y,hr", lines[0])
	assert.Equal(t, "2024/03/24 10:00:00,0,0,60", lines[1])
	assert.Equal(t, "2024/03/24 10:00:00,1,-1,60", lines[2])
	assert.Equal(t, "2024/03/24 10:00:01,2,-2,61", lines[3])
}

// TestExecuteMergeColumnSelection keeps the chosen columns of each file, whichever becomes primary.
func TestExecuteMergeColumnSelection(t *testing.T) {
	hr := writeSensorFile(t, "hr.csv", unambiguousStart, "Time,hr,spo2", 60, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, fmt.Sprintf("%d,%d", 60+i%5, 97)
	})
	acc := writeSensorFile(t, "acc.csv", unambiguousStart, "Time,x,y", 120, func(i int) (time.Duration, string) {
		return time.Duration(i/2) * time.Second, fmt.Sprintf("%d,%d", i, -i)
	})
	cfg := testConfig(hr, acc)
	cfg.Synchronized = schema.YesAnswer
	cfg.Columns = "0,1"

	p, _, _ := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteMerge(context.Background(), p))
	lines := readLines(t, contract.DerivedPath(acc, "merged", ""))
	assert.Equal(t, "Time,x,hr", lines[0], "the second file reuses --columns")
	assert.Equal(t, "2024/03/24 10:00:00,1,60", lines[2])

	cfg.Columns = "1-2"
	cfg.SecondaryColumns = "2"
	require.NoError(t, ExecuteMerge(context.Background(), p))
	lines = readLines(t, contract.DerivedPath(acc, "merged", ""))
	assert.Equal(t, "Time,y,hr,spo2", lines[0])
	assert.Equal(t, "2024/03/24 10:00:00,-1,60,97", lines[2])

	cfg.SecondaryColumns = "5"
	assert.True(t, contract.IsRetryable(ExecuteMerge(context.Background(), p)))
}

func TestExecuteMergeBatchDefaultsToSynchronized(t *testing.T) {
	a := perSecondFile(t, "a.csv", 90)
	b := writeSensorFile(t, "b.csv", unambiguousStart, "Time,z", 90, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, fmt.Sprint(i)
	})
	cfg := testConfig(a, b)
	cfg.Batch = true
	cfg.Output = schema.JSONOut

	p, _, buf := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteMerge(context.Background(), p))
	assert.Contains(t, buf.String(), `"synchronized": true`)
}

func TestExecuteMergeNeedsTwoFiles(t *testing.T) {
	p, _, _ := newTestPipeline(testConfig(perSecondFile(t, "a.csv", 5)), nil)
	assert.ErrorContains(t, ExecuteMerge(context.Background(), p), "merge needs 2 input file(s), got 1")
}

func TestExecuteCombine(t *testing.T) {
	a := perSecondFile(t, "a.csv", 5)
	later := time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC)
	b := writeSensorFile(t, "b.csv", later, "Time,x,y", 3, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, fmt.Sprintf("%d,%d", 100+i, 0)
	})
	cfg := testConfig(a, b)

	p, _, _ := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteCombine(context.Background(), p))

	lines := readLines(t, contract.DerivedPath(a, "combined", ""))
	require.Len(t, lines, 9)
	assert.Equal(t, "2024/03/24 10:00:04,4,8", lines[5])
	assert.Equal(t, "2024/03/24 10:00:05,100,0", lines[6])
	assert.Equal(t, "2024/03/24 10:00:07,102,0", lines[8])

	cfg.InputFiles = []string{a}
	assert.ErrorContains(t, ExecuteCombine(context.Background(), p), "at least 2")
}

func TestExecutePhysio(t *testing.T) {
	path := writeSensorFile(t, "hr.csv", unambiguousStart, "Time,hr", 9, func(i int) (time.Duration, string) {
		v := 60
		if i >= 6 {
			v = 120
		}
		return time.Duration(i) * time.Second, fmt.Sprint(v)
	})
	cfg := testConfig(path)
	cfg.BlockMode = schema.RecordBlocks
	cfg.BlockSize = 3
	cfg.DataFile = filepath.Join(t.TempDir(), "clean.csv")

	p, _, buf := newTestPipeline(cfg, nil)
	require.NoError(t, ExecutePhysio(context.Background(), p))

	lines := readLines(t, cfg.DataFile)
	require.Len(t, lines, 10)
	assert.Equal(t, "2024/03/24 10:00:02,60", lines[3])
	assert.Equal(t, "2024/03/24 10:00:03,120", lines[4], "the middle block takes the later values")
	assert.Contains(t, buf.String(), "Replaced 1 blocks")
}

// TestExecutePhysioDefaultsToLastColumn leaves earlier numeric columns alone.
func TestExecutePhysioDefaultsToLastColumn(t *testing.T) {
	path := writeSensorFile(t, "eda.csv", unambiguousStart, "Time,count,eda", 9, func(i int) (time.Duration, string) {
		v := 60
		if i >= 6 {
			v = 120
		}
		return time.Duration(i) * time.Second, fmt.Sprintf("%d,%d", i+1, v)
	})
	cfg := testConfig(path)
	cfg.BlockMode = schema.RecordBlocks
	cfg.BlockSize = 3
	cfg.DataFile = filepath.Join(t.TempDir(), "clean.csv")

	p, _, _ := newTestPipeline(cfg, nil)
	require.NoError(t, ExecutePhysio(context.Background(), p))

	lines := readLines(t, cfg.DataFile)
	require.Len(t, lines, 10)
	assert.Equal(t, "2024/03/24 10:00:03,4,120", lines[4])
	assert.Equal(t, "2024/03/24 10:00:06,7,120", lines[7])
}

func TestExecutePhysioNoChange(t *testing.T) {
	path := writeSensorFile(t, "hr.csv", unambiguousStart, "Time,hr", 9, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, "70"
	})
	cfg := testConfig(path)
	cfg.BlockMode = schema.RecordBlocks
	cfg.BlockSize = 3

	p, _, buf := newTestPipeline(cfg, nil)
	require.NoError(t, ExecutePhysio(context.Background(), p))
	assert.Empty(t, buf.String())
	assert.NoFileExists(t, contract.DerivedPath(path, "physio", ""))

	cfg.TargetColumn = 5
	assert.True(t, contract.IsRetryable(ExecutePhysio(context.Background(), p)))
}

func TestExecuteHistogram(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 20)
	cfg := testConfig(path)
	cfg.Output = schema.CSVOut

	p, _, buf := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteHistogram(context.Background(), p))
	out := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, out, 11, "a header and one line per bin")

	cfg.Output = schema.TextOut
	buf.Reset()
	require.NoError(t, ExecuteHistogram(context.Background(), p))
	assert.Contains(t, buf.String(), "40 values in 10 bins from "+path)

	cfg.Bins = 0
	assert.True(t, contract.IsRetryable(ExecuteHistogram(context.Background(), p)))
}

// TestDatasetThenPredict cuts a labelled file into windows and maps window predictions back.
func TestDatasetThenPredict(t *testing.T) {
	path := writeSensorFile(t, "labelled.csv", unambiguousStart, "Time,x,Activity", 40, func(i int) (time.Duration, string) {
		label := "Walk"
		if i >= 20 {
			label = "Sit"
		}
		return time.Duration(i) * time.Second, fmt.Sprintf("%d,%s", i, label)
	})
	dir := t.TempDir()
	cfg := testConfig(path)
	cfg.WindowSize = 10
	cfg.Overlap = 50
	cfg.ParquetFile = filepath.Join(dir, "dataset.parquet")
	cfg.ActivitiesFile = filepath.Join(dir, "activities.csv")

	p, _, _ := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteDataset(context.Background(), p))
	assert.FileExists(t, cfg.ParquetFile)

	activities, err := readActivitiesFile(cfg.ActivitiesFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk", "Sit"}, activities.Categories)
	assert.Equal(t, []string{"x"}, activities.Row)
	assert.Equal(t, 10, activities.BlockSize)

	predictions := filepath.Join(dir, "predictions.csv")
	require.NoError(t, os.WriteFile(predictions, []byte("prediction\n0\n0\n0\n1\n1\n1\n"), 0o644))

	cfg.PredictionsFile = predictions
	cfg.NoSmooth = true
	p2, _, out := newTestPipeline(cfg, nil)
	require.NoError(t, ExecutePredict(context.Background(), p2))
	assert.Contains(t, out.String(), "Found 2 label runs")

	lines := readLines(t, contract.DerivedPath(path, string(schema.MachineModel), ""))
	require.Len(t, lines, 31)
	assert.Equal(t, "Time,x,Activity,Label", lines[0])
	assert.Equal(t, "2024/03/24 10:00:14,14,Walk,Walk", lines[15])
	assert.Equal(t, "2024/03/24 10:00:15,15,Walk,Sit", lines[16])
}

func TestExecutePredictKMeansAsksPerCluster(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 6)
	dir := t.TempDir()
	predictions := filepath.Join(dir, "clusters.csv")
	require.NoError(t, os.WriteFile(predictions, []byte("7\n7\n7\n3\n3\n3\n"), 0o644))
	activities := filepath.Join(dir, "activities.csv")
	require.NoError(t, os.WriteFile(activities, []byte("dForm,%Y/%m/%d\nBlockSize,1\nOverlap,0\nCategories,\"['Walk', 'Sit']\"\n"), 0o644))

	cfg := testConfig(path)
	cfg.Model = schema.KMeansModel
	cfg.PredictionsFile = predictions
	cfg.ActivitiesFile = activities
	cfg.NoSmooth = true
	cfg.DataFile = filepath.Join(dir, "out.csv")

	p, prompter, _ := newTestPipeline(cfg, nil, "5", "1", "Walk")
	require.NoError(t, ExecutePredict(context.Background(), p))
	assert.Len(t, prompter.Asked, 3, "an out of range index is asked again")
	assert.Contains(t, prompter.Asked[0], "0) Walk")

	lines := readLines(t, cfg.DataFile)
	assert.Equal(t, "2024/03/24 10:00:00,0,0,Sit", lines[1])
	assert.Equal(t, "2024/03/24 10:00:05,5,10,Walk", lines[6])
}

func TestExecutePredictNeedsPredictions(t *testing.T) {
	p, _, _ := newTestPipeline(testConfig(perSecondFile(t, "walk.csv", 5)), nil)
	assert.ErrorContains(t, ExecutePredict(context.Background(), p), "--predictions")
}

func TestExecuteInspect(t *testing.T) {
	path := perSecondFile(t, "walk.csv", 10)
	cfg := testConfig(path)
	cfg.Output = schema.JSONOut

	p, prompter, buf := newTestPipeline(cfg, nil)
	require.NoError(t, ExecuteInspect(context.Background(), p))
	assert.Empty(t, prompter.Asked)
	assert.Contains(t, buf.String(), `"rows": 10`)

	profile, err := ProfileFile(WithQuiet(context.Background()), p, path)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Frequency)
	assert.Equal(t, []string{"x", "y"}, profile.NumericColumns)
	assert.False(t, profile.MonthDayAmbiguous)

	cfg.InputFiles = []string{filepath.Join(t.TempDir(), "missing.csv")}
	assert.Error(t, ExecuteInspect(context.Background(), p))
}
