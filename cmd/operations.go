package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/sensorlabel/core"
	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// runOperation builds a pipeline from the validated config and dispatches the operation.
func runOperation(kind schema.OperationKind, failure string) {
	if err := core.Run(rootCtx, kind, core.NewPipeline(cfg, cacheManager)); err != nil {
		contract.LogFatal(failure, err)
	}
}

// guideCmd lists the available operations.
var guideCmd = &cobra.Command{
	Use:     "guide",
	Aliases: []string{"operations"},
	Short:   "List the labelling operations and what they do.",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.HelpOp, "Cannot print the guide")
	},
}

// labelCmd labels time ranges of one sensor file.
var labelCmd = &cobra.Command{
	Use:   "label <file>",
	Short: "Label time slices of a sensor file and summarize each slice.",
	Long: `Split a recording at boundary times and attach a label to each interval.

Rows in Other intervals are dropped and the rows after them are moved up so the
labelled timeline has no gaps. A summary with mean and standard deviation per slice
is written next to the labelled data and printed.

Boundaries and labels are asked for when not given as flags. Labels can be picked
from the vocabulary by number or by name.

Examples:
  # Label interactively
  sensorlabel label wrist.csv

  # Label from flags with an Other gap between walking and sitting
  sensorlabel label wrist.csv --points "10:00,10:05,10:07,10:15" --labels "Walk,Other,Sit" --batch

  # Alternate chosen labels with Other and add an RMS column
  sensorlabel label wrist.csv -p "10:00,10:05,10:07,10:15" -l "Walk,Sit" --alternate-skip --rms`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.LabelOp, "Cannot label file")
	},
}

// mergeCmd joins two recordings.
var mergeCmd = &cobra.Command{
	Use:   "merge <file> <file>",
	Short: "Merge two recordings minute by minute onto the faster one.",
	Long: `Attach the columns of one recording to every row of another.

The file with more rows per minute becomes the primary. Within each minute, each
secondary row is repeated over the primary rows it covers. Minutes without secondary
rows reuse the last secondary row seen.

Examples:
  # Merge heart rate onto accelerometer data recorded on one clock
  sensorlabel merge acc.csv hr.csv --synchronized yes

  # Keep x from the first file and heart rate from the second
  sensorlabel merge acc.csv hr.csv --columns 1 --secondary-columns 1

  # Merge recordings from different clocks, aligning the secondary start
  sensorlabel merge acc.csv hr.csv --synchronized no --secondary-start "2024-03-24 09:58:00"`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.MergeOp, "Cannot merge files")
	},
}

// combineCmd appends recordings end to end.
var combineCmd = &cobra.Command{
	Use:   "combine <file> <file>...",
	Short: "Append recordings end to end on one continuous timeline.",
	Long: `Append recordings with identical columns. Each file is shifted so that it starts
one time unit after the previous file ends.

Examples:
  sensorlabel combine session1.csv session2.csv session3.csv -o all.csv`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.CombineOp, "Cannot combine files")
	},
}

// physioCmd replaces spikes in a physiological signal.
var physioCmd = &cobra.Command{
	Use:   "physio <file>",
	Short: "Replace sudden jumps in a physiological signal block by block.",
	Long: `Compare the mean of each block with the block two before it. When the change
exceeds the threshold, the block in between takes the values of the later block.

Examples:
  # Minute blocks with the default 50% threshold
  sensorlabel physio eda.csv

  # 30 second blocks on the third column
  sensorlabel physio eda.csv --block-mode seconds --block-size 30 --target-column 3 --percent 25`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.PhysioOp, "Cannot preprocess file")
	},
}

// predictCmd attaches model predictions to rows.
var predictCmd = &cobra.Command{
	Use:   "predict <file>",
	Short: "Attach model predictions to a recording and list the label runs.",
	Long: `Map model output codes to labels and write them next to the recording.

With --activities, one prediction per window is spread back over the rows of that
window. Predictions are smoothed by majority over fixed windows unless --no-smooth
is given. K-means cluster ids are asked for one by one.

Examples:
  sensorlabel predict wrist.csv --predictions preds.csv --activities wrist_activities.csv
  sensorlabel predict wrist.csv --predictions clusters.csv --model kmeans --label-map "0:Walk,1:Sit"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.PredictOp, "Cannot attach predictions")
	},
}

// datasetCmd cuts a labelled file into training windows.
var datasetCmd = &cobra.Command{
	Use:   "dataset <file>",
	Short: "Cut a labelled recording into overlapping windows for model training.",
	Long: `Cut a labelled recording into windows and label each window by majority.
The windows are written as Parquet and the cut parameters to an activities file
that predict reads later.

Examples:
  sensorlabel dataset wrist_labelled.csv --window-size 120 --overlap 50`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.DatasetOp, "Cannot build dataset")
	},
}

// histogramCmd buckets numeric columns.
var histogramCmd = &cobra.Command{
	Use:   "histogram <file>",
	Short: "Count the values of numeric columns in equal-width bins.",
	Long: `Examples:
  sensorlabel histogram wrist.csv --columns 1-3 --bins 20
  sensorlabel histogram wrist.csv --output csv --output-file hist.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runOperation(schema.HistogramOp, "Cannot build histogram")
	},
}

// inspectCmd describes files without changing them.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Show what is inferred about sensor files: format, frequency and columns.",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteInspect(rootCtx, core.NewPipeline(cfg, cacheManager)); err != nil {
			contract.LogFatal("Cannot inspect files", err)
		}
	},
}
