// Package cmd defines the command-line interface for sensorlabel.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(guideCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(combineCmd)
	rootCmd.AddCommand(physioCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(histogramCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(vocabCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Add the vocab subcommands to the parent vocab command
	vocabCmd.AddCommand(vocabListCmd)
	vocabCmd.AddCommand(vocabAddCmd)
	vocabCmd.AddCommand(vocabRemoveCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Report format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write the report to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().StringP("data-file", "o", "", "Path of the data file written by the operation (default: derived from the input name)")
	rootCmd.PersistentFlags().String("parquet-file", "", "Also write the data as Parquet to this path")
	rootCmd.PersistentFlags().StringP("columns", "c", "", "Columns to keep, e.g. '1,3-5' (0 is the timestamp and is always kept)")
	rootCmd.PersistentFlags().String("swap-month-day", string(schema.AskAnswer), "Swap month and day when ambiguous: ask or yes or no")
	rootCmd.PersistentFlags().Int("per-second", 0, "Randomly keep this many rows per second, at least 5 (0 keeps all)")
	rootCmd.PersistentFlags().Bool("scale", false, "Scale numeric columns by median and interquartile range")
	rootCmd.PersistentFlags().StringP("subject", "s", "", "Subject identifier recorded with each slice")
	rootCmd.PersistentFlags().String("location", "", "Sensor location recorded with each slice")
	rootCmd.PersistentFlags().Int64("seed", 0, "Seed for sampling decisions (0 = random)")
	rootCmd.PersistentFlags().Bool("batch", false, "Never prompt; take defaults or fail when an answer is missing")
	rootCmd.PersistentFlags().Int("max-attempts", contract.DefaultMaxAttempts, "How often an invalid answer is asked again")
	rootCmd.PersistentFlags().String("activities", "", "Activities file describing how a dataset was cut")
	rootCmd.PersistentFlags().String("vocab-file", "", "Path to the label vocabulary (default: ~/.sensorlabel_vocab.yaml)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Load profile cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("run-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of labelCmd to Viper
	labelCmd.Flags().StringP("points", "p", "", "Comma-separated boundary times; asked for when empty")
	labelCmd.Flags().StringP("labels", "l", "", "Comma-separated labels, one per interval; asked for when empty")
	labelCmd.Flags().Bool("alternate-skip", false, "Put Other between the chosen labels")
	labelCmd.Flags().Bool("other-first", false, "With --alternate-skip, start with an Other interval")
	labelCmd.Flags().Bool("rms", false, "Add an RMS column over the numeric columns")
	labelCmd.Flags().String("rms-columns", "", "Columns combined into the RMS column, e.g. '1-3' (implies --rms)")
	labelCmd.Flags().String("summary-file", "", "Path of the slice summary table (default: derived from the input name)")
	if err := viper.BindPFlags(labelCmd.Flags()); err != nil {
		contract.LogFatal("Error binding label flags", err)
	}

	// Bind all flags of mergeCmd to Viper
	mergeCmd.Flags().String("synchronized", string(schema.AskAnswer), "Whether both files share one clock: ask or yes or no")
	mergeCmd.Flags().String("secondary-columns", "", "Columns to keep from the second file (default: same as --columns)")
	mergeCmd.Flags().String("merge-from", "", "Start of the merged range on the primary clock")
	mergeCmd.Flags().String("merge-to", "", "End of the merged range on the primary clock")
	mergeCmd.Flags().String("secondary-start", "", "Where the secondary file starts when clocks differ")
	if err := viper.BindPFlags(mergeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding merge flags", err)
	}

	// Bind all flags of physioCmd to Viper
	physioCmd.Flags().String("block-mode", string(schema.MinuteBlocks), "Block boundaries: minute or seconds or records")
	physioCmd.Flags().Int("block-size", 0, "Seconds or records per block (ignored for minute blocks)")
	physioCmd.Flags().Float64("percent", contract.DefaultPercent, "Change threshold in percent between a block and the one two before it")
	physioCmd.Flags().Int("target-column", 0, "Column holding the signal (0 = last numeric column)")
	if err := viper.BindPFlags(physioCmd.Flags()); err != nil {
		contract.LogFatal("Error binding physio flags", err)
	}

	// Bind all flags of predictCmd to Viper
	predictCmd.Flags().String("predictions", "", "File with one model prediction per line")
	predictCmd.Flags().String("model", string(schema.MachineModel), "Model that produced the predictions: kmeans or machine or neural")
	predictCmd.Flags().String("label-map", "", "Explicit code:label pairs, e.g. '0:Walk,1:Sit'")
	predictCmd.Flags().Bool("no-smooth", false, "Keep raw predictions instead of majority smoothing")
	if err := viper.BindPFlags(predictCmd.Flags()); err != nil {
		contract.LogFatal("Error binding predict flags", err)
	}

	// Bind all flags of datasetCmd to Viper
	datasetCmd.Flags().Int("label-column", 0, "Column holding the label (0 = last column)")
	datasetCmd.Flags().Int("window-size", contract.DefaultWindowSize, "Rows per window")
	datasetCmd.Flags().Int("overlap", contract.DefaultOverlap, "Overlap between consecutive windows in percent")
	if err := viper.BindPFlags(datasetCmd.Flags()); err != nil {
		contract.LogFatal("Error binding dataset flags", err)
	}

	// Bind all flags of histogramCmd to Viper
	histogramCmd.Flags().Int("bins", contract.DefaultBins, "Number of equal-width bins")
	if err := viper.BindPFlags(histogramCmd.Flags()); err != nil {
		contract.LogFatal("Error binding histogram flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
