package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/vocab"
)

// vocabPath resolves the vocabulary file from config or the default location.
func vocabPath() string {
	if p := strings.TrimSpace(viper.GetString("vocab-file")); p != "" {
		return p
	}
	return contract.GetVocabFilePath()
}

// vocabSetup only needs the config file for the vocabulary path.
func vocabSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	cfg.VocabFile = vocabPath()
	return nil
}

// loadVocab loads the vocabulary or exits.
func loadVocab() *vocab.Vocabulary {
	v, err := vocab.Load(cfg.VocabFile)
	if err != nil {
		contract.LogFatal("Failed to load vocabulary", err)
	}
	return v
}

// saveVocab writes the vocabulary or exits.
func saveVocab(v *vocab.Vocabulary) {
	if err := vocab.Save(cfg.VocabFile, v); err != nil {
		contract.LogFatal("Failed to save vocabulary", err)
	}
}

// vocabCmd manages the label and location vocabulary.
var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Manage the activity labels and sensor locations offered while labelling",
	Long: `Manage the vocabulary of activity labels and sensor locations.

The vocabulary is stored as YAML (default: ~/.sensorlabel_vocab.yaml). Labels and
locations are offered as numbered menus, so answers can be given by number or name.
The label Other is always present and marks data that is dropped.

Examples:
  sensorlabel vocab list
  sensorlabel vocab add "Cycle" "Swim"
  sensorlabel vocab add --as-location "Chest (CH)"
  sensorlabel vocab remove 3`,
}

// vocabListCmd prints the vocabulary.
var vocabListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Print the labels and locations",
	PreRunE: vocabSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		v := loadVocab()
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, color.New(color.Bold).Sprint("Labels"))
		_, _ = fmt.Fprint(out, vocab.Menu(v.Labels))
		_, _ = fmt.Fprintln(out, color.New(color.Bold).Sprint("Locations"))
		_, _ = fmt.Fprint(out, vocab.Menu(v.Locations))
		_, _ = fmt.Fprintf(out, "\nVocabulary file: %s\n", cfg.VocabFile)
	},
}

// vocabAddCmd adds labels or locations.
var vocabAddCmd = &cobra.Command{
	Use:     "add <name>...",
	Short:   "Add labels, or locations with --as-location",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: vocabSetup,
	Run: func(cmd *cobra.Command, args []string) {
		v := loadVocab()
		var added int
		kind := "labels"
		if asLocation, _ := cmd.Flags().GetBool("as-location"); asLocation {
			added = v.AddLocations(args...)
			kind = "locations"
		} else {
			added = v.AddLabels(args...)
		}
		saveVocab(v)
		cmd.Printf("Added %d %s.\n", added, kind)
	},
}

// vocabRemoveCmd removes labels by name or number.
var vocabRemoveCmd = &cobra.Command{
	Use:     "remove <label|number>...",
	Short:   "Remove labels by name or menu number",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: vocabSetup,
	Run: func(cmd *cobra.Command, args []string) {
		v := loadVocab()
		removed, err := v.RemoveLabels(args...)
		if err != nil {
			contract.LogFatal("Failed to remove labels", err)
		}
		saveVocab(v)
		cmd.Printf("Removed %s.\n", strings.Join(removed, ", "))
	},
}

func init() {
	vocabAddCmd.Flags().Bool("as-location", false, "Add the names as sensor locations instead of labels")
}
