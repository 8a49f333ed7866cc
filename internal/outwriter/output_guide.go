package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// guideEntry is one line of the operations guide.
type guideEntry struct {
	Operation   string `json:"operation"`
	Description string `json:"description"`
}

func buildGuide() []guideEntry {
	entries := make([]guideEntry, 0, len(schema.AllOperationKinds))
	for _, op := range schema.AllOperationKinds {
		entries = append(entries, guideEntry{Operation: string(op), Description: schema.OperationDescriptions[op]})
	}
	return entries
}

// printGuide outputs the operations guide, dispatching based on the output format configured.
func (ow *OutWriter) printGuide(cfg *contract.Config) error {
	entries := buildGuide()
	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, entries)
		}, "Wrote JSON guide")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"operation", "description"}, func(cw *csv.Writer) error {
				for _, e := range entries {
					if err := cw.Write([]string{e.Operation, e.Description}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV guide")
	case schema.ParquetOut:
		return errUnsupported("operations guide", cfg.Output)
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if _, err := fmt.Fprintln(w, contract.SuccessColor.Sprint("Sensor labelling operations")); err != nil {
				return err
			}
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Operation", "Description"})
			var data [][]string
			for _, e := range entries {
				data = append(data, []string{e.Operation, e.Description})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote guide")
	}
}
