package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// WriteTable writes a header and rows to path, as XLSX or CSV depending on the extension.
func WriteTable(path string, header []string, rows [][]string) error {
	if contract.KindOf(path) == schema.XLSXFile {
		return writeXLSX(path, header, rows)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, header, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes a header and rows as CSV.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func writeXLSX(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	all := append([][]string{header}, rows...)
	for i, rec := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(rec))
		for j, v := range rec {
			if n, err := strconv.ParseFloat(v, 64); err == nil && i > 0 {
				values[j] = n
			} else {
				values[j] = v
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// SeriesRecords renders a series back into cells.
func SeriesRecords(s *schema.Series) [][]string {
	rows := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rec := make([]string, 0, len(r.Fields)+1)
		rec = append(rec, r.Time.Format(s.Layout))
		rec = append(rec, r.Fields...)
		rows[i] = rec
	}
	return rows
}

// OutputRecords renders labelled or merged rows into cells. RMS and label columns
// are included only when present on the rows.
func OutputRecords(layout string, rows []schema.OutputRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, 0, len(r.Fields)+3)
		rec = append(rec, r.Time.Format(layout))
		rec = append(rec, r.Fields...)
		if r.RMS != nil {
			rec = append(rec, strconv.FormatFloat(*r.RMS, 'f', 2, 64))
		}
		if r.Label != "" {
			rec = append(rec, r.Label)
		}
		out[i] = rec
	}
	return out
}

// WriteSeries writes a series to path in the format implied by the extension.
func WriteSeries(path string, s *schema.Series) error {
	return WriteTable(path, s.Header, SeriesRecords(s))
}
