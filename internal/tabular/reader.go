package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// DefaultSampleSize is how many random rows are checked before a file is accepted.
const DefaultSampleSize = 5

// LoadOptions controls validation while loading a table.
type LoadOptions struct {
	MinColumns int        // Including the time column; defaults to 2
	SampleSize int        // Rows checked at random; defaults to DefaultSampleSize
	Rand       *rand.Rand // Source for sampling; defaults to a time-seeded source
}

// Load reads a CSV or XLSX file into a validated series.
func Load(path string, opts LoadOptions) (*schema.Series, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	return FromRecords(path, contract.KindOf(path), records, opts)
}

// ReadRecords reads the raw cells of a CSV file or the first sheet of an XLSX workbook.
func ReadRecords(path string) ([][]string, error) {
	if contract.KindOf(path) == schema.XLSXFile {
		return readXLSX(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return readCSV(file)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, contract.Malformed(path, "workbook has no sheets")
	}
	return f.GetRows(sheet)
}

// FromRecords validates raw cells and turns them into a series.
// The first record is taken as a header unless its first cell is already a timestamp.
func FromRecords(name string, kind schema.FileKind, records [][]string, opts LoadOptions) (*schema.Series, error) {
	if opts.MinColumns <= 0 {
		opts.MinColumns = 2
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(records) == 0 {
		return nil, contract.Malformed(name, "file is empty")
	}

	header, data := splitHeader(records)
	if len(header) < opts.MinColumns {
		return nil, contract.Malformed(name, "needs at least %d columns, found %d", opts.MinColumns, len(header))
	}

	data = dropIncomplete(data, len(header))
	if len(data) == 0 {
		return nil, contract.Malformed(name, "no complete data rows")
	}

	format, err := DetectFormat(data[0][0])
	if err != nil {
		return nil, contract.Malformed(name, "first column is not a timestamp: %v", err)
	}

	for range min(opts.SampleSize, len(data)) {
		i := opts.Rand.IntN(len(data))
		if _, err := format.Parse(data[i][0]); err != nil {
			return nil, contract.Malformed(name, "row %d: %q is not a timestamp in %s", i+1, data[i][0], format.Display)
		}
	}

	rows := make([]schema.Row, 0, len(data))
	for i, rec := range data {
		ts, err := format.Parse(rec[0])
		if err != nil {
			return nil, contract.Malformed(name, "row %d: %q is not a timestamp in %s", i+1, rec[0], format.Display)
		}
		rows = append(rows, schema.NewRow(ts, trimAll(rec[1:])))
	}

	numeric := NumericColumns(rows[0])
	if len(numeric) == 0 {
		return nil, contract.Malformed(name, "no numeric columns")
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })

	return &schema.Series{
		Name:          name,
		Kind:          kind,
		Header:        header,
		Rows:          rows,
		Layout:        format.Layout,
		DisplayFormat: format.Display,
		HasSeconds:    format.HasSeconds,
		NumericCols:   numeric,
	}, nil
}

// NumericColumns returns the field indices of row that hold numbers.
func NumericColumns(row schema.Row) []int {
	var cols []int
	for i := range row.Fields {
		if _, ok := row.Value(i); ok {
			cols = append(cols, i)
		}
	}
	return cols
}

// SelectColumns keeps only the chosen table columns, where 0 is the time column.
func SelectColumns(s *schema.Series, cols []int) *schema.Series {
	header := []string{s.Header[0]}
	var fieldIdx []int
	for _, c := range cols {
		if c == 0 {
			continue
		}
		header = append(header, s.Header[c])
		fieldIdx = append(fieldIdx, c-1)
	}

	rows := make([]schema.Row, len(s.Rows))
	for i, r := range s.Rows {
		fields := make([]string, len(fieldIdx))
		values := make([]float64, len(fieldIdx))
		for j, f := range fieldIdx {
			fields[j] = r.Fields[f]
			values[j] = r.Values[f]
		}
		rows[i] = schema.Row{Time: r.Time, Fields: fields, Values: values}
	}

	out := s.WithRows(rows)
	out.Header = header
	if len(rows) > 0 {
		out.NumericCols = NumericColumns(rows[0])
	} else {
		out.NumericCols = nil
	}
	return out
}

// FormatOf returns the timestamp format a series was loaded with.
func FormatOf(s *schema.Series) Format {
	return Format{Layout: s.Layout, Display: s.DisplayFormat, HasSeconds: s.HasSeconds}
}

func splitHeader(records [][]string) ([]string, [][]string) {
	first := records[0]
	if len(first) > 0 {
		if _, err := DetectFormat(first[0]); err == nil {
			header := make([]string, len(first))
			header[0] = schema.TimeColumn
			for i := 1; i < len(first); i++ {
				header[i] = fmt.Sprintf("col%d", i)
			}
			return header, records
		}
	}
	header := trimAll(first)
	if len(header) > 0 && header[0] == "" {
		header[0] = schema.TimeColumn
	}
	return header, records[1:]
}

func dropIncomplete(data [][]string, width int) [][]string {
	out := data[:0:0]
	for _, rec := range data {
		if len(rec) < width {
			continue
		}
		rec = rec[:width]
		complete := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) == "" {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, rec)
		}
	}
	return out
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
