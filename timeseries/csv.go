package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for frame loading.
type CSVOptions struct {
	TimeColumn  string   // Column holding the timestamp (default: "timestamp")
	TimeFormats []string // Candidate timestamp layouts, tried in order
	Required    []string // Columns that must be present; absence is fatal
	Delimiter   rune     // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for frame loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		TimeColumn: "timestamp",
		TimeFormats: []string{
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
		},
		Delimiter: ',',
	}
}

// LoadFrame loads a frame from a headered CSV file.
func LoadFrame(filename string, opts *CSVOptions) (*Frame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFrameFromReader(file, opts)
}

// LoadFrameFromReader loads a frame from an io.Reader. The first row is the
// header; every non-time cell is parsed as float64 with empty/NA/NaN/null
// mapped to NaN. A required column missing from the header aborts the load.
func LoadFrameFromReader(r io.Reader, opts *CSVOptions) (*Frame, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	timeIdx := -1
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		names[i] = h
		if h == opts.TimeColumn {
			timeIdx = i
		}
	}
	if timeIdx == -1 {
		return nil, fmt.Errorf("missing required column %s", opts.TimeColumn)
	}
	for _, req := range opts.Required {
		found := false
		for _, h := range names {
			if h == req {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing required column %s", req)
		}
	}

	var timestamps []time.Time
	values := make([][]float64, len(header))

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", row, len(record), len(header))
		}

		ts, err := parseTime(strings.TrimSpace(strings.Trim(record[timeIdx], "\"")), opts.TimeFormats)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		timestamps = append(timestamps, ts)

		for i, cell := range record {
			if i == timeIdx {
				continue
			}
			values[i] = append(values[i], parseCell(cell))
		}
	}

	if len(timestamps) == 0 {
		return nil, errors.New("no data rows in CSV")
	}

	frame := NewFrame(timestamps)
	for i, name := range names {
		if i == timeIdx {
			continue
		}
		if err := frame.AddColumn(name, values[i]); err != nil {
			return nil, err
		}
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return frame, nil
}

func parseTime(s string, formats []string) (time.Time, error) {
	var lastErr error
	for _, layout := range formats {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q: %w", s, lastErr)
}

func parseCell(cell string) float64 {
	s := strings.TrimSpace(strings.Trim(cell, "\""))
	if s == "" || s == "NA" || s == "NaN" || s == "null" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// SaveFrame writes a frame snapshot as CSV with the timestamp in the first
// column. NaN cells are written empty so a reload maps them back to NaN.
func SaveFrame(frame *Frame, filename, timeLayout string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	names := frame.Names()
	writer.WriteString("timestamp")
	for _, name := range names {
		writer.WriteString(",")
		writer.WriteString(name)
	}
	writer.WriteString("\n")

	cols := make([][]float64, len(names))
	for i, name := range names {
		v, err := frame.ColumnValues(name)
		if err != nil {
			return err
		}
		cols[i] = v
	}

	for i, ts := range frame.Timestamps {
		writer.WriteString(ts.Format(timeLayout))
		for _, col := range cols {
			writer.WriteString(",")
			if !math.IsNaN(col[i]) {
				writer.WriteString(strconv.FormatFloat(col[i], 'f', -1, 64))
			}
		}
		writer.WriteString("\n")
	}

	return nil
}
