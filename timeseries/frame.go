package timeseries

import (
	"fmt"
	"math"
	"time"
)

// Frame is a time-indexed table of named float64 columns. Rows share one
// timestamp index; missing measurements are NaN. Column order is preserved
// so snapshots round-trip with a stable header.
type Frame struct {
	Timestamps []time.Time
	names      []string
	cols       map[string][]float64
}

// NewFrame creates an empty frame over the given timestamp index.
func NewFrame(timestamps []time.Time) *Frame {
	return &Frame{
		Timestamps: timestamps,
		cols:       make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Timestamps)
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// AddColumn appends a column. The values slice is owned by the frame after
// the call.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != f.Len() {
		return fmt.Errorf("column %s has %d values, frame has %d rows", name, len(values), f.Len())
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = values
	return nil
}

// ColumnValues returns the raw backing slice for a column.
func (f *Frame) ColumnValues(name string) ([]float64, error) {
	v, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("missing required column %s", name)
	}
	return v, nil
}

// Column returns the named column as a series sharing the frame's index.
func (f *Frame) Column(name string) (*Series, error) {
	v, err := f.ColumnValues(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(v))
	copy(values, v)
	timestamps := make([]time.Time, len(f.Timestamps))
	copy(timestamps, f.Timestamps)
	return &Series{Timestamps: timestamps, Values: values, Name: name}, nil
}

// Drop removes columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) {
	for _, name := range names {
		if _, ok := f.cols[name]; !ok {
			continue
		}
		delete(f.cols, name)
		for i, n := range f.names {
			if n == name {
				f.names = append(f.names[:i], f.names[i+1:]...)
				break
			}
		}
	}
}

// Select returns a new frame containing only the named columns, in the
// given order. Missing columns are an error.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := NewFrame(f.Timestamps)
	for _, name := range names {
		v, err := f.ColumnValues(name)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(v))
		copy(values, v)
		if err := out.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Apply transforms a column in place with fn.
func (f *Frame) Apply(name string, fn func(float64) float64) error {
	v, err := f.ColumnValues(name)
	if err != nil {
		return err
	}
	for i := range v {
		v[i] = fn(v[i])
	}
	return nil
}

// Copy creates a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	out := NewFrame(append([]time.Time(nil), f.Timestamps...))
	for _, name := range f.names {
		values := make([]float64, len(f.cols[name]))
		copy(values, f.cols[name])
		out.AddColumn(name, values) //nolint:errcheck // lengths match by construction
	}
	return out
}

// SliceRows returns a new frame with rows [start, end).
func (f *Frame) SliceRows(start, end int) *Frame {
	if start < 0 {
		start = 0
	}
	if end > f.Len() {
		end = f.Len()
	}
	if start > end {
		start = end
	}
	out := NewFrame(append([]time.Time(nil), f.Timestamps[start:end]...))
	for _, name := range f.names {
		values := make([]float64, end-start)
		copy(values, f.cols[name][start:end])
		out.AddColumn(name, values) //nolint:errcheck
	}
	return out
}

// Validate checks the frame's index invariants: timestamps must be unique
// and strictly increasing.
func (f *Frame) Validate() error {
	for i := 1; i < len(f.Timestamps); i++ {
		if !f.Timestamps[i].After(f.Timestamps[i-1]) {
			return fmt.Errorf("timestamps out of order at row %d (%s then %s)",
				i, f.Timestamps[i-1].Format(time.RFC3339), f.Timestamps[i].Format(time.RFC3339))
		}
	}
	return nil
}

// NaNColumns returns the names of columns that carry at least one missing
// value, for surfacing after aggregation.
func (f *Frame) NaNColumns() []string {
	var out []string
	for _, name := range f.names {
		for _, v := range f.cols[name] {
			if math.IsNaN(v) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
