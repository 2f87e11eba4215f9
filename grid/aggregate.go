package grid

import (
	"fmt"
	"math"
	"time"

	"github.com/gridcast/gridcast/timeseries"
)

// Granularity selects the calendar bucket used by Aggregate.
type Granularity int

const (
	// Daily buckets rows by UTC calendar date.
	Daily Granularity = iota
	// Monthly buckets rows by (year, month).
	Monthly
)

// Aggregate downsamples a frame by arithmetic mean within each calendar
// bucket, ignoring NaN cells. The output has exactly one row per bucket
// present in the input, ordered ascending, with the bucket start as the
// timestamp. A bucket whose cells are all NaN for some column yields NaN
// for that column; it is the caller's job to surface that, never to zero
// it.
//
// A gap in the bucket sequence breaks the regular-interval contract the
// modeling stages rely on and is returned as an error.
func Aggregate(frame *timeseries.Frame, g Granularity) (*timeseries.Frame, error) {
	n := frame.Len()
	if n == 0 {
		return nil, fmt.Errorf("cannot aggregate an empty frame")
	}

	names := frame.Names()
	cols := make([][]float64, len(names))
	for i, name := range names {
		v, err := frame.ColumnValues(name)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}

	// Rows are already time-ordered, so buckets appear contiguously.
	var bucketStarts []time.Time
	var sums [][]float64
	var counts [][]int

	current := time.Time{}
	for row := 0; row < n; row++ {
		b := bucketStart(frame.Timestamps[row], g)
		if len(bucketStarts) == 0 || !b.Equal(current) {
			current = b
			bucketStarts = append(bucketStarts, b)
			sums = append(sums, make([]float64, len(names)))
			counts = append(counts, make([]int, len(names)))
		}
		last := len(bucketStarts) - 1
		for c := range names {
			v := cols[c][row]
			if math.IsNaN(v) {
				continue
			}
			sums[last][c] += v
			counts[last][c]++
		}
	}

	if err := checkContiguous(bucketStarts, g); err != nil {
		return nil, err
	}

	out := timeseries.NewFrame(bucketStarts)
	for c, name := range names {
		values := make([]float64, len(bucketStarts))
		for b := range bucketStarts {
			if counts[b][c] == 0 {
				values[b] = math.NaN()
				continue
			}
			values[b] = sums[b][c] / float64(counts[b][c])
		}
		if err := out.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bucketStart(ts time.Time, g Granularity) time.Time {
	ts = ts.UTC()
	if g == Monthly {
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func checkContiguous(starts []time.Time, g Granularity) error {
	for i := 1; i < len(starts); i++ {
		var next time.Time
		if g == Monthly {
			next = starts[i-1].AddDate(0, 1, 0)
		} else {
			next = starts[i-1].AddDate(0, 0, 1)
		}
		if !starts[i].Equal(next) {
			return fmt.Errorf("gap in aggregated periods: %s is followed by %s",
				starts[i-1].Format("2006-01-02"), starts[i].Format("2006-01-02"))
		}
	}
	return nil
}

func rawTimestamps(frame *timeseries.Frame) []time.Time {
	out := make([]time.Time, frame.Len())
	copy(out, frame.Timestamps)
	return out
}
