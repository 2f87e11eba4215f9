package grid

import (
	"math"

	"github.com/gridcast/gridcast/timeseries"
)

// Reduce folds the minor source and interconnect columns of the raw feed
// into a single total_other column and drops everything the analysis does
// not model: the row id, the mains frequency, the north_south flow and the
// minor columns themselves. A negative minor sum (net export) is clamped to
// zero; NaN cells are ignored in the sum.
//
// The input frame is not modified. A missing required column is fatal.
func Reduce(raw *timeseries.Frame) (*timeseries.Frame, error) {
	major := make(map[string][]float64, len(MajorColumns))
	for _, name := range MajorColumns {
		v, err := raw.ColumnValues(name)
		if err != nil {
			return nil, err
		}
		major[name] = v
	}

	minors := make([][]float64, 0, len(MinorColumns))
	for _, name := range MinorColumns {
		v, err := raw.ColumnValues(name)
		if err != nil {
			return nil, err
		}
		minors = append(minors, v)
	}

	n := raw.Len()
	totalOther := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		seen := false
		for _, col := range minors {
			if math.IsNaN(col[i]) {
				continue
			}
			sum += col[i]
			seen = true
		}
		switch {
		case !seen:
			totalOther[i] = math.NaN()
		case sum < 0:
			totalOther[i] = 0
		default:
			totalOther[i] = sum
		}
	}

	reduced := timeseries.NewFrame(rawTimestamps(raw))
	for _, name := range MajorColumns {
		values := make([]float64, n)
		copy(values, major[name])
		if err := reduced.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	if err := reduced.AddColumn(ColTotalOther, totalOther); err != nil {
		return nil, err
	}
	return reduced, nil
}
