// Package timeseries provides the core series and frame containers used by
// the grid analysis pipeline.
package timeseries

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Series represents a single regularly spaced time series. Missing values
// are carried as NaN and ignored by the summary statistics.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a series from values with synthetic monthly timestamps.
// Used mostly in tests and diagnostics where only the values matter.
func New(values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, i, 0)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}
}

// NewWithTimestamps creates a series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// valid returns the non-NaN values of the series.
func (s *Series) valid() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean calculates the arithmetic mean of the series, ignoring NaN.
func (s *Series) Mean() float64 {
	v := s.valid()
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Variance calculates the sample variance of the series, ignoring NaN.
func (s *Series) Variance() float64 {
	v := s.valid()
	if len(v) < 2 {
		return 0
	}
	return stat.Variance(v, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series, ignoring NaN.
func (s *Series) Min() float64 {
	min := math.NaN()
	for _, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series, ignoring NaN.
func (s *Series) Max() float64 {
	max := math.NaN()
	for _, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the n-th order lag-1 difference of the series.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || len(s.Values) <= n {
		return &Series{Values: []float64{}}
	}

	out := s
	for i := 0; i < n; i++ {
		out = out.lagDiff(1, "_diff")
	}
	return out
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	if m <= 0 || len(s.Values) <= m {
		return &Series{Values: []float64{}}
	}
	return s.lagDiff(m, "_seasonal_diff")
}

func (s *Series) lagDiff(lag int, suffix string) *Series {
	result := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		result[i-lag] = s.Values[i] - s.Values[i-lag]
	}

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) > lag {
		copy(timestamps, s.Timestamps[lag:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + suffix,
	}
}

// InvertDiff reconstructs a lag-1 differenced series given the value
// immediately preceding the differenced range.
func InvertDiff(diffs []float64, last float64) []float64 {
	out := make([]float64, len(diffs))
	prev := last
	for i, d := range diffs {
		prev += d
		out[i] = prev
	}
	return out
}

// InvertSeasonalDiff reconstructs a seasonally differenced series given the
// m values immediately preceding the differenced range. Cumulative summation
// at lag m recovers the original levels up to float rounding.
func InvertSeasonalDiff(diffs []float64, initial []float64, m int) ([]float64, error) {
	if m <= 0 || len(initial) < m {
		return nil, errors.New("need at least m initial values to invert a seasonal difference")
	}
	out := make([]float64, len(diffs))
	for i, d := range diffs {
		if i < m {
			out[i] = d + initial[len(initial)-m+i]
		} else {
			out[i] = d + out[i-m]
		}
	}
	return out, nil
}

// Lag returns a lagged version of the series.
func (s *Series) Lag(k int) *Series {
	if k <= 0 || k >= len(s.Values) {
		return &Series{Values: []float64{}}
	}

	result := make([]float64, len(s.Values)-k)
	copy(result, s.Values[:len(s.Values)-k])

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) > k {
		copy(timestamps, s.Timestamps[k:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + "_lag",
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// SplitAt partitions the series into two contiguous halves at the first
// timestamp not before cutoff. Ordering is preserved; nothing is shuffled.
func (s *Series) SplitAt(cutoff time.Time) (train, test *Series) {
	idx := len(s.Timestamps)
	for i, ts := range s.Timestamps {
		if !ts.Before(cutoff) {
			idx = i
			break
		}
	}
	return s.Slice(0, idx), s.Slice(idx, s.Len())
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// HasNaN reports whether the series carries any missing value.
func (s *Series) HasNaN() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
