package timeseries

import "time"

// Forecast is an ordered sequence of point forecasts with a symmetric
// prediction interval at a single confidence level.
type Forecast struct {
	Periods []time.Time
	Mean    []float64
	Lower   []float64
	Upper   []float64
	Level   float64 // interval confidence level, e.g. 0.95
}

// Len returns the forecast horizon.
func (f *Forecast) Len() int {
	return len(f.Mean)
}

// At returns the index of the forecast row for the given period, matching
// on year and month, or -1 if the period is not covered.
func (f *Forecast) At(period time.Time) int {
	for i, p := range f.Periods {
		if p.Year() == period.Year() && p.Month() == period.Month() {
			return i
		}
	}
	return -1
}

// MonthlyPeriods generates h consecutive month starts beginning one month
// after last.
func MonthlyPeriods(last time.Time, h int) []time.Time {
	out := make([]time.Time, h)
	cursor := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < h; i++ {
		cursor = cursor.AddDate(0, 1, 0)
		out[i] = cursor
	}
	return out
}

// MonthsBetween counts the whole months from one period to another,
// inclusive of the end month and exclusive of the start month.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
