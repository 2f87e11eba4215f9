package stats

import (
	"math"

	"github.com/gridcast/gridcast/timeseries"
)

// DecompositionResult represents a classical seasonal decomposition.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
	Type     string // "additive" or "multiplicative"
}

// Decompose performs classical seasonal decomposition with a centered
// moving-average trend. Type is "additive" (Y = T + S + R) or
// "multiplicative" (Y = T * S * R). The trend is undefined (NaN) in the
// first and last half-period.
func Decompose(series *timeseries.Series, period int, decompositionType string) *DecompositionResult {
	n := series.Len()
	if n < 2*period {
		return nil
	}
	if decompositionType != "additive" && decompositionType != "multiplicative" {
		decompositionType = "additive"
	}

	trend := centeredTrend(series.Values, period)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case decompositionType == "multiplicative":
			if trend[i] == 0 {
				detrended[i] = math.NaN()
			} else {
				detrended[i] = series.Values[i] / trend[i]
			}
		default:
			detrended[i] = series.Values[i] - trend[i]
		}
	}

	// Seasonal pattern: average the detrended values within each phase.
	pattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(detrended[i]) {
			continue
		}
		pattern[i%period] += detrended[i]
		counts[i%period]++
	}
	for i := 0; i < period; i++ {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	// Center the pattern so the seasonal component carries no level.
	sum := 0.0
	for _, v := range pattern {
		sum += v
	}
	mean := sum / float64(period)
	for i := range pattern {
		if decompositionType == "multiplicative" {
			pattern[i] /= mean
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period]
	}

	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case decompositionType == "multiplicative":
			if trend[i] == 0 || seasonal[i] == 0 {
				residual[i] = math.NaN()
			} else {
				residual[i] = series.Values[i] / (trend[i] * seasonal[i])
			}
		default:
			residual[i] = series.Values[i] - trend[i] - seasonal[i]
		}
	}

	wrap := func(values []float64, name string) *timeseries.Series {
		return &timeseries.Series{Values: values, Timestamps: series.Timestamps, Name: name}
	}

	return &DecompositionResult{
		Original: series,
		Trend:    wrap(trend, "trend"),
		Seasonal: wrap(seasonal, "seasonal"),
		Residual: wrap(residual, "residual"),
		Period:   period,
		Type:     decompositionType,
	}
}

// centeredTrend computes a centered moving average of the given period,
// using the 2xm form for even periods.
func centeredTrend(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	if period%2 == 0 {
		for i := half; i < n-half; i++ {
			sum := values[i-half]*0.5 + values[i+half]*0.5
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		for i := half; i < n-half; i++ {
			sum := 0.0
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	}
	return trend
}

// SeasonalStrength measures F_S = max(0, 1 - Var(R)/Var(S+R)) from an
// additive decomposition. Values near 1 indicate strong seasonality.
func SeasonalStrength(series *timeseries.Series, period int) float64 {
	if series.Len() < 2*period {
		return 0
	}
	decomp := Decompose(series, period, "additive")
	if decomp == nil {
		return 0
	}

	varR := nanVariance(decomp.Residual.Values)

	sr := make([]float64, len(decomp.Seasonal.Values))
	for i := range sr {
		if math.IsNaN(decomp.Seasonal.Values[i]) || math.IsNaN(decomp.Residual.Values[i]) {
			sr[i] = math.NaN()
			continue
		}
		sr[i] = decomp.Seasonal.Values[i] + decomp.Residual.Values[i]
	}
	varSR := nanVariance(sr)
	if varSR == 0 {
		return 0
	}

	strength := 1 - varR/varSR
	if strength < 0 {
		strength = 0
	}
	return strength
}

func nanVariance(data []float64) float64 {
	s := timeseries.Series{Values: data}
	return s.Variance()
}
