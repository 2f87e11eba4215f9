// Package ets implements exponential-smoothing state-space forecasting.
// Candidate forms cover simple smoothing, Holt's linear trend and
// Holt-Winters with additive or multiplicative seasonality; FitAuto picks
// the form by corrected AIC, with the smoothing weights chosen by a grid
// search over the in-sample sum of squared errors.
package ets

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gridcast/gridcast/stats"
	"github.com/gridcast/gridcast/timeseries"
)

// Form identifies the error/trend/seasonality shape of the model.
type Form string

const (
	// ANN is simple exponential smoothing: additive error, no trend, no
	// seasonality.
	ANN Form = "ANN"
	// AAN is Holt's linear trend method.
	AAN Form = "AAN"
	// AAA is additive Holt-Winters.
	AAA Form = "AAA"
	// AAM is Holt-Winters with multiplicative seasonality.
	AAM Form = "AAM"
)

// Model represents a fitted exponential-smoothing model.
type Model struct {
	Form   Form
	Alpha  float64
	Beta   float64
	Gamma  float64
	Period int
	IC     *stats.InformationCriteria

	fitted    bool
	data      *timeseries.Series
	level     float64
	trend     float64
	seasonal  []float64
	residuals []float64
	sigma     float64
}

// New creates an unfitted model of a fixed form. Period is required for
// the seasonal forms.
func New(form Form, period int) *Model {
	return &Model{Form: form, Period: period}
}

// FitAuto fits every applicable candidate form and returns the one with
// the lowest AICc. Seasonal forms require at least two full periods of
// data.
func FitAuto(series *timeseries.Series, period int) (*Model, error) {
	candidates := []Form{ANN, AAN}
	if period > 1 && series.Len() >= 2*period {
		candidates = append(candidates, AAA, AAM)
	}

	var best *Model
	for _, form := range candidates {
		m := New(form, period)
		if err := m.Fit(series); err != nil {
			continue
		}
		if best == nil || m.IC.AICc < best.IC.AICc {
			best = m
		}
	}
	if best == nil {
		return nil, errors.New("no exponential smoothing form could be fitted")
	}
	return best, nil
}

// Fit estimates the smoothing weights of the model's form by grid search.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.HasNaN() {
		return errors.New("series contains missing values")
	}
	n := series.Len()
	if n < 4 {
		return errors.New("insufficient data points")
	}
	if (m.Form == AAA || m.Form == AAM) && (m.Period <= 1 || n < 2*m.Period) {
		return errors.New("seasonal form needs at least two full periods")
	}
	if m.Form == AAM {
		for _, v := range series.Values {
			if v <= 0 {
				return errors.New("multiplicative seasonality needs strictly positive data")
			}
		}
	}

	m.data = series

	alphas := []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9}
	betas := []float64{0}
	gammas := []float64{0}
	if m.Form != ANN {
		betas = []float64{0.01, 0.05, 0.1, 0.3}
	}
	if m.Form == AAA || m.Form == AAM {
		gammas = []float64{0.01, 0.05, 0.1, 0.3}
	}

	bestSSE := math.Inf(1)
	var bestState state
	for _, a := range alphas {
		for _, b := range betas {
			for _, g := range gammas {
				st, sse, ok := m.smooth(series.Values, a, b, g)
				if ok && sse < bestSSE {
					bestSSE = sse
					bestState = st
					m.Alpha, m.Beta, m.Gamma = a, b, g
				}
			}
		}
	}
	if math.IsInf(bestSSE, 1) {
		return errors.New("smoothing did not produce a finite fit")
	}

	m.level = bestState.level
	m.trend = bestState.trend
	m.seasonal = bestState.seasonal
	m.residuals = bestState.residuals

	dof := n - m.numParams()
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(bestSSE / float64(dof))

	variance := bestSSE / float64(n)
	logLik := stats.GaussianLogLik(m.residuals, variance)
	m.IC = stats.CalculateIC(logLik, n, m.numParams())

	m.fitted = true
	return nil
}

// numParams counts smoothing weights plus initial states, the convention
// used for the information criteria.
func (m *Model) numParams() int {
	switch m.Form {
	case ANN:
		return 2 // alpha, initial level
	case AAN:
		return 4 // alpha, beta, initial level and trend
	default:
		return 4 + m.Period // plus initial seasonal states
	}
}

type state struct {
	level     float64
	trend     float64
	seasonal  []float64
	residuals []float64
}

// smooth runs one smoothing pass and returns the final state and SSE.
func (m *Model) smooth(y []float64, alpha, beta, gamma float64) (state, float64, bool) {
	n := len(y)
	period := m.Period
	seasonalForm := m.Form == AAA || m.Form == AAM

	var level, trend float64
	var seasonal []float64

	if seasonalForm {
		// Initial level: mean of the first season; trend: average change
		// across the first two seasons; seasonal states relative to the
		// initial level.
		sum := 0.0
		for i := 0; i < period; i++ {
			sum += y[i]
		}
		level = sum / float64(period)
		trend = (y[period] - y[0]) / float64(period)
		seasonal = make([]float64, period)
		for i := 0; i < period; i++ {
			if m.Form == AAM {
				if level == 0 {
					return state{}, 0, false
				}
				seasonal[i] = y[i] / level
			} else {
				seasonal[i] = y[i] - level
			}
		}
	} else {
		level = y[0]
		if m.Form == AAN {
			trend = y[1] - y[0]
		}
	}

	residuals := make([]float64, n)
	sse := 0.0
	for t := 0; t < n; t++ {
		var pred float64
		switch {
		case seasonalForm && m.Form == AAM:
			pred = (level + trend) * seasonal[t%period]
		case seasonalForm:
			pred = level + trend + seasonal[t%period]
		default:
			pred = level + trend
		}

		residuals[t] = y[t] - pred
		sse += residuals[t] * residuals[t]
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return state{}, 0, false
		}

		prevLevel := level
		switch {
		case seasonalForm && m.Form == AAM:
			s := seasonal[t%period]
			if s == 0 {
				return state{}, 0, false
			}
			level = alpha*(y[t]/s) + (1-alpha)*(prevLevel+trend)
			trend = beta*(level-prevLevel) + (1-beta)*trend
			if level != 0 {
				seasonal[t%period] = gamma*(y[t]/level) + (1-gamma)*s
			}
		case seasonalForm:
			s := seasonal[t%period]
			level = alpha*(y[t]-s) + (1-alpha)*(prevLevel+trend)
			trend = beta*(level-prevLevel) + (1-beta)*trend
			seasonal[t%period] = gamma*(y[t]-level) + (1-gamma)*s
		case m.Form == AAN:
			level = alpha*y[t] + (1-alpha)*(prevLevel+trend)
			trend = beta*(level-prevLevel) + (1-beta)*trend
		default:
			level = alpha*y[t] + (1-alpha)*prevLevel
		}
	}

	return state{level: level, trend: trend, seasonal: seasonal, residuals: residuals}, sse, true
}

// Forecast projects the final state forward with a symmetric normal
// prediction interval at the given confidence level.
func (m *Model) Forecast(steps int, confidence float64) (*timeseries.Forecast, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before forecasting")
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	mean := make([]float64, steps)
	for h := 1; h <= steps; h++ {
		base := m.level + float64(h)*m.trend
		switch m.Form {
		case AAM:
			idx := (m.data.Len() + h - 1) % m.Period
			mean[h-1] = base * m.seasonal[idx]
		case AAA:
			idx := (m.data.Len() + h - 1) % m.Period
			mean[h-1] = base + m.seasonal[idx]
		default:
			mean[h-1] = base
		}
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile((1 + confidence) / 2)
	lower := make([]float64, steps)
	upper := make([]float64, steps)
	for h := 0; h < steps; h++ {
		// Variance grows roughly linearly with the horizon once a trend
		// state is carried.
		se := m.sigma * math.Sqrt(1+float64(h)*m.Alpha*m.Alpha)
		if m.Form != ANN {
			se = m.sigma * math.Sqrt(float64(h+1))
		}
		lower[h] = mean[h] - z*se
		upper[h] = mean[h] + z*se
	}

	var periods []time.Time
	if m.data.Len() > 0 && len(m.data.Timestamps) == m.data.Len() {
		periods = timeseries.MonthlyPeriods(m.data.Timestamps[m.data.Len()-1], steps)
	}

	return &timeseries.Forecast{
		Periods: periods,
		Mean:    mean,
		Lower:   lower,
		Upper:   upper,
		Level:   confidence,
	}, nil
}

// Residuals returns the in-sample one-step errors.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}
