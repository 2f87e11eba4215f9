// Package sarima implements seasonal ARIMA models estimated by conditional
// sum of squares. A zero seasonal part degenerates to a plain ARIMA(p,d,q),
// so the same estimator serves both the standalone seasonal model and the
// error process of the dynamic regression.
package sarima

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gridcast/gridcast/stats"
	"github.com/gridcast/gridcast/timeseries"
)

// Order represents a SARIMA order (p,d,q)(P,D,Q)[m]. M == 0 disables the
// seasonal part entirely.
type Order struct {
	P, D, Q    int
	SP, SD, SQ int
	M          int
}

// NumParams returns the number of estimated coefficients including the
// intercept.
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ + 1
}

// Model represents a (seasonal) ARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Variance  float64
	IC        *stats.InformationCriteria

	fitted     bool
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates a SARIMA model with the given order. A non-positive seasonal
// period zeroes the seasonal orders.
func New(p, d, q, sp, sd, sq, m int) *Model {
	if m <= 0 {
		sp, sd, sq, m = 0, 0, 0, 0
	}
	return &Model{
		Order:     Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m},
		ARCoeffs:  make([]float64, p),
		MACoeffs:  make([]float64, q),
		SARCoeffs: make([]float64, sp),
		SMACoeffs: make([]float64, sq),
	}
}

// NewARIMA creates a non-seasonal ARIMA(p,d,q) model.
func NewARIMA(p, d, q int) *Model {
	return New(p, d, q, 0, 0, 0, 0)
}

// Fit estimates the model against the series. Non-convergence or
// insufficient data is an error; the caller decides whether sibling models
// continue.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.HasNaN() {
		return errors.New("series contains missing values")
	}

	o := m.Order
	minLen := o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.M + 20
	if series.Len() < minLen {
		return errors.New("insufficient data points for the specified order")
	}

	m.data = series

	diff := series
	for i := 0; i < o.D; i++ {
		diff = diff.Diff()
		if diff.Len() == 0 {
			return errors.New("differencing resulted in empty series")
		}
	}
	for i := 0; i < o.SD; i++ {
		diff = diff.SeasonalDiff(o.M)
		if diff.Len() == 0 {
			return errors.New("seasonal differencing resulted in empty series")
		}
	}
	m.diffData = diff

	if err := m.estimate(); err != nil {
		return err
	}

	logLik := stats.GaussianLogLik(m.residuals, m.Variance)
	m.IC = stats.CalculateIC(logLik, len(m.residuals), o.NumParams())

	m.fitted = true
	return nil
}

// estimate initialises the coefficients and refines them by conditional sum
// of squares.
func (m *Model) estimate() error {
	y := m.diffData.Values
	n := len(y)
	o := m.Order

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.Intercept = mean / float64(n)

	if o.P > 0 {
		if acf := stats.ACF(m.diffData, o.P); acf != nil {
			m.ARCoeffs = yuleWalker(acf, o.P)
		}
	}
	if o.SP > 0 {
		if acf := stats.ACF(m.diffData, o.SP*o.M); acf != nil {
			for i := 0; i < o.SP; i++ {
				idx := (i + 1) * o.M
				if idx < len(acf) {
					m.SARCoeffs[i] = acf[idx] * 0.5
				}
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}
	for i := range m.SMACoeffs {
		m.SMACoeffs[i] = 0.1
	}

	return m.refineCSS(y)
}

// predictAt evaluates the one-step prediction at index t of the differenced
// series given the residual history.
func (m *Model) predictAt(y, residuals []float64, t, horizon int) float64 {
	o := m.Order
	pred := m.Intercept

	for i := 0; i < o.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < o.SP; i++ {
		lag := (i + 1) * o.M
		if t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - m.Intercept)
		}
	}
	for i := 0; i < o.Q && t-i-1 >= 0 && t-i-1 < horizon; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	for i := 0; i < o.SQ; i++ {
		lag := (i + 1) * o.M
		if t-lag >= 0 && t-lag < horizon {
			pred += m.SMACoeffs[i] * residuals[t-lag]
		}
	}
	return pred
}

// refineCSS minimises the conditional sum of squares by gradient descent
// with momentum, a decaying learning rate and early stopping on the best
// coefficients seen.
func (m *Model) refineCSS(y []float64) error {
	n := len(y)
	o := m.Order

	maxIter := 200
	tolerance := 1e-8
	learningRate := 0.005
	momentum := 0.9
	decay := 0.99

	arMom := make([]float64, o.P)
	maMom := make([]float64, o.Q)
	sarMom := make([]float64, o.SP)
	smaMom := make([]float64, o.SQ)

	startIdx := o.P
	if o.Q > startIdx {
		startIdx = o.Q
	}
	if s := o.SP * o.M; s > startIdx {
		startIdx = s
	}
	if s := o.SQ * o.M; s > startIdx {
		startIdx = s
	}
	if startIdx >= n-10 {
		startIdx = 0
	}

	bestSSE := math.Inf(1)
	bestAR := make([]float64, o.P)
	bestMA := make([]float64, o.Q)
	bestSAR := make([]float64, o.SP)
	bestSMA := make([]float64, o.SQ)
	noImprove := 0

	for iter := 0; iter < maxIter; iter++ {
		residuals := make([]float64, n)
		sse := 0.0
		for t := startIdx; t < n; t++ {
			residuals[t] = y[t] - m.predictAt(y, residuals, t, n)
			sse += residuals[t] * residuals[t]
		}

		if sse < bestSSE {
			if iter > 0 && math.Abs(bestSSE-sse) < tolerance {
				bestSSE = sse
				copy(bestAR, m.ARCoeffs)
				copy(bestMA, m.MACoeffs)
				copy(bestSAR, m.SARCoeffs)
				copy(bestSMA, m.SMACoeffs)
				break
			}
			bestSSE = sse
			copy(bestAR, m.ARCoeffs)
			copy(bestMA, m.MACoeffs)
			copy(bestSAR, m.SARCoeffs)
			copy(bestSMA, m.SMACoeffs)
			noImprove = 0
		} else {
			noImprove++
		}
		if noImprove > 20 {
			break
		}

		arGrad := make([]float64, o.P)
		maGrad := make([]float64, o.Q)
		sarGrad := make([]float64, o.SP)
		smaGrad := make([]float64, o.SQ)

		for t := startIdx; t < n; t++ {
			for i := 0; i < o.P && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < o.SP; i++ {
				lag := (i + 1) * o.M
				if t-lag >= 0 {
					sarGrad[i] -= 2 * residuals[t] * (y[t-lag] - m.Intercept)
				}
			}
			for i := 0; i < o.Q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
			for i := 0; i < o.SQ; i++ {
				lag := (i + 1) * o.M
				if t-lag >= 0 {
					smaGrad[i] -= 2 * residuals[t] * residuals[t-lag]
				}
			}
		}

		step := func(coeffs, mom, grad []float64) {
			for i := range coeffs {
				mom[i] = momentum*mom[i] + learningRate*grad[i]/float64(n)
				coeffs[i] -= mom[i]
				coeffs[i] = clamp(coeffs[i], -0.99, 0.99)
			}
		}
		step(m.ARCoeffs, arMom, arGrad)
		step(m.SARCoeffs, sarMom, sarGrad)
		step(m.MACoeffs, maMom, maGrad)
		step(m.SMACoeffs, smaMom, smaGrad)

		learningRate *= decay
	}

	copy(m.ARCoeffs, bestAR)
	copy(m.MACoeffs, bestMA)
	copy(m.SARCoeffs, bestSAR)
	copy(m.SMACoeffs, bestSMA)

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	for t := 0; t < n; t++ {
		m.fittedVals[t] = m.predictAt(y, m.residuals, t, n)
		m.residuals[t] = y[t] - m.fittedVals[t]
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > o.NumParams() {
		m.Variance = sse / float64(count-o.NumParams())
	} else if count > 0 {
		m.Variance = sse / float64(count)
	} else {
		return errors.New("no usable observations after differencing")
	}
	if math.IsNaN(m.Variance) || math.IsInf(m.Variance, 0) {
		return errors.New("estimation did not converge")
	}
	return nil
}

// Forecast generates point forecasts with a symmetric prediction interval
// at the given confidence level, integrated back to the original scale.
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

	o := m.Order
	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extRes := make([]float64, n+steps)
	copy(extRes, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		extY[t] = m.predictAt(extY, extRes, t, n)
		extRes[t] = 0
	}

	forecasts, err := m.integrate(extY[n:])
	if err != nil {
		return nil, fmt.Errorf("integrate forecasts: %w", err)
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile((1 + confidence) / 2)

	lower := make([]float64, steps)
	upper := make([]float64, steps)
	for h := 0; h < steps; h++ {
		se := math.Sqrt(m.Variance)
		growth := 1.0
		if o.D > 0 {
			growth *= math.Sqrt(float64(h + 1))
		}
		if o.SD > 0 && o.M > 0 {
			growth *= math.Sqrt(float64(h/o.M + 1))
		}
		se *= growth
		lower[h] = forecasts[h] - z*se
		upper[h] = forecasts[h] + z*se
	}

	var periods []time.Time
	if len(m.data.Timestamps) == m.data.Len() && m.data.Len() > 0 {
		periods = timeseries.MonthlyPeriods(m.data.Timestamps[m.data.Len()-1], steps)
	}

	return &timeseries.Forecast{
		Periods: periods,
		Mean:    forecasts,
		Lower:   lower,
		Upper:   upper,
		Level:   confidence,
	}, nil
}

// Predict returns point forecasts only.
func (m *Model) Predict(steps int) ([]float64, error) {
	fc, err := m.Forecast(steps, 0.95)
	if err != nil {
		return nil, err
	}
	return fc.Mean, nil
}

// integrate undoes the differencing applied in Fit. Fit differences
// non-seasonally first, then seasonally, so integration inverts the
// seasonal differencing first and then each lag-1 pass from the innermost
// difference outward. Every pass is anchored at the tail of the matching
// partially differenced history: cumulating a second difference onto the
// last level instead of the last first difference would inflate every step
// by roughly one whole level.
func (m *Model) integrate(forecasts []float64) ([]float64, error) {
	o := m.Order

	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	// histories[i] is the series differenced i times at lag 1.
	histories := make([][]float64, o.D+1)
	histories[0] = m.data.Values
	for i := 1; i <= o.D; i++ {
		histories[i] = diffOnce(histories[i-1])
	}

	if o.SD > 0 && o.M > 0 {
		seasonal := make([][]float64, o.SD+1)
		seasonal[0] = histories[o.D]
		for i := 1; i <= o.SD; i++ {
			seasonal[i] = seasonalDiffOnce(seasonal[i-1], o.M)
		}
		for i := o.SD; i >= 1; i-- {
			integrated, err := timeseries.InvertSeasonalDiff(result, seasonal[i-1], o.M)
			if err != nil {
				return nil, err
			}
			result = integrated
		}
	}

	for i := o.D; i >= 1; i-- {
		hist := histories[i-1]
		result = timeseries.InvertDiff(result, hist[len(hist)-1])
	}
	return result, nil
}

func diffOnce(values []float64) []float64 {
	if len(values) <= 1 {
		return values
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

func seasonalDiffOnce(values []float64, m int) []float64 {
	if len(values) <= m {
		return nil
	}
	out := make([]float64, len(values)-m)
	for i := m; i < len(values); i++ {
		out[i-m] = values[i] - values[i-m]
	}
	return out
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// FittedValues returns the in-sample fitted values on the differenced
// scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	copy(out, m.fittedVals)
	return out
}

// Summary bundles the estimates and residual diagnostics of a fitted
// model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Variance  float64
	IC        *stats.InformationCriteria
	NObs      int
	LjungBox  *stats.LjungBoxResult
}

// Summary returns the fitted model summary, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}
	lb := stats.LjungBox(timeseries.New(m.residuals), 10, m.Order.NumParams()-1)
	return &Summary{
		Order:     m.Order,
		ARCoeffs:  m.ARCoeffs,
		MACoeffs:  m.MACoeffs,
		SARCoeffs: m.SARCoeffs,
		SMACoeffs: m.SMACoeffs,
		Intercept: m.Intercept,
		Variance:  m.Variance,
		IC:        m.IC,
		NObs:      m.data.Len(),
		LjungBox:  lb,
	}
}

// yuleWalker estimates AR coefficients from the ACF by Levinson-Durbin
// recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return make([]float64, order)
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}
	return phi
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
