// Package eval scores holdout forecasts with point and distributional
// accuracy metrics and records the model-selection policy used by the
// report.
package eval

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gridcast/gridcast/timeseries"
)

// Metrics holds the accuracy of one model's forecast over a holdout
// window.
type Metrics struct {
	Model   string
	ME      float64 // mean error
	RMSE    float64 // root mean squared error
	MPE     float64 // mean percentage error
	MAPE    float64 // mean absolute percentage error
	Winkler float64 // mean Winkler interval score at the forecast level
	CRPS    float64 // mean continuous ranked probability score
}

// Evaluate scores a forecast against the realized values. The forecast and
// actuals must cover the same window. The percentage metrics are undefined
// at a zero actual, so MPE and MAPE average over the non-zero actuals only
// and come back NaN when every actual is zero.
func Evaluate(model string, forecast *timeseries.Forecast, actual []float64) (*Metrics, error) {
	n := len(actual)
	if n == 0 || forecast.Len() != n {
		return nil, errors.New("forecast and actuals must have equal, non-zero length")
	}

	me, mse, mpe, mape := 0.0, 0.0, 0.0, 0.0
	winkler, crps := 0.0, 0.0
	pctN := 0
	alpha := 1 - forecast.Level
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - alpha/2)

	for i := 0; i < n; i++ {
		err := actual[i] - forecast.Mean[i]
		me += err
		mse += err * err
		if actual[i] != 0 {
			mpe += err / actual[i] * 100
			mape += math.Abs(err/actual[i]) * 100
			pctN++
		}
		winkler += winklerScore(forecast.Lower[i], forecast.Upper[i], actual[i], alpha)

		// The interval half-width implies the predictive sigma under the
		// Gaussian assumption the models share.
		sigma := (forecast.Upper[i] - forecast.Mean[i]) / z
		crps += gaussianCRPS(actual[i], forecast.Mean[i], sigma)
	}

	mpeOut, mapeOut := math.NaN(), math.NaN()
	if pctN > 0 {
		mpeOut = mpe / float64(pctN)
		mapeOut = mape / float64(pctN)
	}

	nf := float64(n)
	return &Metrics{
		Model:   model,
		ME:      me / nf,
		RMSE:    math.Sqrt(mse / nf),
		MPE:     mpeOut,
		MAPE:    mapeOut,
		Winkler: winkler / nf,
		CRPS:    crps / nf,
	}, nil
}

// winklerScore is the interval score at level 1-alpha: the interval width
// plus a 2/alpha penalty per unit of miss.
func winklerScore(lower, upper, actual, alpha float64) float64 {
	score := upper - lower
	switch {
	case actual < lower:
		score += 2 / alpha * (lower - actual)
	case actual > upper:
		score += 2 / alpha * (actual - upper)
	}
	return score
}

// gaussianCRPS is the closed-form CRPS of a normal predictive distribution
// (Gneiting & Raftery 2007).
func gaussianCRPS(actual, mean, sigma float64) float64 {
	if sigma <= 0 {
		return math.Abs(actual - mean)
	}
	std := distuv.Normal{Mu: 0, Sigma: 1}
	zv := (actual - mean) / sigma
	return sigma * (zv*(2*std.CDF(zv)-1) + 2*std.Prob(zv) - 1/math.Sqrt(math.Pi))
}
