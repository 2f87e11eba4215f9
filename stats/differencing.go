package stats

import (
	"math"

	"github.com/gridcast/gridcast/timeseries"
)

// NDiffs determines the minimal number of first differences required for
// stationarity by iteratively testing and differencing, up to maxD.
// testType is "kpss" (default) or "adf".
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}
	if testType == "" {
		testType = "kpss"
	}

	current := series
	for d := 0; d < maxD; d++ {
		stationary := false
		if testType == "adf" {
			if result := ADF(current, 0); result != nil && result.IsStationary {
				stationary = true
			}
		} else {
			if result := KPSS(current, "c", 0); result != nil && result.IsStationary {
				stationary = true
			}
		}
		if stationary {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return maxD
}

// NSDiffs determines the number of seasonal differences required at the
// given period, using the seasonal strength heuristic: F_S >= 0.64 suggests
// one more seasonal difference.
func NSDiffs(series *timeseries.Series, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || series.Len() < 2*period {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < 0.64 {
			return d
		}
		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d
		}
	}
	return maxD
}

// InformationCriteria bundles the likelihood-based fit criteria reported by
// every model in the bank.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC derives AIC, AICc and BIC from a Gaussian log-likelihood with
// nParams estimated parameters over nObs observations.
func CalculateIC(logLik float64, nObs, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return &InformationCriteria{AIC: aic, AICc: aicc, BIC: bic, LogLik: logLik}
}

// GaussianLogLik computes the log-likelihood of residuals under a Gaussian
// error model with the given variance.
func GaussianLogLik(residuals []float64, variance float64) float64 {
	if variance <= 0 {
		return math.Inf(-1)
	}
	n := float64(len(residuals))
	sse := 0.0
	for _, r := range residuals {
		sse += r * r
	}
	return -n/2*math.Log(2*math.Pi) - n/2*math.Log(variance) - sse/(2*variance)
}
