package eval

import "math"

// Select applies the report's selection policy to a set of holdout
// metrics: when the point and distributional metrics agree directionally,
// the model with the lower RMSE wins; when they conflict, MAPE breaks the
// tie. The returned reason documents which rule decided, so the choice is
// recorded rather than buried in an argmin.
func Select(metrics []*Metrics) (best *Metrics, reason string) {
	if len(metrics) == 0 {
		return nil, "no candidates"
	}

	byRMSE := argmin(metrics, func(m *Metrics) float64 { return m.RMSE })
	byMAPE := argmin(metrics, func(m *Metrics) float64 { return m.MAPE })
	byWinkler := argmin(metrics, func(m *Metrics) float64 { return m.Winkler })
	byCRPS := argmin(metrics, func(m *Metrics) float64 { return m.CRPS })

	// Directional agreement: the RMSE winner also wins (or ties) the
	// distributional metrics.
	if byRMSE == byWinkler && byRMSE == byCRPS {
		return metrics[byRMSE], "lowest RMSE, confirmed by Winkler and CRPS"
	}
	if byRMSE == byMAPE {
		return metrics[byRMSE], "metrics conflict; lowest RMSE backed by lowest MAPE"
	}
	return metrics[byMAPE], "metrics conflict; MAPE used as tie-breaker"
}

func argmin(metrics []*Metrics, f func(*Metrics) float64) int {
	best := 0
	bestVal := math.Inf(1)
	for i, m := range metrics {
		if v := f(m); v < bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}
