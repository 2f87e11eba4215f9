package stats

import (
	"fmt"
	"math"
)

// DefaultVIFThreshold is the variance-inflation-factor level above which a
// predictor is flagged as collinear.
const DefaultVIFThreshold = 5.0

// VIFResult holds the collinearity diagnostics for one candidate predictor.
type VIFResult struct {
	Name      string
	VIF       float64
	Collinear bool
}

// VIF computes the variance inflation factor for each named predictor by
// regressing it on the remaining predictors (with an intercept):
// VIF = 1/(1-R^2). Predictors above threshold are flagged. A perfect linear
// dependence yields +Inf.
func VIF(predictors map[string][]float64, names []string, threshold float64) ([]VIFResult, error) {
	if threshold <= 0 {
		threshold = DefaultVIFThreshold
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("need at least two predictors for a collinearity check")
	}

	n := -1
	for _, name := range names {
		col, ok := predictors[name]
		if !ok {
			return nil, fmt.Errorf("missing predictor %s", name)
		}
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("predictor %s has %d rows, expected %d", name, len(col), n)
		}
	}

	results := make([]VIFResult, 0, len(names))
	for _, target := range names {
		y := predictors[target]

		x := make([][]float64, n)
		for i := range x {
			row := make([]float64, 0, len(names))
			row = append(row, 1)
			for _, other := range names {
				if other == target {
					continue
				}
				row = append(row, predictors[other][i])
			}
			x[i] = row
		}

		fit, err := OLS(x, y)
		var vif float64
		switch {
		case err != nil:
			// Rank deficiency means exact collinearity.
			vif = math.Inf(1)
		case fit.RSquared >= 1:
			vif = math.Inf(1)
		default:
			vif = 1 / (1 - fit.RSquared)
		}

		results = append(results, VIFResult{
			Name:      target,
			VIF:       vif,
			Collinear: vif > threshold,
		})
	}
	return results, nil
}

// MaxVIF returns the largest VIF in a result set and the predictor that
// carries it.
func MaxVIF(results []VIFResult) (string, float64) {
	name := ""
	max := math.Inf(-1)
	for _, r := range results {
		if r.VIF > max {
			max = r.VIF
			name = r.Name
		}
	}
	return name, max
}
