// Package stats provides the statistical tests and diagnostics behind the
// grid report: stationarity tests, differencing-order heuristics,
// autocorrelation analysis, classical decomposition, residual tests and the
// collinearity check.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OLSResult holds an ordinary least squares fit.
type OLSResult struct {
	Coeffs    []float64
	StdErrors []float64
	Residuals []float64
	Fitted    []float64
	RSquared  float64
	Sigma2    float64 // residual variance, SSE/(n-k)
}

// OLS regresses y on the columns of x (one row per observation) using a QR
// solve. Returns an error for a rank-deficient design matrix.
func OLS(x [][]float64, y []float64) (*OLSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, errors.New("design matrix and response must have equal, non-zero length")
	}
	k := len(x[0])
	if k == 0 || n <= k {
		return nil, errors.New("not enough observations for the number of regressors")
	}

	X := mat.NewDense(n, k, nil)
	for i, row := range x {
		if len(row) != k {
			return nil, errors.New("ragged design matrix")
		}
		X.SetRow(i, row)
	}
	Y := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(X)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, Y); err != nil {
		return nil, errors.New("rank-deficient design matrix")
	}

	coeffs := make([]float64, k)
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i)
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	sse := 0.0
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)
	tss := 0.0

	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < k; j++ {
			pred += coeffs[j] * x[i][j]
		}
		fitted[i] = pred
		residuals[i] = y[i] - pred
		sse += residuals[i] * residuals[i]
		d := y[i] - meanY
		tss += d * d
	}

	sigma2 := sse / float64(n-k)

	// (X'X)^-1 for the coefficient covariance.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	stdErrors := make([]float64, k)
	if err := xtxInv.Inverse(&xtx); err == nil {
		for i := 0; i < k; i++ {
			stdErrors[i] = math.Sqrt(sigma2 * xtxInv.At(i, i))
		}
	} else {
		for i := range stdErrors {
			stdErrors[i] = math.NaN()
		}
	}

	r2 := 0.0
	if tss > 0 {
		r2 = 1 - sse/tss
	}

	return &OLSResult{
		Coeffs:    coeffs,
		StdErrors: stdErrors,
		Residuals: residuals,
		Fitted:    fitted,
		RSquared:  r2,
		Sigma2:    sigma2,
	}, nil
}
