package dynreg

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridcast/gridcast/timeseries"
)

func noise(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64((*seed>>33)%1000)/1000.0 - 0.5
}

// syntheticFrame builds a frame with two regressors and a target that is a
// known linear combination of them plus an AR(1) error.
func syntheticFrame(t *testing.T, n int, seed uint64) *timeseries.Frame {
	t.Helper()
	timestamps := make([]time.Time, n)
	base := time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, i, 0)
	}

	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	e := 0.0
	for i := 0; i < n; i++ {
		x1[i] = 10 + 5*noise(&seed)
		x2[i] = 3*math.Sin(2*math.Pi*float64(i)/12) + noise(&seed)
		e = 0.5*e + 0.3*noise(&seed)
		y[i] = 2 + 3*x1[i] - 1.5*x2[i] + e
	}

	f := timeseries.NewFrame(timestamps)
	require.NoError(t, f.AddColumn("x1", x1))
	require.NoError(t, f.AddColumn("x2", x2))
	require.NoError(t, f.AddColumn("y", y))
	return f
}

func TestFitRecoversCoefficients(t *testing.T) {
	frame := syntheticFrame(t, 150, 1)

	model, err := Fit(frame, "y", []string{"x1", "x2"}, nil)
	require.NoError(t, err)

	require.InDelta(t, 2.0, model.Coeffs[0], 0.5, "intercept")
	require.InDelta(t, 3.0, model.Coeffs[1], 0.1, "x1 coefficient")
	require.InDelta(t, -1.5, model.Coeffs[2], 0.15, "x2 coefficient")
	require.NotNil(t, model.Errors, "residual ARIMA should be fitted")
	require.NotNil(t, model.IC)
}

func TestFitRejectsMissingValues(t *testing.T) {
	frame := syntheticFrame(t, 60, 2)
	x1, err := frame.ColumnValues("x1")
	require.NoError(t, err)
	x1[10] = math.NaN()

	_, err = Fit(frame, "y", []string{"x1", "x2"}, nil)
	require.Error(t, err)
}

func TestForecastExogMatchesRegression(t *testing.T) {
	frame := syntheticFrame(t, 150, 3)
	train := frame.SliceRows(0, 126)
	future := frame.SliceRows(126, 150)

	model, err := Fit(train, "y", []string{"x1", "x2"}, nil)
	require.NoError(t, err)

	fc, err := model.ForecastExog(future, 0.95)
	require.NoError(t, err)
	require.Equal(t, 24, fc.Len())
	require.Equal(t, future.Timestamps[0], fc.Periods[0])

	actual, err := future.ColumnValues("y")
	require.NoError(t, err)
	for i := range actual {
		require.InDelta(t, actual[i], fc.Mean[i], 2.0)
		require.Less(t, fc.Lower[i], fc.Upper[i])
	}
}

func TestForecastExogRequiresFutureRows(t *testing.T) {
	frame := syntheticFrame(t, 120, 4)
	model, err := Fit(frame, "y", []string{"x1", "x2"}, nil)
	require.NoError(t, err)

	_, err = model.ForecastExog(nil, 0.95)
	require.ErrorContains(t, err, "no future regressor rows")

	empty := timeseries.NewFrame(nil)
	_, err = model.ForecastExog(empty, 0.95)
	require.ErrorContains(t, err, "no future regressor rows")
}

func TestForecastExogRejectsNaNFuture(t *testing.T) {
	frame := syntheticFrame(t, 150, 5)
	train := frame.SliceRows(0, 138)
	future := frame.SliceRows(138, 150)

	model, err := Fit(train, "y", []string{"x1", "x2"}, nil)
	require.NoError(t, err)

	x1, err := future.ColumnValues("x1")
	require.NoError(t, err)
	x1[3] = math.NaN()

	_, err = model.ForecastExog(future, 0.95)
	require.ErrorContains(t, err, "missing value")
}

func TestFitNeedsRegressors(t *testing.T) {
	frame := syntheticFrame(t, 60, 6)
	_, err := Fit(frame, "y", nil, nil)
	require.Error(t, err)
}
