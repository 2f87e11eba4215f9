// Package dynreg implements dynamic regression: ordinary least squares on
// exogenous regressors with the residual series modeled by an
// automatically selected ARIMA process.
//
// Forecasting requires future values of every regressor. The package never
// substitutes stale history for missing future rows; callers that cannot
// supply genuine future regressors must restrict this model to historical
// backtesting.
package dynreg

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gridcast/gridcast/autoarima"
	"github.com/gridcast/gridcast/sarima"
	"github.com/gridcast/gridcast/stats"
	"github.com/gridcast/gridcast/timeseries"
)

// Model represents a fitted dynamic regression.
type Model struct {
	Target     string
	Regressors []string
	Coeffs     []float64 // intercept first, then one per regressor
	Errors     *sarima.Model
	ErrorOrder sarima.Order
	IC         *stats.InformationCriteria

	fitted bool
	ols    *stats.OLSResult
}

// Config bounds the ARIMA search applied to the regression residuals.
type Config struct {
	MaxP, MaxD, MaxQ int
}

// DefaultConfig returns the default residual-search bounds.
func DefaultConfig() *Config {
	return &Config{MaxP: 3, MaxD: 2, MaxQ: 3}
}

// Fit regresses the target column of the frame on the named regressors and
// fits an ARIMA process to the residual series. A rank-deficient design
// matrix or a residual model that fails to converge is fatal for this
// model.
func Fit(frame *timeseries.Frame, target string, regressors []string, config *Config) (*Model, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if len(regressors) == 0 {
		return nil, errors.New("dynamic regression needs at least one regressor")
	}

	y, err := frame.ColumnValues(target)
	if err != nil {
		return nil, err
	}
	x, err := designMatrix(frame, regressors)
	if err != nil {
		return nil, err
	}
	for i, row := range x {
		if math.IsNaN(y[i]) {
			return nil, fmt.Errorf("missing %s value at row %d", target, i)
		}
		for _, v := range row {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("missing regressor value at row %d", i)
			}
		}
	}

	ols, err := stats.OLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("regression fit: %w", err)
	}

	residSeries := &timeseries.Series{
		Timestamps: append([]time.Time(nil), frame.Timestamps...),
		Values:     append([]float64(nil), ols.Residuals...),
		Name:       target + "_resid",
	}

	search, err := autoarima.Search(residSeries, &autoarima.Config{
		MaxP: config.MaxP, MaxD: config.MaxD, MaxQ: config.MaxQ,
		Criterion: "aicc", StationTest: "kpss",
	})
	if err != nil {
		return nil, fmt.Errorf("residual model: %w", err)
	}

	m := &Model{
		Target:     target,
		Regressors: append([]string(nil), regressors...),
		Coeffs:     ols.Coeffs,
		Errors:     search.Model,
		ErrorOrder: search.Order,
		IC:         search.Model.IC,
		ols:        ols,
		fitted:     true,
	}
	return m, nil
}

// ForecastExog projects the regression over explicitly supplied future
// regressor rows, adding the ARIMA forecast of the error process. Missing
// columns or NaN cells in the future frame are an error, never patched
// from history.
func (m *Model) ForecastExog(future *timeseries.Frame, confidence float64) (*timeseries.Forecast, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before forecasting")
	}
	if future == nil || future.Len() == 0 {
		return nil, errors.New("no future regressor rows supplied; dynamic regression cannot forecast without them")
	}

	x, err := designMatrix(future, m.Regressors)
	if err != nil {
		return nil, fmt.Errorf("future regressors: %w", err)
	}
	for i, row := range x {
		for _, v := range row {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("future regressors: missing value at row %d", i)
			}
		}
	}

	h := future.Len()
	errFC, err := m.Errors.Forecast(h, confidence)
	if err != nil {
		return nil, fmt.Errorf("error-process forecast: %w", err)
	}

	mean := make([]float64, h)
	lower := make([]float64, h)
	upper := make([]float64, h)
	for i, row := range x {
		reg := 0.0
		for j, c := range m.Coeffs {
			reg += c * row[j]
		}
		mean[i] = reg + errFC.Mean[i]
		lower[i] = reg + errFC.Lower[i]
		upper[i] = reg + errFC.Upper[i]
	}

	periods := append([]time.Time(nil), future.Timestamps...)

	return &timeseries.Forecast{
		Periods: periods,
		Mean:    mean,
		Lower:   lower,
		Upper:   upper,
		Level:   errFC.Level,
	}, nil
}

// Residuals returns the residuals of the error process after the ARIMA
// stage.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return m.Errors.Residuals()
}

// RegressionResiduals returns the raw OLS residual series.
func (m *Model) RegressionResiduals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.ols.Residuals))
	copy(out, m.ols.Residuals)
	return out
}

func designMatrix(frame *timeseries.Frame, regressors []string) ([][]float64, error) {
	cols := make([][]float64, len(regressors))
	for i, name := range regressors {
		v, err := frame.ColumnValues(name)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	x := make([][]float64, frame.Len())
	for i := range x {
		row := make([]float64, 1+len(regressors))
		row[0] = 1
		for j, col := range cols {
			row[1+j] = col[i]
		}
		x[i] = row
	}
	return x, nil
}
