package sarima

import (
	"math"
	"testing"

	"github.com/gridcast/gridcast/timeseries"
)

func noise(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64((*seed>>33)%1000)/1000.0 - 0.5
}

func TestARIMAFitAR1(t *testing.T) {
	n := 300
	phi := 0.7
	seed := uint64(1)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + noise(&seed)
	}
	series := timeseries.New(values)

	model := NewARIMA(1, 0, 0)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// CSS with gradient refinement lands near the true coefficient.
	if model.ARCoeffs[0] < 0.4 || model.ARCoeffs[0] > 0.95 {
		t.Errorf("AR coefficient = %f, want near %f", model.ARCoeffs[0], phi)
	}
	if model.Variance <= 0 {
		t.Errorf("variance = %f, want positive", model.Variance)
	}
	if model.IC == nil || math.IsNaN(model.IC.AICc) {
		t.Error("information criteria should be populated after Fit")
	}
}

func TestFitRejectsNaN(t *testing.T) {
	values := make([]float64, 60)
	values[30] = math.NaN()
	model := NewARIMA(1, 0, 0)
	if err := model.Fit(timeseries.New(values)); err == nil {
		t.Error("expected an error for a series with missing values")
	}
}

func TestFitRejectsShortSeries(t *testing.T) {
	model := New(1, 0, 0, 0, 1, 1, 12)
	if err := model.Fit(timeseries.New(make([]float64, 20))); err == nil {
		t.Error("expected an error for too little data")
	}
}

func TestRandomWalkForecastIsFlatAfterDifferencing(t *testing.T) {
	n := 150
	seed := uint64(2)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + noise(&seed)
	}
	series := timeseries.New(values)

	model := NewARIMA(0, 1, 0)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	fc, err := model.Forecast(10, 0.95)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	last := values[n-1]
	// ARIMA(0,1,0) forecasts drift from the mean difference, which is near
	// zero here, so the level stays close to the last observation.
	for h := 0; h < 10; h++ {
		if math.Abs(fc.Mean[h]-last) > 1.0 {
			t.Errorf("forecast[%d] = %f, want near last value %f", h, fc.Mean[h], last)
		}
	}
	// Intervals widen with the horizon after integration.
	if fc.Upper[9]-fc.Lower[9] <= fc.Upper[0]-fc.Lower[0] {
		t.Error("interval width should grow with the horizon for d=1")
	}
}

func TestDoubleDifferencedForecastContinuesQuadratic(t *testing.T) {
	// A quadratic has a constant second difference, so an ARIMA(0,2,0)
	// forecast must continue the quadratic exactly. Anchoring the inner
	// integration pass at the last level instead of the last first
	// difference would inflate every step by roughly one whole level.
	n := 50
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i * i)
	}
	series := timeseries.New(values)

	model := NewARIMA(0, 2, 0)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	forecasts, err := model.Predict(3)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	for h, want := range []float64{float64(n * n), float64((n + 1) * (n + 1)), float64((n + 2) * (n + 2))} {
		if math.Abs(forecasts[h]-want) > 1e-6 {
			t.Errorf("forecast[%d] = %f, want %f", h, forecasts[h], want)
		}
	}
}

func TestIntegrateSurfacesSeasonalError(t *testing.T) {
	// A history shorter than the seasonal period cannot seed the seasonal
	// inversion; the error must reach the caller rather than yielding
	// forecasts on the differenced scale.
	model := New(0, 0, 0, 0, 1, 1, 12)
	model.data = timeseries.New([]float64{1, 2, 3})

	if _, err := model.integrate([]float64{0.5, 0.7}); err == nil {
		t.Error("expected an error when the seasonal inversion cannot be seeded")
	}
}

func TestSeasonalFitAndForecast(t *testing.T) {
	n := 144
	m := 12
	seed := uint64(3)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 20 + 0.05*float64(i) + 8*math.Sin(2*math.Pi*float64(i)/float64(m)) + 0.5*noise(&seed)
	}
	series := timeseries.New(values)

	model := New(1, 0, 0, 0, 1, 1, m)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	fc, err := model.Forecast(m, 0.95)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if fc.Len() != m {
		t.Fatalf("forecast length = %d, want %d", fc.Len(), m)
	}
	for h := 0; h < m; h++ {
		if math.IsNaN(fc.Mean[h]) {
			t.Fatalf("forecast[%d] is NaN", h)
		}
		if !(fc.Lower[h] < fc.Mean[h] && fc.Mean[h] < fc.Upper[h]) {
			t.Errorf("interval ordering violated at %d: [%f, %f, %f]",
				h, fc.Lower[h], fc.Mean[h], fc.Upper[h])
		}
	}

	// The seasonal shape should survive integration: the forecast repeats
	// last year's pattern approximately.
	for h := 0; h < m; h++ {
		lastYear := values[n-m+h]
		if math.Abs(fc.Mean[h]-lastYear) > 6 {
			t.Errorf("forecast[%d] = %f, want near the same month last year %f", h, fc.Mean[h], lastYear)
		}
	}
}

func TestForecastBeforeFit(t *testing.T) {
	model := NewARIMA(1, 0, 0)
	if _, err := model.Forecast(5, 0.95); err == nil {
		t.Error("expected an error before Fit")
	}
}

func TestForecastPeriodsAreMonthly(t *testing.T) {
	n := 60
	seed := uint64(4)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = 0.5*values[i-1] + noise(&seed)
	}
	series := timeseries.New(values) // monthly timestamps from 2000-01

	model := NewARIMA(1, 0, 0)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	fc, err := model.Forecast(3, 0.95)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(fc.Periods) != 3 {
		t.Fatalf("periods length = %d, want 3", len(fc.Periods))
	}
	last := series.Timestamps[n-1]
	if !fc.Periods[0].Equal(last.AddDate(0, 1, 0)) {
		t.Errorf("first period = %s, want one month after %s", fc.Periods[0], last)
	}
}

func TestSummary(t *testing.T) {
	n := 120
	seed := uint64(5)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = 0.6*values[i-1] + noise(&seed)
	}

	model := NewARIMA(1, 0, 0)
	if model.Summary() != nil {
		t.Error("Summary before Fit should be nil")
	}
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	s := model.Summary()
	if s == nil {
		t.Fatal("Summary returned nil after Fit")
	}
	if s.LjungBox == nil {
		t.Error("Summary should include the Ljung-Box residual test")
	}
	if s.NObs != n {
		t.Errorf("NObs = %d, want %d", s.NObs, n)
	}
}

func TestNewZeroesSeasonalPartWithoutPeriod(t *testing.T) {
	model := New(1, 0, 1, 2, 1, 2, 0)
	o := model.Order
	if o.SP != 0 || o.SD != 0 || o.SQ != 0 || o.M != 0 {
		t.Errorf("seasonal orders should be zeroed when m=0, got %+v", o)
	}
}
