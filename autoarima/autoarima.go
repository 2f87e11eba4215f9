// Package autoarima implements automatic SARIMA order selection by a
// stepwise search minimising an information criterion, with differencing
// orders decided by unit-root and seasonal-strength heuristics.
package autoarima

import (
	"errors"
	"math"

	"github.com/gridcast/gridcast/sarima"
	"github.com/gridcast/gridcast/stats"
	"github.com/gridcast/gridcast/timeseries"
)

// Config holds the search bounds and selection criterion.
type Config struct {
	MaxP, MaxD, MaxQ    int
	MaxSP, MaxSD, MaxSQ int
	SeasonalM           int    // seasonal period; 0 disables the seasonal part
	Criterion           string // "aic", "aicc" (default) or "bic"
	StationTest         string // "kpss" (default) or "adf"
}

// DefaultConfig returns the default search configuration for a seasonal
// period m.
func DefaultConfig(m int) *Config {
	return &Config{
		MaxP: 5, MaxD: 2, MaxQ: 5,
		MaxSP: 2, MaxSD: 1, MaxSQ: 2,
		SeasonalM:   m,
		Criterion:   "aicc",
		StationTest: "kpss",
	}
}

// Result represents the outcome of an order search.
type Result struct {
	Model           *sarima.Model
	Order           sarima.Order
	Criterion       float64
	ModelsEvaluated int
}

// SelectOrder runs the full search and returns only the selected order.
// This is the abstract order-selection boundary the pipeline depends on;
// the stepwise search below is one implementation of it.
func SelectOrder(series *timeseries.Series, m int) (sarima.Order, error) {
	result, err := Search(series, DefaultConfig(m))
	if err != nil {
		return sarima.Order{}, err
	}
	return result.Order, nil
}

// Search determines the differencing orders, then walks the (p,q)(P,Q)
// neighbourhood stepwise from a handful of starting shapes, keeping the
// model with the lowest criterion value.
func Search(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig(0)
	}

	d := stats.NDiffs(series, config.MaxD, config.StationTest)
	sd := 0
	if config.SeasonalM > 1 {
		sd = stats.NSDiffs(series, config.SeasonalM, config.MaxSD)
	}

	type spec struct{ p, q, sp, sq int }

	criterion := func(model *sarima.Model) float64 {
		switch config.Criterion {
		case "bic":
			return model.IC.BIC
		case "aic":
			return model.IC.AIC
		default:
			return model.IC.AICc
		}
	}

	inBounds := func(s spec) bool {
		if s.p < 0 || s.p > config.MaxP || s.q < 0 || s.q > config.MaxQ {
			return false
		}
		if s.sp < 0 || s.sp > config.MaxSP || s.sq < 0 || s.sq > config.MaxSQ {
			return false
		}
		if config.SeasonalM <= 1 && (s.sp > 0 || s.sq > 0) {
			return false
		}
		return true
	}

	evaluated := 0
	tried := map[spec]bool{}
	fit := func(s spec) *sarima.Model {
		if tried[s] {
			return nil
		}
		tried[s] = true
		model := sarima.New(s.p, d, s.q, s.sp, sd, s.sq, config.SeasonalM)
		if err := model.Fit(series); err != nil {
			return nil
		}
		evaluated++
		return model
	}

	start := []spec{
		{0, 0, 0, 0},
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{1, 1, 1, 1},
		{2, 2, 1, 1},
	}

	var best *sarima.Model
	bestSpec := spec{}
	bestCrit := math.Inf(1)

	for _, s := range start {
		if !inBounds(s) {
			continue
		}
		model := fit(s)
		if model == nil {
			continue
		}
		if c := criterion(model); c < bestCrit {
			bestCrit = c
			bestSpec = s
			best = model
		}
	}

	improved := best != nil
	for improved {
		improved = false
		neighbors := []spec{
			{bestSpec.p + 1, bestSpec.q, bestSpec.sp, bestSpec.sq},
			{bestSpec.p - 1, bestSpec.q, bestSpec.sp, bestSpec.sq},
			{bestSpec.p, bestSpec.q + 1, bestSpec.sp, bestSpec.sq},
			{bestSpec.p, bestSpec.q - 1, bestSpec.sp, bestSpec.sq},
			{bestSpec.p, bestSpec.q, bestSpec.sp + 1, bestSpec.sq},
			{bestSpec.p, bestSpec.q, bestSpec.sp - 1, bestSpec.sq},
			{bestSpec.p, bestSpec.q, bestSpec.sp, bestSpec.sq + 1},
			{bestSpec.p, bestSpec.q, bestSpec.sp, bestSpec.sq - 1},
			{bestSpec.p + 1, bestSpec.q + 1, bestSpec.sp, bestSpec.sq},
			{bestSpec.p - 1, bestSpec.q - 1, bestSpec.sp, bestSpec.sq},
		}
		for _, s := range neighbors {
			if !inBounds(s) {
				continue
			}
			model := fit(s)
			if model == nil {
				continue
			}
			if c := criterion(model); c < bestCrit {
				bestCrit = c
				bestSpec = s
				best = model
				improved = true
			}
		}
	}

	if best == nil {
		return nil, errors.New("no SARIMA candidate converged")
	}

	return &Result{
		Model:           best,
		Order:           best.Order,
		Criterion:       bestCrit,
		ModelsEvaluated: evaluated,
	}, nil
}
