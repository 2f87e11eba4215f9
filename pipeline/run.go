package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridcast/gridcast/autoarima"
	"github.com/gridcast/gridcast/dynreg"
	"github.com/gridcast/gridcast/ets"
	"github.com/gridcast/gridcast/eval"
	"github.com/gridcast/gridcast/grid"
	"github.com/gridcast/gridcast/sarima"
	"github.com/gridcast/gridcast/stats"
	"github.com/gridcast/gridcast/timeseries"
)

// RegressorColumns are the exogenous predictors of the dynamic regression.
// Coal is already dropped from the model frame; wind is the target.
var RegressorColumns = []string{
	grid.ColDemand, grid.ColNuclear, grid.ColCCGT,
	grid.ColPumped, grid.ColHydro, grid.ColTotalOther, grid.ColOutlier,
}

// FinalSARIMAOrder is the pinned order used for the full-series refit.
var FinalSARIMAOrder = sarima.Order{P: 1, D: 0, Q: 0, SP: 0, SD: 1, SQ: 1, M: 12}

// Diagnostics summarises the pre-modeling checks on the target series.
type Diagnostics struct {
	KPSS             *stats.KPSSResult
	ADF              *stats.ADFResult
	NDiffs           int
	NSDiffs          int
	SeasonalStrength float64
	SignificantACF   []int
	VIF              []stats.VIFResult
}

// Result carries everything a report needs from one run.
type Result struct {
	Daily       *timeseries.Frame
	Monthly     *timeseries.Frame
	ModelFrame  *timeseries.Frame
	OutlierIdx  int
	Diagnostics *Diagnostics
	Metrics     []*eval.Metrics
	Selected    string
	Reason      string
	Projections map[string]*timeseries.Forecast
}

// Runner executes the pipeline with structured progress logging.
type Runner struct {
	cfg *Config
	log *logrus.Logger
}

// NewRunner creates a runner; a nil logger falls back to the logrus
// standard logger.
func NewRunner(cfg *Config, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{cfg: cfg, log: log}
}

// Run executes the full pipeline: load, reduce, aggregate, diagnose, fit,
// evaluate, project, and write the snapshots and the forecast table.
func (r *Runner) Run() (*Result, error) {
	cfg := r.cfg

	r.log.WithField("path", cfg.InputPath).Info("loading raw feed")
	raw, err := LoadRaw(cfg)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	r.log.WithField("rows", raw.Len()).Info("raw feed loaded")

	result, err := r.Prepare(raw)
	if err != nil {
		return nil, err
	}

	if cfg.DailySnapshotPath != "" {
		if err := saveSnapshot(result.Daily, cfg.DailySnapshotPath, "2006-01-02"); err != nil {
			return nil, fmt.Errorf("daily snapshot: %w", err)
		}
	}
	if cfg.MonthlySnapshotPath != "" {
		if err := saveSnapshot(result.Monthly, cfg.MonthlySnapshotPath, "2006-01"); err != nil {
			return nil, fmt.Errorf("monthly snapshot: %w", err)
		}
	}

	if err := r.Model(result); err != nil {
		return nil, err
	}

	if cfg.ForecastPath != "" {
		if err := WriteForecastTable(cfg.ForecastPath, result.Projections); err != nil {
			return nil, fmt.Errorf("forecast table: %w", err)
		}
		r.log.WithField("path", cfg.ForecastPath).Info("forecast table written")
	}

	return result, nil
}

func saveSnapshot(frame *timeseries.Frame, path, layout string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return timeseries.SaveFrame(frame, path, layout)
}

// LoadRaw reads the configured input CSV, requiring the full generation
// column schema.
func LoadRaw(cfg *Config) (*timeseries.Frame, error) {
	opts := timeseries.DefaultCSVOptions()
	opts.Required = grid.RequiredColumns()
	return timeseries.LoadFrame(cfg.InputPath, opts)
}

// Prepare runs the data stages: reduce, aggregate daily and monthly, and
// build the model input frame.
func (r *Runner) Prepare(raw *timeseries.Frame) (*Result, error) {
	reduced, err := grid.Reduce(raw)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}

	daily, err := grid.Aggregate(reduced, grid.Daily)
	if err != nil {
		return nil, fmt.Errorf("daily aggregation: %w", err)
	}
	r.log.WithField("rows", daily.Len()).Info("daily aggregate built")

	monthly, err := grid.Aggregate(daily, grid.Monthly)
	if err != nil {
		return nil, fmt.Errorf("monthly aggregation: %w", err)
	}
	r.log.WithField("rows", monthly.Len()).Info("monthly aggregate built")

	// Missing-value propagation is surfaced, never zeroed: a NaN mean
	// would silently bias every model downstream.
	if bad := monthly.NaNColumns(); len(bad) > 0 {
		return nil, fmt.Errorf("monthly aggregate has all-missing periods in columns %v", bad)
	}

	modelFrame, outlierIdx, err := grid.BuildModelFrame(monthly, r.cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("model frame: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"period": modelFrame.Timestamps[outlierIdx].Format("2006-01"),
		"target": r.cfg.Target,
	}).Info("outlier marked at steepest drop")

	return &Result{
		Daily:      daily,
		Monthly:    monthly,
		ModelFrame: modelFrame,
		OutlierIdx: outlierIdx,
	}, nil
}

// Model runs diagnostics, the train/test comparison and the final
// projection, filling in the result.
func (r *Runner) Model(result *Result) error {
	cfg := r.cfg

	target, err := result.ModelFrame.Column(cfg.Target)
	if err != nil {
		return err
	}

	result.Diagnostics = r.Diagnose(result.ModelFrame, target)

	train, test := grid.Split(result.ModelFrame, cfg.CutoffYear)
	if train.Len() == 0 || test.Len() == 0 {
		return fmt.Errorf("cutoff year %d leaves an empty train or test window", cfg.CutoffYear)
	}
	r.log.WithFields(logrus.Fields{"train": train.Len(), "test": test.Len()}).Info("series split")

	trainTarget, err := train.Column(cfg.Target)
	if err != nil {
		return err
	}
	testTarget, err := test.Column(cfg.Target)
	if err != nil {
		return err
	}

	metrics := r.compareModels(train, test, trainTarget, testTarget.Values)
	if len(metrics) == 0 {
		return fmt.Errorf("no model produced a holdout forecast")
	}
	result.Metrics = metrics

	selected, reason := eval.Select(metrics)
	result.Selected = selected.Model
	result.Reason = reason
	r.log.WithFields(logrus.Fields{
		"model":  selected.Model,
		"rmse":   selected.RMSE,
		"mape":   selected.MAPE,
		"reason": reason,
	}).Info("holdout comparison decided")

	projections, err := r.Project(target)
	if err != nil {
		return err
	}
	result.Projections = projections
	return nil
}

// Diagnose runs the stationarity, differencing and collinearity checks.
// The verdicts inform the modeling choices; they do not gate the run.
func (r *Runner) Diagnose(frame *timeseries.Frame, target *timeseries.Series) *Diagnostics {
	cfg := r.cfg
	d := &Diagnostics{
		KPSS:             stats.KPSS(target, "c", 0),
		ADF:              stats.ADF(target, 0),
		NDiffs:           stats.NDiffs(target, 2, "kpss"),
		NSDiffs:          stats.NSDiffs(target, cfg.SeasonalPeriod, 1),
		SeasonalStrength: stats.SeasonalStrength(target, cfg.SeasonalPeriod),
	}
	if acf := stats.ACFWithConfidence(target, 2*cfg.SeasonalPeriod); acf != nil {
		d.SignificantACF = stats.SignificantLags(acf.Values, acf.ConfBound)
	}

	if d.KPSS != nil {
		r.log.WithFields(logrus.Fields{
			"statistic":  d.KPSS.Statistic,
			"stationary": d.KPSS.IsStationary,
		}).Info("KPSS test")
	}
	r.log.WithFields(logrus.Fields{
		"ndiffs": d.NDiffs, "nsdiffs": d.NSDiffs, "strength": d.SeasonalStrength,
	}).Info("differencing orders")

	predictors := map[string][]float64{}
	var names []string
	for _, name := range RegressorColumns {
		if name == grid.ColOutlier {
			continue // a binary indicator, not a collinearity candidate
		}
		if v, err := frame.ColumnValues(name); err == nil {
			predictors[name] = v
			names = append(names, name)
		}
	}
	if vif, err := stats.VIF(predictors, names, cfg.VIFThreshold); err == nil {
		d.VIF = vif
		for _, v := range vif {
			if v.Collinear {
				r.log.WithFields(logrus.Fields{"predictor": v.Name, "vif": v.VIF}).
					Warn("collinear predictor")
			}
		}
	}
	return d
}

// compareModels fits the bank on the training window and scores each model
// over the holdout. A model that fails to fit is logged and skipped; its
// siblings proceed.
func (r *Runner) compareModels(train, test *timeseries.Frame, trainTarget *timeseries.Series, actual []float64) []*eval.Metrics {
	cfg := r.cfg
	h := len(actual)
	var out []*eval.Metrics

	score := func(name string, fc *timeseries.Forecast) {
		m, err := eval.Evaluate(name, fc, actual)
		if err != nil {
			r.log.WithError(err).WithField("model", name).Error("holdout scoring failed")
			return
		}
		out = append(out, m)
		r.log.WithFields(logrus.Fields{
			"model": name, "rmse": m.RMSE, "mape": m.MAPE,
			"winkler": m.Winkler, "crps": m.CRPS,
		}).Info("holdout metrics")
	}

	if model, err := ets.FitAuto(trainTarget, cfg.SeasonalPeriod); err != nil {
		r.log.WithError(err).Error("ETS fit failed")
	} else if fc, err := model.Forecast(h, cfg.Confidence); err != nil {
		r.log.WithError(err).Error("ETS forecast failed")
	} else {
		r.log.WithField("form", model.Form).Info("ETS form selected")
		score("ets", fc)
	}

	if model, err := dynreg.Fit(train, cfg.Target, RegressorColumns, nil); err != nil {
		r.log.WithError(err).Error("dynamic regression fit failed")
	} else if fc, err := model.ForecastExog(test, cfg.Confidence); err != nil {
		// The holdout supplies realized regressors; failure here means the
		// test frame is malformed, not that the future is unknown.
		r.log.WithError(err).Error("dynamic regression forecast failed")
	} else {
		r.log.WithField("error_order", fmt.Sprintf("%+v", model.ErrorOrder)).
			Info("dynamic regression error process selected")
		score("dynreg", fc)
	}

	if search, err := autoarima.Search(trainTarget, autoarima.DefaultConfig(cfg.SeasonalPeriod)); err != nil {
		r.log.WithError(err).Error("SARIMA search failed")
	} else if fc, err := search.Model.Forecast(h, cfg.Confidence); err != nil {
		r.log.WithError(err).Error("SARIMA forecast failed")
	} else {
		r.log.WithFields(logrus.Fields{
			"order": fmt.Sprintf("%+v", search.Order), "evaluated": search.ModelsEvaluated,
		}).Info("SARIMA order selected")
		score("sarima", fc)
	}

	return out
}

// Project refits the refit-capable models on the full series and projects
// through the horizon end. The dynamic regression is deliberately absent:
// projecting it would need genuine future regressor values, and replaying
// stale history would only dress up that gap.
func (r *Runner) Project(target *timeseries.Series) (map[string]*timeseries.Forecast, error) {
	cfg := r.cfg

	end, err := cfg.HorizonEndTime()
	if err != nil {
		return nil, err
	}
	last := target.Timestamps[target.Len()-1]
	h := timeseries.MonthsBetween(last, end)
	if h < 1 {
		return nil, fmt.Errorf("horizon end %s is not after the last observation %s",
			cfg.HorizonEnd, last.Format("2006-01"))
	}
	r.log.WithFields(logrus.Fields{"horizon": h, "through": cfg.HorizonEnd}).Info("projecting")
	r.log.Warn("dynamic regression excluded from the projection: no future regressor data")

	projections := make(map[string]*timeseries.Forecast)

	etsModel, err := ets.FitAuto(target, cfg.SeasonalPeriod)
	if err != nil {
		return nil, fmt.Errorf("ETS refit: %w", err)
	}
	etsFC, err := etsModel.Forecast(h, cfg.Confidence)
	if err != nil {
		return nil, fmt.Errorf("ETS projection: %w", err)
	}
	projections["ets"] = etsFC

	o := FinalSARIMAOrder
	sarimaModel := sarima.New(o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
	if err := sarimaModel.Fit(target); err != nil {
		return nil, fmt.Errorf("SARIMA refit: %w", err)
	}
	sarimaFC, err := sarimaModel.Forecast(h, cfg.Confidence)
	if err != nil {
		return nil, fmt.Errorf("SARIMA projection: %w", err)
	}
	projections["sarima"] = sarimaFC

	return projections, nil
}

// HeadlineRow extracts one model's forecast row for an exact period, for
// the report's headline number.
func HeadlineRow(projections map[string]*timeseries.Forecast, model string, period time.Time) (point, lower, upper float64, err error) {
	fc, ok := projections[model]
	if !ok {
		return 0, 0, 0, fmt.Errorf("no projection for model %s", model)
	}
	idx := fc.At(period)
	if idx < 0 {
		return 0, 0, 0, fmt.Errorf("model %s projection does not cover %s", model, period.Format("2006-01"))
	}
	return fc.Mean[idx], fc.Lower[idx], fc.Upper[idx], nil
}
