// Package gridcast analyzes and forecasts national electricity-grid
// generation from the 5-minute feed. It reduces the raw feed to the major
// generation sources, aggregates to daily and monthly means, and fits a
// bank of monthly forecasting models with a chronological holdout.
//
// # Pipeline
//
// A run walks the stages in order:
//
//   - load the raw feed and fold the minor sources and interconnects into
//     a single total_other column
//   - aggregate to daily, then monthly means (a calendar gap is fatal)
//   - mark the single worst month-on-month drop in the target with a
//     binary outlier indicator and drop the coal column
//   - run the stationarity, differencing and collinearity diagnostics
//   - fit exponential smoothing, dynamic regression with ARIMA errors and
//     an automatically selected SARIMA on the pre-cutoff window
//   - score each model on the holdout with ME, RMSE, MPE, MAPE, the
//     Winkler interval score and CRPS
//   - refit the refit-capable models on the full series and project
//     through the configured horizon
//
// # Packages
//
//   - timeseries: series, frame and forecast containers plus CSV I/O
//   - grid: feed reduction, calendar aggregation and the train/test split
//   - stats: stationarity tests, ACF/PACF, decomposition, VIF, Ljung-Box
//   - sarima: seasonal ARIMA estimated by conditional sum of squares
//   - autoarima: stepwise SARIMA order selection
//   - ets: exponential-smoothing state-space models
//   - dynreg: regression with ARIMA errors over exogenous regressors
//   - eval: holdout metrics and the model-selection policy
//   - pipeline: stage orchestration, configuration and reporting
//
// The cmd/gridcast command exposes the pipeline as a CLI.
package gridcast
