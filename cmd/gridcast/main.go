// Command gridcast runs the grid generation analysis: it loads the
// 5-minute feed, aggregates it to monthly means, fits the model bank and
// projects the target series through the configured horizon.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridcast/gridcast/pipeline"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "gridcast",
		Short:         "Forecast national grid generation from the 5-minute feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults apply when omitted)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(runCmd(), diagnoseCmd(), forecastCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func setup() (*pipeline.Config, *logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		loaded, err := pipeline.LoadConfig(configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	return cfg, log, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: aggregate, diagnose, fit, evaluate and project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			result, err := pipeline.NewRunner(cfg, log).Run()
			if err != nil {
				return err
			}

			fmt.Printf("selected model: %s (%s)\n", result.Selected, result.Reason)
			end, err := cfg.HorizonEndTime()
			if err != nil {
				return err
			}
			for _, name := range []string{"ets", "sarima"} {
				point, lower, upper, err := pipeline.HeadlineRow(result.Projections, name, end)
				if err != nil {
					continue
				}
				fmt.Printf("%s %s: %.1f [%.1f, %.1f]\n", cfg.HorizonEnd, name, point, lower, upper)
			}
			return nil
		},
	}
}

func diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Run the data stages and print the stationarity and collinearity checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(cfg, log)

			raw, err := pipeline.LoadRaw(cfg)
			if err != nil {
				return err
			}
			result, err := runner.Prepare(raw)
			if err != nil {
				return err
			}
			target, err := result.ModelFrame.Column(cfg.Target)
			if err != nil {
				return err
			}
			d := runner.Diagnose(result.ModelFrame, target)

			if d.KPSS != nil {
				fmt.Printf("KPSS: statistic %.4f, p %.3f, stationary %v\n",
					d.KPSS.Statistic, d.KPSS.PValue, d.KPSS.IsStationary)
			}
			if d.ADF != nil {
				fmt.Printf("ADF: statistic %.4f, p %.3f, stationary %v\n",
					d.ADF.Statistic, d.ADF.PValue, d.ADF.IsStationary)
			}
			fmt.Printf("suggested differencing: d=%d, D=%d (seasonal strength %.3f)\n",
				d.NDiffs, d.NSDiffs, d.SeasonalStrength)
			fmt.Printf("significant ACF lags: %v\n", d.SignificantACF)
			for _, v := range d.VIF {
				flag := ""
				if v.Collinear {
					flag = "  <- collinear"
				}
				fmt.Printf("VIF %-12s %8.2f%s\n", v.Name, v.VIF, flag)
			}
			return nil
		},
	}
}

func forecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Refit on the full series and write the projection table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(cfg, log)

			raw, err := pipeline.LoadRaw(cfg)
			if err != nil {
				return err
			}
			result, err := runner.Prepare(raw)
			if err != nil {
				return err
			}
			target, err := result.ModelFrame.Column(cfg.Target)
			if err != nil {
				return err
			}
			projections, err := runner.Project(target)
			if err != nil {
				return err
			}
			if err := pipeline.WriteForecastTable(cfg.ForecastPath, projections); err != nil {
				return err
			}
			fmt.Printf("forecast table written to %s\n", cfg.ForecastPath)
			return nil
		},
	}
}
