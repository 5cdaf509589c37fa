package main

import (
	"github.com/montekkundan/newsapi/internal/loadtest"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) newBenchCommand() *cobra.Command {
	var mode, planPath, outputPath string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Replay a request plan against the API and print latency percentiles",
		Long: `Replay the requests of a plan file against the API and print latency percentiles.

Supported modes:
  serial                 keep the delays between request timestamps
  serial-without-delays  send requests one after another
  parallel               send requests concurrently (see --concurrency)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bench := a.cfg.Bench
			if mode != "" {
				bench.Mode = loadtest.Mode(mode)
			}
			if planPath != "" {
				bench.PlanPath = planPath
			}
			if outputPath != "" {
				bench.OutputPath = outputPath
			}
			if concurrency > 0 {
				bench.Concurrency = concurrency
			}

			plan, err := loadtest.LoadPlan(bench.PlanPath)
			if err != nil {
				return errors.Wrap(err, "plan cannot be loaded")
			}

			processor := loadtest.New(loadtest.Config{
				Mode:        bench.Mode,
				Concurrency: bench.Concurrency,
			}, a.client(), a.logger)

			err = processor.Process(cmd.Context(), plan)
			if err != nil {
				return errors.Wrap(err, "bench failed")
			}

			err = plan.Export(bench.OutputPath)
			if err != nil {
				return errors.Wrap(err, "failed to export results")
			}

			loadtest.NewAggregator(plan.Requests).PrintPercentiles(cmd.OutOrStdout(), bench.Percentiles)

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "serial, serial-without-delays or parallel (overrides bench.mode)")
	cmd.Flags().StringVar(&planPath, "plan", "", "request plan file (overrides bench.plan_path)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "results file (overrides bench.output_path)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel mode concurrency (overrides bench.concurrency)")

	return cmd
}
