package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"falcon-dash/internal/backtest"
	"falcon-dash/internal/launches"
	"falcon-dash/internal/ml"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	evalOutput  string
	evalSites   []string
	evalOrbits  []string
	evalOutcome string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the model against the historical launch dataset",
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalOutput, "output", "", "Directory for report files; empty prints the summary only")
	f.StringSliceVar(&evalSites, "site", nil, "Only evaluate these launch sites")
	f.StringSliceVar(&evalOrbits, "orbit", nil, "Only evaluate these orbits")
	f.StringVar(&evalOutcome, "outcome", string(launches.OutcomeAll), "all, success or failure")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataset, err := launches.LoadCSV(settings.DatasetPath)
	if err != nil {
		return err
	}

	loader := ml.NewLoader(artifactPaths(settings), nil)
	defer loader.Close()

	filter := launches.Filter{
		Sites:   evalSites,
		Orbits:  evalOrbits,
		Outcome: launches.Outcome(evalOutcome),
	}
	results, err := backtest.NewEngine(ml.NewPredictor(loader, nil), dataset).Run(ctx, filter)
	if err != nil {
		return err
	}

	reporter := backtest.NewReporter(results, evalOutput)
	if evalOutput != "" {
		if err := reporter.GenerateReport(); err != nil {
			return err
		}
		log.Info().Str("output", evalOutput).Msg("Evaluation reports written")
	}
	reporter.PrintSummary(cmd.OutOrStdout())
	return nil
}
