package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"falcon-dash/internal/dashboard"
	"falcon-dash/internal/launches"
	"falcon-dash/internal/metrics"
	"falcon-dash/internal/ml"
	"falcon-dash/internal/spacex"
	"falcon-dash/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	servePort          int
	serveFetchInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form and historical dashboard",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config)")
	serveCmd.Flags().DurationVar(&serveFetchInterval, "fetch-interval", 0, "Also refresh the launch snapshot at this interval; 0 disables")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort > 0 {
		settings.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mw := metrics.NewWrapper(metrics.New())

	loader := ml.NewLoader(artifactPaths(settings), mw)
	defer loader.Close()
	predictor := ml.NewPredictor(loader, mw)

	// Loaded eagerly only to report problems at startup; requests retry.
	if a, err := loader.Get(); err != nil {
		log.Warn().Err(err).Msg("Model unavailable, predictions will fail until artifacts load")
	} else {
		log.Info().
			Strs("top_features", ml.TopFeatures(a, 3)).
			Msg("Model ready")
	}

	dataset, err := launches.LoadCSV(settings.DatasetPath)
	if err != nil {
		log.Warn().Err(err).Str("path", settings.DatasetPath).Msg("Historical dataset unavailable, dashboard will be empty")
		dataset = launches.NewDataset(nil)
	}

	cfg := dashboard.Config{
		Port:      settings.Port,
		DataPath:  settings.DataPath,
		Predictor: predictor,
		Models:    loader,
		Dataset:   dataset,
		Metrics:   mw,
		Gatherer:  prometheus.DefaultGatherer,
	}

	predictions, err := storage.NewPredictionLog(settings.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("Prediction log unavailable, continuing without persistence")
	} else {
		defer predictions.Close()
		cfg.Predictions = predictions
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dashboard.New(cfg).Run(gctx)
	})
	if serveFetchInterval > 0 {
		client := spacex.NewClient(settings.SpaceXAPIURL, settings.RESTTimeout, mw)
		g.Go(func() error {
			return fetchLoop(gctx, client, serveFetchInterval)
		})
	}
	return g.Wait()
}
