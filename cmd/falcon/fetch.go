package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"falcon-dash/internal/metrics"
	"falcon-dash/internal/spacex"
	"falcon-dash/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	fetchInterval time.Duration
	fetchExport   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download launch records from the SpaceX API into the local snapshot",
	Long: `Fetches every launch from the SpaceX v4 API and replaces the snapshot
stored under the data path. With --interval it keeps refreshing until
interrupted.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().DurationVar(&fetchInterval, "interval", 0, "Refresh interval; 0 fetches once")
	fetchCmd.Flags().StringVar(&fetchExport, "export", "", "Also write the records as a JSON file (overrides config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchExport != "" {
		settings.ExportPath = fetchExport
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := spacex.NewClient(settings.SpaceXAPIURL, settings.RESTTimeout, metrics.NewWrapper(metrics.New()))

	if fetchInterval <= 0 {
		return fetchOnce(ctx, client)
	}
	return fetchLoop(ctx, client, fetchInterval)
}

// fetchLoop refreshes the snapshot every interval until ctx is done. A
// failed fetch keeps the previous snapshot.
func fetchLoop(ctx context.Context, client *spacex.Client, interval time.Duration) error {
	if err := fetchOnce(ctx, client); err != nil {
		log.Error().Err(err).Msg("Launch fetch failed, retrying at the next interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Fetch loop stopped")
			return nil
		case <-ticker.C:
			if err := fetchOnce(ctx, client); err != nil {
				log.Error().Err(err).Msg("Launch fetch failed, keeping previous snapshot")
			}
		}
	}
}

// fetchOnce replaces the snapshot. The store is only held open while
// writing so the dashboard can read between fetches.
func fetchOnce(ctx context.Context, client *spacex.Client) error {
	records, err := client.GetLaunches(ctx)
	if err != nil {
		return err
	}

	store, err := storage.New(settings.DataPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveSnapshot(records, time.Now()); err != nil {
		return err
	}
	log.Info().
		Int("records", len(records)).
		Str("data_path", settings.DataPath).
		Msg("Launch snapshot saved")

	if settings.ExportPath != "" {
		if err := store.ExportJSON(settings.ExportPath); err != nil {
			return err
		}
		log.Info().Str("file", settings.ExportPath).Msg("Launch records exported")
	}
	return nil
}
