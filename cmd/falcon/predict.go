package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"falcon-dash/internal/common"
	"falcon-dash/internal/features"
	"falcon-dash/internal/ml"

	"github.com/spf13/cobra"
)

var (
	predictInput string
	predictLaunch = features.RawLaunch{
		FlightNumber:   common.DefaultFlightNumber,
		PayloadMass:    common.DefaultPayloadMass,
		Flights:        common.DefaultFlights,
		Orbit:          common.OrbitCodes[0],
		LaunchSiteName: common.LaunchSites[0],
	}
	predictGridFins, predictReused, predictLegs bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the landing outcome of one launch",
	Long: `Predicts whether the first stage lands for the launch described by the
flags, or by a JSON document given with --input ("-" reads stdin).`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictInput, "input", "", "JSON launch file, - for stdin")
	f.IntVar(&predictLaunch.FlightNumber, "flight-number", predictLaunch.FlightNumber, "Flight number")
	f.Float64Var(&predictLaunch.PayloadMass, "payload-mass", predictLaunch.PayloadMass, "Payload mass in kg")
	f.IntVar(&predictLaunch.Flights, "flights", predictLaunch.Flights, "Previous flights of the booster")
	f.StringVar(&predictLaunch.Orbit, "orbit", predictLaunch.Orbit, "Target orbit")
	f.StringVar(&predictLaunch.LaunchSiteName, "site", predictLaunch.LaunchSiteName, "Launch site")
	f.BoolVar(&predictGridFins, "grid-fins", true, "Grid fins fitted")
	f.BoolVar(&predictReused, "reused", false, "Booster reused")
	f.BoolVar(&predictLegs, "legs", true, "Landing legs fitted")
}

func runPredict(cmd *cobra.Command, args []string) error {
	raw, err := readLaunch(predictInput, cmd.InOrStdin())
	if err != nil {
		return err
	}

	loader := ml.NewLoader(artifactPaths(settings), nil)
	defer loader.Close()

	res, err := ml.NewPredictor(loader, nil).Predict(context.Background(), raw)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readLaunch(path string, stdin io.Reader) (features.RawLaunch, error) {
	if path == "" {
		raw := predictLaunch
		raw.GridFins = features.Flag(predictGridFins)
		raw.Reused = features.Flag(predictReused)
		raw.Legs = features.Flag(predictLegs)
		return raw, nil
	}

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return features.RawLaunch{}, fmt.Errorf("open launch input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var raw features.RawLaunch
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return features.RawLaunch{}, fmt.Errorf("%w: %v", features.ErrInvalidInput, err)
	}
	return raw, nil
}
