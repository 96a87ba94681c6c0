// Package backtest replays the historical launch dataset through the
// landing predictor and scores its predictions against the recorded
// outcomes.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"falcon-dash/internal/features"
	"falcon-dash/internal/launches"
	"falcon-dash/internal/ml"

	"github.com/rs/zerolog/log"
)

// Engine runs the predictor over a dataset.
type Engine struct {
	predictor ml.PredictorInterface
	data      *launches.Dataset
}

// Evaluation is one historical launch and the prediction made for it.
type Evaluation struct {
	FlightNumber int     `json:"flight_number"`
	Site         string  `json:"site"`
	Orbit        string  `json:"orbit"`
	PayloadMass  float64 `json:"payload_mass"`
	Actual       int     `json:"actual"`
	Predicted    int     `json:"predicted"`
	Probability  float64 `json:"probability"`
}

// Correct reports whether the prediction matches the recorded outcome.
func (e Evaluation) Correct() bool {
	return e.Actual == e.Predicted
}

// GroupStats is the accuracy over one launch site or orbit.
type GroupStats struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Results holds the scores of one evaluation run.
type Results struct {
	Evaluations    []Evaluation `json:"evaluations"`
	Total          int          `json:"total"`
	Skipped        int          `json:"skipped"`
	TruePositives  int          `json:"true_positives"`
	FalsePositives int          `json:"false_positives"`
	TrueNegatives  int          `json:"true_negatives"`
	FalseNegatives int          `json:"false_negatives"`
	Accuracy       float64      `json:"accuracy"`
	Precision      float64      `json:"precision"`
	Recall         float64      `json:"recall"`
	F1             float64      `json:"f1"`
	BrierScore     float64      `json:"brier_score"`
	BySite         []GroupStats `json:"by_site"`
	ByOrbit        []GroupStats `json:"by_orbit"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        time.Time    `json:"end_time"`
}

// NewEngine creates an evaluation engine.
func NewEngine(predictor ml.PredictorInterface, data *launches.Dataset) *Engine {
	return &Engine{predictor: predictor, data: data}
}

// RawLaunch converts a historical launch into prediction input.
func RawLaunch(l launches.Launch) features.RawLaunch {
	return features.RawLaunch{
		FlightNumber:   l.FlightNumber,
		PayloadMass:    l.PayloadMass,
		Flights:        l.Flights,
		Orbit:          l.Orbit,
		LaunchSiteName: l.LaunchSiteName,
		GridFins:       features.Flag(l.GridFins),
		Reused:         features.Flag(l.Reused),
		Legs:           features.Flag(l.Legs),
		BoosterVersion: l.BoosterVersion,
		Date:           l.Date,
		Outcome:        l.Outcome,
	}
}

// Run predicts every launch selected by f. Launches the predictor rejects
// as invalid input are skipped; any other prediction error aborts the run.
func (e *Engine) Run(ctx context.Context, f launches.Filter) (*Results, error) {
	view, err := e.data.Apply(f)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("launches", len(view)).
		Msg("Starting evaluation")

	res := &Results{StartTime: time.Now(), Evaluations: []Evaluation{}}
	for _, l := range view {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pred, err := e.predictor.Predict(ctx, RawLaunch(l))
		if errors.Is(err, features.ErrInvalidInput) {
			log.Warn().
				Err(err).
				Int("flight_number", l.FlightNumber).
				Msg("Skipping launch")
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", l.FlightNumber, err)
		}

		predicted := 0
		if pred.Class == ml.ClassSuccess {
			predicted = 1
		}
		res.Evaluations = append(res.Evaluations, Evaluation{
			FlightNumber: l.FlightNumber,
			Site:         l.LaunchSiteName,
			Orbit:        l.Orbit,
			PayloadMass:  l.PayloadMass,
			Actual:       l.Class,
			Predicted:    predicted,
			Probability:  pred.Probability,
		})
	}

	res.EndTime = time.Now()
	res.calculate()

	log.Info().
		Int("evaluated", res.Total).
		Int("skipped", res.Skipped).
		Float64("accuracy", res.Accuracy).
		Msg("Evaluation completed")

	return res, nil
}

func (r *Results) calculate() {
	r.Total = len(r.Evaluations)
	if r.Total == 0 {
		r.BySite, r.ByOrbit = []GroupStats{}, []GroupStats{}
		return
	}

	var brier float64
	for _, ev := range r.Evaluations {
		switch {
		case ev.Actual == 1 && ev.Predicted == 1:
			r.TruePositives++
		case ev.Actual == 0 && ev.Predicted == 1:
			r.FalsePositives++
		case ev.Actual == 0 && ev.Predicted == 0:
			r.TrueNegatives++
		default:
			r.FalseNegatives++
		}
		brier += math.Pow(ev.Probability-float64(ev.Actual), 2)
	}

	r.Accuracy = float64(r.TruePositives+r.TrueNegatives) / float64(r.Total)
	r.Precision = ratio(r.TruePositives, r.TruePositives+r.FalsePositives)
	r.Recall = ratio(r.TruePositives, r.TruePositives+r.FalseNegatives)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	r.BrierScore = brier / float64(r.Total)

	r.BySite = groupStats(r.Evaluations, func(ev Evaluation) string { return ev.Site })
	r.ByOrbit = groupStats(r.Evaluations, func(ev Evaluation) string { return ev.Orbit })
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func groupStats(evals []Evaluation, key func(Evaluation) string) []GroupStats {
	groups := map[string]*GroupStats{}
	for _, ev := range evals {
		k := key(ev)
		g, ok := groups[k]
		if !ok {
			g = &GroupStats{Key: k}
			groups[k] = g
		}
		g.Count++
		if ev.Correct() {
			g.Correct++
		}
	}

	out := make([]GroupStats, 0, len(groups))
	for _, g := range groups {
		g.Accuracy = ratio(g.Correct, g.Count)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
