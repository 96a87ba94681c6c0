package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"falcon-dash/internal/features"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionsInc(class string)
	PredictionFailuresInc(reason string)
	PredictionLatencyObserve(float64)
	PredictionScoresObserve(float64)
	UnrecognizedCategoryInc(field string)
	ArtifactLoadErrorsInc()
	ModelAgeSet(float64)
}

// PredictionClass is the predicted landing outcome.
type PredictionClass string

const (
	ClassSuccess PredictionClass = "SUCCESS"
	ClassFailure PredictionClass = "FAILURE"
)

// PredictionResult is the outcome of one prediction.
type PredictionResult struct {
	Class        PredictionClass                 `json:"class"`
	Probability  float64                         `json:"probability"`
	Percent      string                          `json:"percent"`
	RequestID    string                          `json:"request_id"`
	ModelVersion string                          `json:"model_version,omitempty"`
	Unrecognized []features.UnrecognizedCategory `json:"unrecognized,omitempty"`
	LatencyMS    float64                         `json:"latency_ms"`
	Timestamp    time.Time                       `json:"timestamp"`
}

// Failure reasons reported to metrics.
const (
	reasonInvalidInput   = "invalid_input"
	reasonArtifactLoad   = "artifact_load"
	reasonSchemaMismatch = "schema_mismatch"
	reasonModel          = "model"
	reasonCanceled       = "canceled"
)

// Predictor is the inference adapter: align, scale, classify.
type Predictor struct {
	loader  *Loader
	metrics MetricsInterface
}

// NewPredictor creates a predictor over a shared artifact loader. metrics
// may be nil.
func NewPredictor(loader *Loader, metrics MetricsInterface) *Predictor {
	return &Predictor{loader: loader, metrics: metrics}
}

// Ready loads the artifacts if they are not cached yet.
func (p *Predictor) Ready() error {
	_, err := p.loader.Get()
	return err
}

// Predict runs one launch through the cached model and scaler.
func (p *Predictor) Predict(ctx context.Context, raw features.RawLaunch) (PredictionResult, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if err := ctx.Err(); err != nil {
		return p.fail(reasonCanceled, err)
	}
	if err := raw.Validate(); err != nil {
		return p.fail(reasonInvalidInput, err)
	}

	a, err := p.loader.Get()
	if err != nil {
		return p.fail(reasonArtifactLoad, err)
	}

	vec, err := features.Align(raw, a.Scaler.Schema())
	if err != nil {
		return p.fail(reasonSchemaMismatch, err)
	}
	for _, u := range vec.Unrecognized {
		log.Warn().
			Str("field", u.Field).
			Str("value", u.Value).
			Msg("Unrecognized category, all indicators for the field are zero")
		if p.metrics != nil {
			p.metrics.UnrecognizedCategoryInc(u.Field)
		}
	}

	x, err := a.Scaler.Transform(vec)
	if err != nil {
		return p.fail(reasonSchemaMismatch, err)
	}

	label, proba, err := a.Model.Predict(x)
	if err != nil {
		return p.fail(reasonModel, fmt.Errorf("model inference: %w", err))
	}
	if math.IsNaN(proba) || proba < 0 || proba > 1 {
		return p.fail(reasonModel, fmt.Errorf("model returned invalid probability %v", proba))
	}

	class := ClassFailure
	if label == 1 {
		class = ClassSuccess
	}

	res := PredictionResult{
		Class:        class,
		Probability:  proba,
		Percent:      fmt.Sprintf("%.2f%%", proba*100),
		RequestID:    uuid.NewString(),
		ModelVersion: a.Model.Version(),
		Unrecognized: vec.Unrecognized,
		LatencyMS:    float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:    time.Now(),
	}

	if p.metrics != nil {
		p.metrics.PredictionsInc(string(class))
		p.metrics.PredictionScoresObserve(proba)
	}

	log.Debug().
		Str("request_id", res.RequestID).
		Str("class", string(class)).
		Float64("probability", proba).
		Floats64("features", x).
		Msg("Prediction successful")

	return res, nil
}

func (p *Predictor) fail(reason string, err error) (PredictionResult, error) {
	if p.metrics != nil {
		p.metrics.PredictionFailuresInc(reason)
	}
	if !errors.Is(err, features.ErrInvalidInput) {
		log.Error().Err(err).Str("reason", reason).Msg("Prediction failed")
	}
	return PredictionResult{}, err
}
