// Package ml serves landing-success predictions from a previously trained
// classifier and its fitted feature scaler.
//
// Artifacts are loaded once per process and cached. Each prediction aligns
// the raw launch to the scaler's column schema, applies the scaler's affine
// transform and feeds the result to the model's decision function.
// Supported model artifacts are JSON exports of logistic regression and
// CART trees, and ONNX classifiers run through ONNX Runtime.
package ml

import (
	"context"

	"falcon-dash/internal/features"
)

// PredictorInterface is what the dashboard needs from a predictor.
type PredictorInterface interface {
	// Predict returns the predicted class and positive-class probability
	// for one launch, or an error. It never returns a partial result.
	Predict(ctx context.Context, raw features.RawLaunch) (PredictionResult, error)

	// Ready reports whether artifacts are loaded, loading them if needed.
	Ready() error
}
