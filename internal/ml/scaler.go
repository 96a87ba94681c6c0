package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"falcon-dash/internal/features"
)

// Scaler is the fitted per-column affine normalisation plus the
// authoritative column schema it was fit on.
type Scaler struct {
	kind   string
	schema *features.Schema
}

// scalerFile is the JSON export of a fitted sklearn scaler.
//
//	standard: x' = (x - mean) / scale
//	minmax:   x' = x * scale + min
type scalerFile struct {
	Kind           string    `json:"kind"`
	FeatureNamesIn []string  `json:"feature_names_in"`
	Mean           []float64 `json:"mean,omitempty"`
	Min            []float64 `json:"min,omitempty"`
	Scale          []float64 `json:"scale"`
}

// NewScaler wraps an already validated schema.
func NewScaler(kind string, schema *features.Schema) *Scaler {
	return &Scaler{kind: kind, schema: schema}
}

// LoadScaler reads a scaler artifact. The file is closed before returning.
func LoadScaler(path string) (*Scaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scaler: %w", err)
	}
	defer f.Close()

	return ParseScaler(f)
}

// ParseScaler decodes a scaler artifact and validates its schema.
func ParseScaler(r io.Reader) (*Scaler, error) {
	var sf scalerFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}

	var center, scale []float64
	switch sf.Kind {
	case "", "standard":
		sf.Kind = "standard"
		center = sf.Mean
		scale = sf.Scale
	case "minmax":
		if len(sf.Min) != len(sf.Scale) {
			return nil, fmt.Errorf("%w: minmax scaler has %d mins and %d scales",
				features.ErrSchemaMismatch, len(sf.Min), len(sf.Scale))
		}
		center = make([]float64, len(sf.Scale))
		scale = make([]float64, len(sf.Scale))
		for i, s := range sf.Scale {
			if s == 0 {
				return nil, fmt.Errorf("minmax scaler: zero scale for column %d", i)
			}
			center[i] = -sf.Min[i] / s
			scale[i] = 1 / s
		}
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", sf.Kind)
	}

	schema, err := features.NewSchema(sf.FeatureNamesIn, center, scale)
	if err != nil {
		return nil, fmt.Errorf("scaler schema: %w", err)
	}
	return &Scaler{kind: sf.Kind, schema: schema}, nil
}

// Kind returns the scaler family the artifact was exported from.
func (s *Scaler) Kind() string {
	return s.kind
}

// Schema returns the column schema the scaler was fit on.
func (s *Scaler) Schema() *features.Schema {
	return s.schema
}

// Transform maps an aligned vector into scaler space. A zero scale leaves
// the centered value unscaled.
func (s *Scaler) Transform(v *features.Vector) ([]float64, error) {
	if v == nil || len(v.Values) != s.schema.Len() {
		got := 0
		if v != nil {
			got = len(v.Values)
		}
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d",
			features.ErrSchemaMismatch, s.schema.Len(), got)
	}
	if !s.schema.Equal(v.Columns) {
		return nil, fmt.Errorf("%w: vector columns are not in scaler order", features.ErrSchemaMismatch)
	}

	center := s.schema.Center()
	scale := s.schema.Scale()
	out := make([]float64, len(v.Values))
	for i, x := range v.Values {
		sc := scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (x - center[i]) / sc
	}
	return out, nil
}
