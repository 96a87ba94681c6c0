package features

import (
	"fmt"

	"falcon-dash/internal/common"
)

// UnrecognizedCategory records a categorical value that has no indicator
// column in the schema. Every indicator of that field is 0 in the aligned
// vector, which the model sees as an unknown category.
type UnrecognizedCategory struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Vector is one launch aligned to a schema. Columns and Values line up
// with the schema's column order.
type Vector struct {
	Columns      []string
	Values       []float64
	Unrecognized []UnrecognizedCategory
}

// Get returns the value of a column, or false when the column is absent.
func (v *Vector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// knownValues returns the enumerated category set of a field.
func knownValues(field string) []string {
	switch field {
	case FieldOrbit:
		return common.OrbitCodes
	case FieldLaunchSite:
		return common.LaunchSites
	}
	return nil
}

// Expand drops non-model fields and one-hot encodes the categorical
// fields. The flight number is emitted under both of its spellings so
// either trained layout picks it up. Every enumerated value of a field gets a column; the observed
// value is set to 1 even when it is outside the enumeration.
func Expand(raw RawLaunch) map[string]float64 {
	out := map[string]float64{
		ColFlightNumber:    float64(raw.FlightNumber),
		ColRawFlightNumber: float64(raw.FlightNumber),
		ColPayloadMass:     raw.PayloadMass,
		ColFlights:         float64(raw.Flights),
		ColGridFins:        raw.GridFins.Float(),
		ColReused:          raw.Reused.Float(),
		ColLegs:            raw.Legs.Float(),
	}

	for _, field := range CategoricalFields {
		for _, v := range knownValues(field) {
			out[IndicatorColumn(field, v)] = 0
		}
		out[IndicatorColumn(field, raw.category(field))] = 1
	}
	return out
}

// Align builds the feature vector for raw in the exact column set and
// order of schema. Columns missing from the expansion are 0, columns the
// schema does not know are dropped. Align never fails on category values;
// unmatched ones are returned in Vector.Unrecognized.
func Align(raw RawLaunch, schema *Schema) (*Vector, error) {
	if schema == nil || len(schema.columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrSchemaMismatch)
	}

	expanded := Expand(raw)
	values := make([]float64, len(schema.columns))
	for i, col := range schema.columns {
		values[i] = expanded[col]
	}

	var unknown []UnrecognizedCategory
	for _, field := range CategoricalFields {
		value := raw.category(field)
		if !schema.Has(IndicatorColumn(field, value)) {
			unknown = append(unknown, UnrecognizedCategory{Field: field, Value: value})
		}
	}

	return &Vector{
		Columns:      schema.Columns(),
		Values:       values,
		Unrecognized: unknown,
	}, nil
}
