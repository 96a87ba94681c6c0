package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"falcon-dash/internal/common"
)

// Categorical fields expanded into <field>_<value> indicator columns.
const (
	FieldOrbit      = common.FieldOrbit
	FieldLaunchSite = common.FieldLaunchSite
)

// Numeric columns passed through unchanged.
const (
	ColFlightNumber = "FlightNumber"
	ColPayloadMass  = "PayloadMass"
	ColFlights      = "Flights"
	ColGridFins     = "GridFins"
	ColReused       = "Reused"
	ColLegs         = "Legs"
)

// ColRawFlightNumber is the form spelling of the flight number, used by
// artifacts fit on raw form input.
const ColRawFlightNumber = "flight_number"

// CategoricalFields lists the expanded fields in expansion order.
var CategoricalFields = []string{FieldOrbit, FieldLaunchSite}

// IndicatorColumn names the indicator column for one category value.
func IndicatorColumn(field, value string) string {
	return field + "_" + value
}

// Schema is the trained feature layout: the scaler's ordered column list
// and its fitted per-column center and scale. It is immutable once built.
type Schema struct {
	columns    []string
	center     []float64
	scale      []float64
	index      map[string]int
	categories map[string][]string
}

// NewSchema validates the column list and transform parameters and records
// the category values behind every indicator column. Nil center or scale
// default to the identity transform.
func NewSchema(columns []string, center, scale []float64) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrSchemaMismatch)
	}
	if center == nil {
		center = make([]float64, len(columns))
	}
	if scale == nil {
		scale = make([]float64, len(columns))
		for i := range scale {
			scale[i] = 1
		}
	}
	if len(center) != len(columns) || len(scale) != len(columns) {
		return nil, fmt.Errorf("%w: %d columns but %d centers and %d scales",
			ErrSchemaMismatch, len(columns), len(center), len(scale))
	}

	s := &Schema{
		columns:    append([]string(nil), columns...),
		center:     append([]float64(nil), center...),
		scale:      append([]float64(nil), scale...),
		index:      make(map[string]int, len(columns)),
		categories: make(map[string][]string, len(CategoricalFields)),
	}

	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrSchemaMismatch, i)
		}
		if prev, dup := s.index[col]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q at positions %d and %d", ErrSchemaMismatch, col, prev, i)
		}
		s.index[col] = i

		for _, field := range CategoricalFields {
			prefix := field + "_"
			if strings.HasPrefix(col, prefix) {
				s.categories[field] = append(s.categories[field], strings.TrimPrefix(col, prefix))
				break
			}
		}
	}

	return s, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.columns)
}

// Columns returns a copy of the ordered column list.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Center returns a copy of the fitted per-column centers.
func (s *Schema) Center() []float64 {
	return append([]float64(nil), s.center...)
}

// Scale returns a copy of the fitted per-column scales.
func (s *Schema) Scale() []float64 {
	return append([]float64(nil), s.scale...)
}

// Has reports whether the schema contains a column.
func (s *Schema) Has(column string) bool {
	_, ok := s.index[column]
	return ok
}

// Categories returns the values of a categorical field the schema has
// indicator columns for, in schema order.
func (s *Schema) Categories(field string) []string {
	return append([]string(nil), s.categories[field]...)
}

// Equal reports whether columns matches the schema's columns in order.
func (s *Schema) Equal(columns []string) bool {
	if len(columns) != len(s.columns) {
		return false
	}
	for i, c := range columns {
		if s.columns[i] != c {
			return false
		}
	}
	return true
}

// ColumnsFromCSV reads the header of a processed training CSV and returns
// its feature columns, excluding target.
func ColumnsFromCSV(r io.Reader, target string) ([]string, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: training data has no header", ErrSchemaMismatch)
		}
		return nil, fmt.Errorf("read training header: %w", err)
	}

	columns := make([]string, 0, len(header))
	for _, col := range header {
		col = strings.TrimSpace(col)
		if col == target {
			continue
		}
		columns = append(columns, col)
	}
	return columns, nil
}
