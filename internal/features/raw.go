// Package features turns one hypothetical launch into the exact feature
// layout the landing classifier was trained on.
//
// The trained scaler's column list is authoritative: Align reindexes the
// one-hot expansion of a RawLaunch onto that list, filling columns the
// input does not produce with 0 and dropping columns the schema does not
// know.
package features

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrSchemaMismatch reports an empty or malformed trained feature schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidInput reports a raw launch outside the form bounds.
	ErrInvalidInput = errors.New("invalid launch input")
)

// Flag is a boolean launch attribute. It decodes from JSON true/false,
// 0/1 and the form's "Yes"/"No".
type Flag bool

// Float returns the model encoding of the flag.
func (f Flag) Float() float64 {
	if f {
		return 1
	}
	return 0
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	switch {
	case strings.EqualFold(s, "yes"):
		*f = true
		return nil
	case strings.EqualFold(s, "no"), s == "null", s == "":
		*f = false
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = n != 0
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("flag: cannot decode %s", data)
	}
	*f = Flag(b)
	return nil
}

// RawLaunch is one user-entered launch scenario.
type RawLaunch struct {
	FlightNumber   int     `json:"flight_number"`
	PayloadMass    float64 `json:"PayloadMass"`
	Flights        int     `json:"Flights"`
	Orbit          string  `json:"Orbit"`
	LaunchSiteName string  `json:"LaunchSiteName"`
	GridFins       Flag    `json:"GridFins"`
	Reused         Flag    `json:"Reused"`
	Legs           Flag    `json:"Legs"`

	// Identifiers that never reach the model.
	BoosterVersion string `json:"BoosterVersion,omitempty"`
	Date           string `json:"Date,omitempty"`
	Outcome        string `json:"Outcome,omitempty"`
}

// Validate checks the numeric fields against the prediction form bounds.
func (r RawLaunch) Validate() error {
	if r.FlightNumber < 1 {
		return fmt.Errorf("%w: flight number must be >= 1, got %d", ErrInvalidInput, r.FlightNumber)
	}
	if r.PayloadMass < 0 || math.IsNaN(r.PayloadMass) || math.IsInf(r.PayloadMass, 0) {
		return fmt.Errorf("%w: payload mass must be finite and >= 0, got %v", ErrInvalidInput, r.PayloadMass)
	}
	if r.Flights < 0 {
		return fmt.Errorf("%w: previous flights must be >= 0, got %d", ErrInvalidInput, r.Flights)
	}
	return nil
}

// category returns the raw value of a categorical field.
func (r RawLaunch) category(field string) string {
	switch field {
	case FieldOrbit:
		return r.Orbit
	case FieldLaunchSite:
		return r.LaunchSiteName
	}
	return ""
}
