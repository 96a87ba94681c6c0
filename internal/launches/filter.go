package launches

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter reports a slicer selection that cannot be applied.
var ErrInvalidFilter = errors.New("invalid filter")

// Outcome selects launches by landing result.
type Outcome string

const (
	OutcomeAll     Outcome = "all"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Filter is a dashboard slicer selection. A nil Sites or Orbits list
// selects every value while an empty one selects none. Nil payload bounds
// are open.
type Filter struct {
	Sites      []string `json:"sites,omitempty"`
	Orbits     []string `json:"orbits,omitempty"`
	PayloadMin *float64 `json:"payload_min,omitempty"`
	PayloadMax *float64 `json:"payload_max,omitempty"`
	Outcome    Outcome  `json:"outcome,omitempty"`
}

// DefaultFilter selects every launch.
func DefaultFilter() Filter {
	return Filter{Outcome: OutcomeAll}
}

// Validate normalises the outcome and checks the payload range.
func (f *Filter) Validate() error {
	switch o := Outcome(strings.ToLower(string(f.Outcome))); o {
	case "", OutcomeAll:
		f.Outcome = OutcomeAll
	case OutcomeSuccess, OutcomeFailure:
		f.Outcome = o
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidFilter, f.Outcome)
	}

	if f.PayloadMin != nil && f.PayloadMax != nil && *f.PayloadMin > *f.PayloadMax {
		return fmt.Errorf("%w: payload range %v > %v", ErrInvalidFilter, *f.PayloadMin, *f.PayloadMax)
	}
	return nil
}

func (f Filter) match(l Launch) bool {
	if f.Sites != nil && !contains(f.Sites, l.LaunchSiteName) {
		return false
	}
	if f.Orbits != nil && !contains(f.Orbits, l.Orbit) {
		return false
	}
	// Both bounds inclusive.
	if f.PayloadMin != nil && l.PayloadMass < *f.PayloadMin {
		return false
	}
	if f.PayloadMax != nil && l.PayloadMass > *f.PayloadMax {
		return false
	}
	switch f.Outcome {
	case OutcomeSuccess:
		return l.Success()
	case OutcomeFailure:
		return !l.Success()
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// View is a filtered, read-only slice of the dataset.
type View []Launch

// Apply returns the launches matching f in dataset order. The dataset is
// never modified.
func (d *Dataset) Apply(f Filter) (View, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	view := make(View, 0, len(d.launches))
	for _, l := range d.launches {
		if f.match(l) {
			view = append(view, l)
		}
	}
	return view, nil
}
