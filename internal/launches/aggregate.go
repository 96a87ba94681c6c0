package launches

import (
	"fmt"
	"sort"
)

// KPIs are the headline figures of a view.
type KPIs struct {
	Total       int     `json:"total"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"` // percent, 0 for an empty view
	RateLabel   string  `json:"rate_label"`
}

// KPIs counts launches and landings in the view.
func (v View) KPIs() KPIs {
	k := KPIs{Total: len(v)}
	for _, l := range v {
		if l.Success() {
			k.Successes++
		}
	}
	if k.Total > 0 {
		k.SuccessRate = float64(k.Successes) / float64(k.Total) * 100
	}
	k.RateLabel = fmt.Sprintf("%.2f%%", k.SuccessRate)
	return k
}

// Dimension is a categorical column launches can be grouped by.
type Dimension string

const (
	BySite  Dimension = "site"
	ByOrbit Dimension = "orbit"
)

func (d Dimension) key(l Launch) (string, error) {
	switch d {
	case BySite:
		return l.LaunchSiteName, nil
	case ByOrbit:
		return l.Orbit, nil
	}
	return "", fmt.Errorf("%w: unknown dimension %q", ErrInvalidFilter, d)
}

// GroupRate is the landing rate of one category.
type GroupRate struct {
	Key       string  `json:"key"`
	Launches  int     `json:"launches"`
	Successes int     `json:"successes"`
	Rate      float64 `json:"rate"`
}

// SuccessRateBy groups the view by dim, sorted by key. Categories with no
// launches in the view do not appear.
func (v View) SuccessRateBy(dim Dimension) ([]GroupRate, error) {
	groups := map[string]*GroupRate{}
	for _, l := range v {
		key, err := dim.key(l)
		if err != nil {
			return nil, err
		}
		g, ok := groups[key]
		if !ok {
			g = &GroupRate{Key: key}
			groups[key] = g
		}
		g.Launches++
		if l.Success() {
			g.Successes++
		}
	}

	out := make([]GroupRate, 0, len(groups))
	for _, g := range groups {
		g.Rate = float64(g.Successes) / float64(g.Launches)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// ScatterPoint is one launch on the payload/outcome plot.
type ScatterPoint struct {
	FlightNumber int     `json:"flight_number"`
	PayloadMass  float64 `json:"payload_mass"`
	Class        int     `json:"class"`
	Site         string  `json:"site"`
	Orbit        string  `json:"orbit"`
}

// PayloadScatter returns one point per launch in view order.
func (v View) PayloadScatter() []ScatterPoint {
	points := make([]ScatterPoint, len(v))
	for i, l := range v {
		points[i] = ScatterPoint{
			FlightNumber: l.FlightNumber,
			PayloadMass:  l.PayloadMass,
			Class:        l.Class,
			Site:         l.LaunchSiteName,
			Orbit:        l.Orbit,
		}
	}
	return points
}
