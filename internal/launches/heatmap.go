package launches

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// HeatmapBins is the number of equal-width payload bins.
const HeatmapBins = 6

// Heatmap is the landing rate per orbit and payload bin. Cells[i][j] is
// the rate of Orbits[i] in Bins[j], nil where the view has no launch.
type Heatmap struct {
	Orbits []string     `json:"orbits"`
	Bins   []string     `json:"bins"`
	Edges  []float64    `json:"edges"`
	Cells  [][]*float64 `json:"cells"`
}

// Heatmap bins payloads into HeatmapBins right-closed intervals spanning
// the view and averages the class per orbit and bin. The lowest edge is
// pushed down by 0.1% of the range so the minimum falls in the first bin.
func (v View) Heatmap() Heatmap {
	h := Heatmap{Orbits: []string{}, Bins: []string{}, Edges: []float64{}, Cells: [][]*float64{}}
	if len(v) == 0 {
		return h
	}

	h.Edges = payloadEdges(v, HeatmapBins)
	h.Bins = intervalLabels(h.Edges)

	type acc struct{ n, s int }
	counts := map[string][]acc{}
	for _, l := range v {
		row, ok := counts[l.Orbit]
		if !ok {
			row = make([]acc, HeatmapBins)
			counts[l.Orbit] = row
			h.Orbits = append(h.Orbits, l.Orbit)
		}
		b := binIndex(h.Edges, l.PayloadMass)
		row[b].n++
		if l.Success() {
			row[b].s++
		}
	}
	sort.Strings(h.Orbits)

	h.Cells = make([][]*float64, len(h.Orbits))
	for i, orbit := range h.Orbits {
		h.Cells[i] = make([]*float64, HeatmapBins)
		for j, a := range counts[orbit] {
			if a.n == 0 {
				continue
			}
			rate := float64(a.s) / float64(a.n)
			h.Cells[i][j] = &rate
		}
	}
	return h
}

func payloadEdges(v View, n int) []float64 {
	lo, hi := v[0].PayloadMass, v[0].PayloadMass
	for _, l := range v {
		lo = math.Min(lo, l.PayloadMass)
		hi = math.Max(hi, l.PayloadMass)
	}

	if lo == hi {
		if lo == 0 {
			lo, hi = -0.001, 0.001
		} else {
			lo -= 0.001 * math.Abs(lo)
			hi += 0.001 * math.Abs(hi)
		}
		return linspace(lo, hi, n+1)
	}

	edges := linspace(lo, hi, n+1)
	edges[0] -= (hi - lo) * 0.001
	return edges
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// binIndex returns the bin of x among right-closed intervals.
func binIndex(edges []float64, x float64) int {
	last := len(edges) - 2
	for i := 0; i < last; i++ {
		if x <= edges[i+1] {
			return i
		}
	}
	return last
}

// intervalLabels renders edges as "(a, b]" labels, rounding each edge to
// the fewest digits (at least three) that keep every edge distinct.
func intervalLabels(edges []float64) []string {
	rounded := edges
	for precision := 3; precision < 20; precision++ {
		rounded = make([]float64, len(edges))
		seen := map[float64]bool{}
		unique := true
		for i, e := range edges {
			rounded[i] = roundFrac(e, precision)
			if seen[rounded[i]] {
				unique = false
			}
			seen[rounded[i]] = true
		}
		if unique {
			break
		}
	}

	labels := make([]string, len(edges)-1)
	for i := range labels {
		labels[i] = "(" + formatEdge(rounded[i]) + ", " + formatEdge(rounded[i+1]) + "]"
	}
	return labels
}

// roundFrac rounds x to precision decimals, or to precision significant
// digits when |x| < 1.
func roundFrac(x float64, precision int) float64 {
	if x == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	whole, frac := math.Modf(x)
	digits := precision
	if whole == 0 {
		digits = -int(math.Floor(math.Log10(math.Abs(frac)))) - 1 + precision
	}
	pow := math.Pow(10, float64(digits))
	return math.Round(x*pow) / pow
}

func formatEdge(x float64) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
