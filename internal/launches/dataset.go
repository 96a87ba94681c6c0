// Package launches holds the historical Falcon 9 launch dataset and the
// read-only aggregates the dashboard draws from it.
package launches

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"falcon-dash/internal/common"

	"github.com/rs/zerolog/log"
)

// ErrMissingColumn reports a dataset without one of the required columns.
var ErrMissingColumn = errors.New("dataset is missing a required column")

// Launch is one historical launch row.
type Launch struct {
	FlightNumber   int     `json:"flight_number"`
	Date           string  `json:"date,omitempty"`
	BoosterVersion string  `json:"booster_version,omitempty"`
	PayloadMass    float64 `json:"payload_mass"`
	Orbit          string  `json:"orbit"`
	LaunchSiteName string  `json:"launch_site"`
	Outcome        string  `json:"outcome,omitempty"`
	Flights        int     `json:"flights"`
	GridFins       bool    `json:"grid_fins"`
	Reused         bool    `json:"reused"`
	Legs           bool    `json:"legs"`
	LandingPad     string  `json:"landing_pad,omitempty"`
	Block          float64 `json:"block,omitempty"`
	ReusedCount    int     `json:"reused_count"`
	Serial         string  `json:"serial,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	Latitude       float64 `json:"latitude,omitempty"`
	Class          int     `json:"class"`
}

// Success reports whether the first stage landed.
func (l Launch) Success() bool {
	return l.Class == 1
}

// Dataset is the immutable set of historical launches.
type Dataset struct {
	launches []Launch
}

// NewDataset wraps launches. The slice is copied.
func NewDataset(launches []Launch) *Dataset {
	return &Dataset{launches: append([]Launch(nil), launches...)}
}

// Len returns the number of launches.
func (d *Dataset) Len() int {
	return len(d.launches)
}

// All returns a copy of every launch.
func (d *Dataset) All() []Launch {
	return append([]Launch(nil), d.launches...)
}

// columnAliases maps accepted header spellings to the canonical column.
var columnAliases = map[string]string{
	"flightnumber":   "FlightNumber",
	"flight_number":  "FlightNumber",
	"date":           "Date",
	"boosterversion": "BoosterVersion",
	"payloadmass":    "PayloadMass",
	"orbit":          "Orbit",
	"launchsitename": "LaunchSiteName",
	"launchsite":     "LaunchSiteName",
	"outcome":        "Outcome",
	"flights":        "Flights",
	"gridfins":       "GridFins",
	"reused":         "Reused",
	"legs":           "Legs",
	"landingpad":     "LandingPad",
	"block":          "Block",
	"reusedcount":    "ReusedCount",
	"serial":         "Serial",
	"longitude":      "Longitude",
	"latitude":       "Latitude",
	"class":          common.TargetColumn,
}

var requiredColumns = []string{"PayloadMass", "Orbit", "LaunchSiteName", common.TargetColumn}

// LoadCSV reads the cleaned launch dataset.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("launches", ds.Len()).
		Msg("Launch dataset loaded")
	return ds, nil
}

// ReadCSV parses a launch dataset. Columns are matched by name; optional
// columns may be absent and empty optional cells read as zero.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	indices := make(map[string]int)
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := indices[canonical]; !dup {
				indices[canonical] = i
			}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := indices[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var launches []Launch
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		l, err := parseRow(record, indices)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		launches = append(launches, l)
	}

	return &Dataset{launches: launches}, nil
}

// row reads typed cells out of one CSV record.
type row struct {
	record  []string
	indices map[string]int
	err     error
}

func (r *row) str(col string) string {
	i, ok := r.indices[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *row) number(col string, required bool) float64 {
	s := r.str(col)
	if s == "" {
		if required && r.err == nil {
			r.err = fmt.Errorf("empty %s", col)
		}
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		if r.err == nil {
			r.err = fmt.Errorf("invalid %s %q", col, s)
		}
		return 0
	}
	return v
}

func (r *row) integer(col string) int {
	return int(r.number(col, false))
}

func (r *row) flag(col string) bool {
	s := strings.ToLower(r.str(col))
	switch s {
	case "", "0", "0.0", "false", "no", "n":
		return false
	case "1", "1.0", "true", "yes", "y":
		return true
	}
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s %q", col, s)
	}
	return false
}

func parseRow(record []string, indices map[string]int) (Launch, error) {
	r := &row{record: record, indices: indices}

	l := Launch{
		FlightNumber:   r.integer("FlightNumber"),
		Date:           r.str("Date"),
		BoosterVersion: r.str("BoosterVersion"),
		PayloadMass:    r.number("PayloadMass", true),
		Orbit:          r.str("Orbit"),
		LaunchSiteName: r.str("LaunchSiteName"),
		Outcome:        r.str("Outcome"),
		Flights:        r.integer("Flights"),
		GridFins:       r.flag("GridFins"),
		Reused:         r.flag("Reused"),
		Legs:           r.flag("Legs"),
		LandingPad:     r.str("LandingPad"),
		Block:          r.number("Block", false),
		ReusedCount:    r.integer("ReusedCount"),
		Serial:         r.str("Serial"),
		Longitude:      r.number("Longitude", false),
		Latitude:       r.number("Latitude", false),
	}

	class := r.number(common.TargetColumn, true)
	if r.err == nil && class != 0 && class != 1 {
		r.err = fmt.Errorf("class must be 0 or 1, got %v", class)
	}
	l.Class = int(class)

	if r.err == nil && l.Orbit == "" {
		r.err = errors.New("empty Orbit")
	}
	if r.err == nil && l.LaunchSiteName == "" {
		r.err = errors.New("empty LaunchSiteName")
	}

	return l, r.err
}

// Options are the slicer choices the dataset offers.
type Options struct {
	Sites      []string `json:"sites"`
	Orbits     []string `json:"orbits"`
	PayloadMin float64  `json:"payload_min"`
	PayloadMax float64  `json:"payload_max"`
}

// Options returns the sorted distinct sites and orbits and the payload
// bounds widened to whole kilograms, so the full slider range still
// covers every launch.
func (d *Dataset) Options() Options {
	opts := Options{Sites: []string{}, Orbits: []string{}}
	if len(d.launches) == 0 {
		return opts
	}

	sites := map[string]bool{}
	orbits := map[string]bool{}
	lo, hi := d.launches[0].PayloadMass, d.launches[0].PayloadMass
	for _, l := range d.launches {
		sites[l.LaunchSiteName] = true
		orbits[l.Orbit] = true
		if l.PayloadMass < lo {
			lo = l.PayloadMass
		}
		if l.PayloadMass > hi {
			hi = l.PayloadMass
		}
	}

	opts.Sites = sortedKeys(sites)
	opts.Orbits = sortedKeys(orbits)
	opts.PayloadMin = math.Floor(lo)
	opts.PayloadMax = math.Ceil(hi)
	return opts
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
