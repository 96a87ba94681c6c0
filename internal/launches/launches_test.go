package launches

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const sampleCSV = `FlightNumber,Date,BoosterVersion,PayloadMass,Orbit,LaunchSite,Outcome,Flights,GridFins,Reused,Legs,LandingPad,Block,ReusedCount,Serial,Longitude,Latitude,class
1,2010-06-04,Falcon 9,500,LEO,CCSFS SLC 40,None None,1,False,False,False,,1.0,0,B0003,-80.577366,28.561857,0
2,2012-05-22,Falcon 9,2500,GTO,CCSFS SLC 40,False Ocean,1,False,False,True,,1.0,0,B0005,-80.577366,28.561857,0
3,2017-02-19,Falcon 9,3000,ISS,KSC LC 39A,True RTLS,1,True,False,True,LZ-1,3.0,1,B1031,-80.603956,28.608058,1
4,2018-03-30,Falcon 9,5000,LEO,KSC LC 39A,True ASDS,2,True,True,True,OCISLY,4.0,2,B1041,-80.603956,28.608058,1
5,2019-06-12,Falcon 9,9600,LEO,VAFB SLC 4E,True RTLS,3,True,True,True,LZ-4,5.0,3,B1051,-120.610829,34.632093,1
6,2020-11-16,Falcon 9,15600,GTO,KSC LC 39A,True ASDS,4,True,True,True,JRTI,5.0,4,B1049,-80.603956,28.608058,1
`

func loadSample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 6, ds.Len())
	return ds
}

func ptr(v float64) *float64 { return &v }

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestReadCSV(t *testing.T) {
	ds := loadSample(t)
	l := ds.All()[3]

	assert.Equal(t, 4, l.FlightNumber)
	assert.Equal(t, "KSC LC 39A", l.LaunchSiteName)
	assert.Equal(t, 5000.0, l.PayloadMass)
	assert.True(t, l.GridFins)
	assert.True(t, l.Reused)
	assert.True(t, l.Legs)
	assert.Equal(t, "OCISLY", l.LandingPad)
	assert.Equal(t, 2, l.ReusedCount)
	assert.Equal(t, "B1041", l.Serial)
	assert.True(t, l.Success())
}

func TestReadCSV_OptionalColumns(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("PayloadMass,Orbit,LaunchSiteName,class\n100,LEO,KSC LC 39A,1\n"))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 0, ds.All()[0].FlightNumber)
	assert.False(t, ds.All()[0].GridFins)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name          string
		csv           string
		missingColumn bool
	}{
		{"empty", "", true},
		{"no class column", "PayloadMass,Orbit,LaunchSite\n1,LEO,X\n", true},
		{"no orbit column", "PayloadMass,LaunchSite,class\n1,X,1\n", true},
		{"bad payload", "PayloadMass,Orbit,LaunchSite,class\nheavy,LEO,X,1\n", false},
		{"empty payload", "PayloadMass,Orbit,LaunchSite,class\n,LEO,X,1\n", false},
		{"NaN payload", "PayloadMass,Orbit,LaunchSite,class\nNaN,LEO,X,1\n", false},
		{"infinite payload", "PayloadMass,Orbit,LaunchSite,class\n+Inf,LEO,X,1\n", false},
		{"NaN flights", "PayloadMass,Orbit,LaunchSite,class,Flights\n1,LEO,X,1,nan\n", false},
		{"class out of range", "PayloadMass,Orbit,LaunchSite,class\n1,LEO,X,2\n", false},
		{"bad flag", "PayloadMass,Orbit,LaunchSite,class,Legs\n1,LEO,X,1,maybe\n", false},
		{"empty orbit", "PayloadMass,Orbit,LaunchSite,class\n1,,X,1\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Equal(t, tt.missingColumn, errors.Is(err, ErrMissingColumn), "%v", err)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_launches.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	ds, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 6, ds.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	opts := loadSample(t).Options()
	assert.Equal(t, []string{"CCSFS SLC 40", "KSC LC 39A", "VAFB SLC 4E"}, opts.Sites)
	assert.Equal(t, []string{"GTO", "ISS", "LEO"}, opts.Orbits)
	assert.Equal(t, 500.0, opts.PayloadMin)
	assert.Equal(t, 15600.0, opts.PayloadMax)

	empty := NewDataset(nil).Options()
	assert.Empty(t, empty.Sites)
	assert.NotNil(t, empty.Sites)
}

func TestApply(t *testing.T) {
	ds := loadSample(t)

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"default selects all", DefaultFilter(), []int{1, 2, 3, 4, 5, 6}},
		{"zero value selects all", Filter{}, []int{1, 2, 3, 4, 5, 6}},
		{"one site", Filter{Sites: []string{"KSC LC 39A"}}, []int{3, 4, 6}},
		{"no sites", Filter{Sites: []string{}}, nil},
		{"orbits", Filter{Orbits: []string{"LEO", "ISS"}}, []int{1, 3, 4, 5}},
		{"payload range inclusive", Filter{PayloadMin: ptr(2500), PayloadMax: ptr(5000)}, []int{2, 3, 4}},
		{"open upper bound", Filter{PayloadMin: ptr(9600)}, []int{5, 6}},
		{"successes", Filter{Outcome: OutcomeSuccess}, []int{3, 4, 5, 6}},
		{"failures", Filter{Outcome: "FAILURE"}, []int{1, 2}},
		{"combined", Filter{Sites: []string{"KSC LC 39A"}, Orbits: []string{"GTO"}, Outcome: OutcomeSuccess}, []int{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := ds.Apply(tt.filter)
			require.NoError(t, err)

			var got []int
			for _, l := range view {
				got = append(got, l.FlightNumber)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 6, ds.Len(), "dataset must be unchanged")
}

func TestApply_InvalidFilter(t *testing.T) {
	ds := loadSample(t)

	_, err := ds.Apply(Filter{Outcome: "partial"})
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	_, err = ds.Apply(Filter{PayloadMin: ptr(5000), PayloadMax: ptr(100)})
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestKPIs(t *testing.T) {
	view, err := loadSample(t).Apply(DefaultFilter())
	require.NoError(t, err)

	k := view.KPIs()
	assert.Equal(t, 6, k.Total)
	assert.Equal(t, 4, k.Successes)
	assert.InDelta(t, 66.6667, k.SuccessRate, 1e-3)
	assert.Equal(t, "66.67%", k.RateLabel)
}

func TestKPIs_EmptyView(t *testing.T) {
	view, err := loadSample(t).Apply(Filter{Sites: []string{}})
	require.NoError(t, err)

	k := view.KPIs()
	assert.Equal(t, KPIs{Total: 0, Successes: 0, SuccessRate: 0, RateLabel: "0.00%"}, k)

	bySite, err := view.SuccessRateBy(BySite)
	require.NoError(t, err)
	assert.Empty(t, bySite)
	assert.Empty(t, view.PayloadScatter())

	h := view.Heatmap()
	assert.Empty(t, h.Orbits)
	assert.Empty(t, h.Cells)
}

func TestSuccessRateBy(t *testing.T) {
	view, err := loadSample(t).Apply(DefaultFilter())
	require.NoError(t, err)

	bySite, err := view.SuccessRateBy(BySite)
	require.NoError(t, err)
	assert.Equal(t, []GroupRate{
		{Key: "CCSFS SLC 40", Launches: 2, Successes: 0, Rate: 0},
		{Key: "KSC LC 39A", Launches: 3, Successes: 3, Rate: 1},
		{Key: "VAFB SLC 4E", Launches: 1, Successes: 1, Rate: 1},
	}, bySite)

	byOrbit, err := view.SuccessRateBy(ByOrbit)
	require.NoError(t, err)
	require.Len(t, byOrbit, 3)
	assert.Equal(t, "LEO", byOrbit[2].Key)
	assert.InDelta(t, 2.0/3.0, byOrbit[2].Rate, 1e-12)

	_, err = view.SuccessRateBy("booster")
	assert.Error(t, err)
}

func TestPayloadScatter(t *testing.T) {
	view, err := loadSample(t).Apply(Filter{Orbits: []string{"GTO"}})
	require.NoError(t, err)

	assert.Equal(t, []ScatterPoint{
		{FlightNumber: 2, PayloadMass: 2500, Class: 0, Site: "CCSFS SLC 40", Orbit: "GTO"},
		{FlightNumber: 6, PayloadMass: 15600, Class: 1, Site: "KSC LC 39A", Orbit: "GTO"},
	}, view.PayloadScatter())
}

func TestHeatmap(t *testing.T) {
	view, err := loadSample(t).Apply(DefaultFilter())
	require.NoError(t, err)

	h := view.Heatmap()
	assert.Equal(t, []string{"GTO", "ISS", "LEO"}, h.Orbits)
	assert.Equal(t, []string{
		"(484.9, 3016.667]",
		"(3016.667, 5533.333]",
		"(5533.333, 8050.0]",
		"(8050.0, 10566.667]",
		"(10566.667, 13083.333]",
		"(13083.333, 15600.0]",
	}, h.Bins)
	require.Len(t, h.Edges, HeatmapBins+1)

	rates := func(row []*float64) []any {
		out := make([]any, len(row))
		for i, c := range row {
			if c != nil {
				out[i] = *c
			}
		}
		return out
	}
	assert.Equal(t, []any{0.0, nil, nil, nil, nil, 1.0}, rates(h.Cells[0]))
	assert.Equal(t, []any{1.0, nil, nil, nil, nil, nil}, rates(h.Cells[1]))
	assert.Equal(t, []any{0.0, 1.0, nil, 1.0, nil, nil}, rates(h.Cells[2]))
}

func TestHeatmap_SinglePayload(t *testing.T) {
	view := View{
		{Orbit: "LEO", PayloadMass: 5000, Class: 1},
		{Orbit: "LEO", PayloadMass: 5000, Class: 0},
	}

	h := view.Heatmap()
	require.Len(t, h.Bins, HeatmapBins)
	assert.Equal(t, 4995.0, h.Edges[0])
	assert.Equal(t, 5005.0, h.Edges[HeatmapBins])

	filled := 0
	for _, c := range h.Cells[0] {
		if c != nil {
			filled++
			assert.Equal(t, 0.5, *c)
		}
	}
	assert.Equal(t, 1, filled)
}

func TestIntervalLabels(t *testing.T) {
	assert.Equal(t, []string{"(0.0, 1.0]", "(1.0, 2.0]"}, intervalLabels([]float64{0, 1, 2}))
	assert.Equal(t, []string{"(1.0001, 1.0002]", "(1.0002, 1.0003]"},
		intervalLabels([]float64{1.0001, 1.0002, 1.0003}))
	assert.Equal(t, []string{"(-0.001, 0.001]"}, intervalLabels([]float64{-0.001, 0.001}))
}

func TestMarkerColor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, ColorGreen},
		{0.75, ColorGreen},
		{0.7499, ColorOrange},
		{0.5, ColorOrange},
		{0.4999, ColorRed},
		{0, ColorRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarkerColor(tt.rate), "rate %v", tt.rate)
	}
}

func TestSiteMap(t *testing.T) {
	m := SiteMap()
	assert.Equal(t, 39.8283, m.CenterLatitude)
	assert.Equal(t, -98.5795, m.CenterLongitude)
	assert.Equal(t, 4, m.Zoom)
	require.Len(t, m.Markers, 4)

	colors := map[string]string{}
	for _, mk := range m.Markers {
		colors[mk.Name] = mk.Color
	}
	assert.Equal(t, map[string]string{
		"CCSFS SLC 40":    ColorOrange,
		"VAFB SLC 4E":     ColorGreen,
		"KSC LC 39A":      ColorGreen,
		"Kwajalein Atoll": ColorRed,
	}, colors)
	assert.Equal(t, "KSC LC 39A: 82.76%", m.Markers[2].Popup)
}

func TestSummarize(t *testing.T) {
	ds := loadSample(t)

	s, err := ds.Summarize(Filter{Outcome: "Success"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Filter.Outcome)
	assert.Equal(t, 4, s.KPIs.Total)
	assert.Equal(t, 100.0, s.KPIs.SuccessRate)
	assert.Len(t, s.BySite, 2)
	assert.Len(t, s.Scatter, 4)
	assert.Len(t, s.Map.Markers, 4)

	_, err = ds.Summarize(Filter{Outcome: "sometimes"})
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}
