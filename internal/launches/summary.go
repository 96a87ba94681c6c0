package launches

// Summary is everything the dashboard page draws for one filter.
type Summary struct {
	Filter  Filter         `json:"filter"`
	KPIs    KPIs           `json:"kpis"`
	BySite  []GroupRate    `json:"by_site"`
	ByOrbit []GroupRate    `json:"by_orbit"`
	Scatter []ScatterPoint `json:"scatter"`
	Heatmap Heatmap        `json:"heatmap"`
	Map     MapView        `json:"map"`
}

// Summarize applies f and computes every aggregate over the result.
func (d *Dataset) Summarize(f Filter) (Summary, error) {
	if err := f.Validate(); err != nil {
		return Summary{}, err
	}
	view, err := d.Apply(f)
	if err != nil {
		return Summary{}, err
	}

	bySite, err := view.SuccessRateBy(BySite)
	if err != nil {
		return Summary{}, err
	}
	byOrbit, err := view.SuccessRateBy(ByOrbit)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Filter:  f,
		KPIs:    view.KPIs(),
		BySite:  bySite,
		ByOrbit: byOrbit,
		Scatter: view.PayloadScatter(),
		Heatmap: view.Heatmap(),
		Map:     SiteMap(),
	}, nil
}
