package metrics

import (
	"strconv"
)

// MetricsWrapper adapts Metrics to the narrow interfaces the predictor,
// the launch client and the dashboard depend on.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc(class string) {
	w.m.PredictionsTotal.WithLabelValues(class).Inc()
}

func (w *MetricsWrapper) PredictionFailuresInc(reason string) {
	w.m.PredictionFailures.WithLabelValues(reason).Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) PredictionLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}

func (w *MetricsWrapper) PredictionScoresObserve(v float64) {
	w.m.PredictionScores.Observe(v)
}

func (w *MetricsWrapper) UnrecognizedCategoryInc(field string) {
	w.m.UnrecognizedCategories.WithLabelValues(field).Inc()
}

func (w *MetricsWrapper) ArtifactLoadErrorsInc() {
	w.m.ArtifactLoadErrors.Inc()
}

func (w *MetricsWrapper) ModelAgeSet(v float64) {
	w.m.ModelAge.Set(v)
}

// FetchObserve records one launch API fetch. records is ignored when err
// is non-nil.
func (w *MetricsWrapper) FetchObserve(seconds float64, records int, err error) {
	w.m.FetchesTotal.Inc()
	w.m.FetchDuration.Observe(seconds)
	if err != nil {
		w.m.FetchFailures.Inc()
		w.m.ErrorsTotal.Inc()
		return
	}
	w.m.LaunchesFetched.Set(float64(records))
}

func (w *MetricsWrapper) HTTPRequestInc(route string, code int) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (w *MetricsWrapper) WSClientsAdd(delta float64) {
	w.m.WSClients.Add(delta)
}

func (w *MetricsWrapper) DashboardQueriesInc() {
	w.m.DashboardQueries.Inc()
}
