package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"falcon-dash/internal/common"
	"falcon-dash/internal/features"
	"falcon-dash/internal/launches"
	"falcon-dash/internal/ml"
	"falcon-dash/internal/spacex"
	"falcon-dash/internal/storage"

	"github.com/rs/zerolog/log"
)

const (
	maxPredictBody     = 64 << 10
	defaultRecentLimit = 20
	maxRecentLimit     = 500
	snapshotPreview    = 10
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// predictStatus maps a prediction error to the HTTP status shown to the
// user. Artifact errors come first since they can also wrap a schema
// mismatch.
func predictStatus(err error) int {
	switch {
	case errors.Is(err, ml.ErrArtifactLoad):
		return http.StatusServiceUnavailable
	case errors.Is(err, features.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, features.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var raw features.RawLaunch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", features.ErrInvalidInput, err))
		return
	}

	if s.cfg.Predictor == nil {
		writeError(w, http.StatusServiceUnavailable, ml.ErrArtifactLoad)
		return
	}

	res, err := s.cfg.Predictor.Predict(r.Context(), raw)
	if err != nil {
		writeError(w, predictStatus(err), err)
		return
	}

	if s.cfg.Predictions != nil {
		record := storage.PredictionRecord{
			RequestID:    res.RequestID,
			Timestamp:    res.Timestamp,
			Input:        raw,
			Class:        string(res.Class),
			Probability:  res.Probability,
			ModelVersion: res.ModelVersion,
		}
		if err := s.cfg.Predictions.StorePrediction(record); err != nil {
			log.Warn().Err(err).Str("request_id", res.RequestID).Msg("Failed to store prediction")
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Predictions == nil {
		writeJSON(w, http.StatusOK, []storage.PredictionRecord{})
		return
	}

	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records, err := s.cfg.Predictions.RecentPredictions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type formBounds struct {
	MinFlightNumber int     `json:"min_flight_number"`
	MinPayloadMass  float64 `json:"min_payload_mass"`
	MaxPayloadMass  float64 `json:"max_payload_mass"`
	PayloadMassStep float64 `json:"payload_mass_step"`
	MinFlights      int     `json:"min_flights"`
}

type optionsResponse struct {
	Orbits   []string           `json:"orbits"`
	Sites    []string           `json:"sites"`
	Defaults features.RawLaunch `json:"defaults"`
	Bounds   formBounds         `json:"bounds"`
	Dataset  launches.Options   `json:"dataset"`
}

func defaultLaunch() features.RawLaunch {
	return features.RawLaunch{
		FlightNumber:   common.DefaultFlightNumber,
		PayloadMass:    common.DefaultPayloadMass,
		Flights:        common.DefaultFlights,
		Orbit:          common.OrbitCodes[0],
		LaunchSiteName: common.LaunchSites[0],
	}
}

func (s *Server) options() optionsResponse {
	return optionsResponse{
		Orbits:   common.OrbitCodes,
		Sites:    common.LaunchSites,
		Defaults: defaultLaunch(),
		Bounds: formBounds{
			MinFlightNumber: common.MinFlightNumber,
			MinPayloadMass:  common.MinPayloadMass,
			MaxPayloadMass:  common.MaxPayloadMass,
			PayloadMassStep: common.PayloadMassStep,
			MinFlights:      common.MinFlights,
		},
		Dataset: s.cfg.Dataset.Options(),
	}
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.options())
}

// filterFromQuery builds a slicer selection from query parameters. A
// repeated site or orbit key lists values; a key present with an empty
// value selects nothing.
func filterFromQuery(q url.Values) (launches.Filter, error) {
	f := launches.DefaultFilter()

	if vals, ok := q["site"]; ok {
		f.Sites = nonEmpty(vals)
	}
	if vals, ok := q["orbit"]; ok {
		f.Orbits = nonEmpty(vals)
	}

	for key, dst := range map[string]**float64{
		"payload_min": &f.PayloadMin,
		"payload_max": &f.PayloadMax,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return launches.Filter{}, fmt.Errorf("%w: %s=%q", launches.ErrInvalidFilter, key, v)
		}
		*dst = &n
	}

	if v := q.Get("outcome"); v != "" {
		f.Outcome = launches.Outcome(v)
	}
	return f, nil
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) summarize(f launches.Filter) (launches.Summary, error) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.DashboardQueriesInc()
	}
	return s.cfg.Dataset.Summarize(f)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	summary, err := s.summarize(f)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, launches.ErrInvalidFilter) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type modelResponse struct {
	Version    string             `json:"version"`
	ModelPath  string             `json:"model_path"`
	ScalerKind string             `json:"scaler_kind"`
	Columns    int                `json:"columns"`
	LoadedAt   time.Time          `json:"loaded_at"`
	Features   []ml.FeatureWeight `json:"features"`
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Models == nil {
		writeError(w, http.StatusNotFound, errors.New("model inspection is not enabled"))
		return
	}

	a, err := s.cfg.Models.Get()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	weights := ml.FeatureImportance(a)
	if weights == nil {
		weights = []ml.FeatureWeight{}
	}
	writeJSON(w, http.StatusOK, modelResponse{
		Version:    a.Model.Version(),
		ModelPath:  a.ModelPath,
		ScalerKind: a.Scaler.Kind(),
		Columns:    a.Scaler.Schema().Len(),
		LoadedAt:   a.LoadedAt,
		Features:   weights,
	})
}

type snapshotResponse struct {
	Available bool            `json:"available"`
	FetchedAt *time.Time      `json:"fetched_at,omitempty"`
	Count     int             `json:"count"`
	Landed    int             `json:"landed"`
	Recent    []spacex.Launch `json:"recent,omitempty"`
}

// handleSnapshot reports the latest launch API fetch. The snapshot file
// is opened read-only per request so the fetch command can replace it
// between requests.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	store, err := storage.OpenReadOnly(s.cfg.DataPath)
	if errors.Is(err, storage.ErrNoSnapshot) {
		writeJSON(w, http.StatusOK, snapshotResponse{})
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer store.Close()

	snap, err := store.Snapshot()
	if errors.Is(err, storage.ErrNoSnapshot) {
		writeJSON(w, http.StatusOK, snapshotResponse{})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := snapshotResponse{
		Available: true,
		FetchedAt: &snap.FetchedAt,
		Count:     snap.Count,
	}
	parsed := make([]spacex.Launch, 0, len(snap.Records))
	for i, raw := range snap.Records {
		var l spacex.Launch
		if err := json.Unmarshal(raw, &l); err != nil {
			log.Warn().Err(err).Int("record", i).Msg("Skipping unreadable snapshot record")
			continue
		}
		if landed := l.Landed(); landed != nil && *landed {
			resp.Landed++
		}
		parsed = append(parsed, l)
	}

	// Newest launches last in API order.
	start := len(parsed) - snapshotPreview
	if start < 0 {
		start = 0
	}
	recent := parsed[start:]
	resp.Recent = make([]spacex.Launch, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		resp.Recent = append(resp.Recent, recent[i])
	}

	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status     string `json:"status"`
	ModelReady bool   `json:"model_ready"`
	ModelError string `json:"model_error,omitempty"`
	Launches   int    `json:"launches"`
}

// handleHealth always answers 200 while the process serves; a model that
// cannot load only degrades the status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Launches: s.cfg.Dataset.Len()}

	var err error
	if s.cfg.Predictor == nil {
		err = errors.New("no predictor configured")
	} else {
		err = s.cfg.Predictor.Ready()
	}
	if err != nil {
		resp.Status = "degraded"
		resp.ModelError = err.Error()
	} else {
		resp.ModelReady = true
	}

	writeJSON(w, http.StatusOK, resp)
}
