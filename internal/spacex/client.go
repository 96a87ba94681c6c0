// Package spacex fetches launch records from the public SpaceX REST API.
package spacex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const launchesPath = "/v4/launches"

// MetricsInterface records fetch outcomes.
type MetricsInterface interface {
	FetchObserve(seconds float64, records int, err error)
}

type Client struct {
	base    string
	rest    *resty.Client
	metrics MetricsInterface
}

// NewClient creates an API client rooted at base, e.g.
// https://api.spacexdata.com. metrics may be nil.
func NewClient(base string, timeout time.Duration, metrics MetricsInterface) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")
	return &Client{
		base:    strings.TrimRight(base, "/"),
		rest:    r,
		metrics: metrics,
	}
}

// Core is one first-stage booster flown on a launch.
type Core struct {
	Core           *string `json:"core"`
	Flight         *int    `json:"flight"`
	Gridfins       *bool   `json:"gridfins"`
	Legs           *bool   `json:"legs"`
	Reused         *bool   `json:"reused"`
	LandingAttempt *bool   `json:"landing_attempt"`
	LandingSuccess *bool   `json:"landing_success"`
	LandingType    *string `json:"landing_type"`
	Landpad        *string `json:"landpad"`
}

// Launch is the subset of a launch record the dashboard uses. Pointer
// fields are null in the API for launches that have not happened yet.
type Launch struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FlightNumber int       `json:"flight_number"`
	DateUTC      time.Time `json:"date_utc"`
	Upcoming     bool      `json:"upcoming"`
	Success      *bool     `json:"success"`
	Rocket       string    `json:"rocket"`
	Launchpad    string    `json:"launchpad"`
	Payloads     []string  `json:"payloads"`
	Cores        []Core    `json:"cores"`
}

// Landed reports the landing result of the first core, or nil when no
// landing was attempted or the result is unknown.
func (l Launch) Landed() *bool {
	if len(l.Cores) == 0 {
		return nil
	}
	c := l.Cores[0]
	if c.LandingAttempt == nil || !*c.LandingAttempt {
		return nil
	}
	return c.LandingSuccess
}

// Record is one launch as parsed plus its original JSON.
type Record struct {
	Launch Launch
	Raw    json.RawMessage
}

// GetLaunches fetches every launch record.
func (c *Client) GetLaunches(ctx context.Context) ([]Record, error) {
	start := time.Now()
	records, err := c.getLaunches(ctx)
	if c.metrics != nil {
		c.metrics.FetchObserve(time.Since(start).Seconds(), len(records), err)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("records", len(records)).
		Dur("took", time.Since(start)).
		Msg("Fetched launch records")
	return records, nil
}

func (c *Client) getLaunches(ctx context.Context) ([]Record, error) {
	var raw []json.RawMessage
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(c.base + launchesPath)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	// resty skips decoding when the response is not JSON typed.
	if raw == nil {
		if err := json.Unmarshal(resp.Body(), &raw); err != nil {
			return nil, fmt.Errorf("decode launches: %w", err)
		}
	}

	records := make([]Record, 0, len(raw))
	for i, r := range raw {
		var l Launch
		if err := json.Unmarshal(r, &l); err != nil {
			return nil, fmt.Errorf("decode launch %d: %w", i, err)
		}
		records = append(records, Record{Launch: l, Raw: r})
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
