package launches

import (
	"fmt"

	"falcon-dash/internal/common"
)

// Marker colours by historical landing rate.
const (
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorRed    = "red"
)

// MarkerColor maps a landing rate to its map colour: green from 0.75,
// orange from 0.5, red below.
func MarkerColor(rate float64) string {
	switch {
	case rate >= 0.75:
		return ColorGreen
	case rate >= 0.5:
		return ColorOrange
	default:
		return ColorRed
	}
}

// SiteMarker is one launch site on the map.
type SiteMarker struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SuccessRate float64 `json:"success_rate"`
	Color       string  `json:"color"`
	Popup       string  `json:"popup"`
}

// MapView is the launch site map with its initial viewport.
type MapView struct {
	CenterLatitude  float64      `json:"center_latitude"`
	CenterLongitude float64      `json:"center_longitude"`
	Zoom            int          `json:"zoom"`
	Markers         []SiteMarker `json:"markers"`
}

// SiteMap returns the fixed launch site markers. The rates are
// precomputed over the full history and do not follow the slicers.
func SiteMap() MapView {
	markers := make([]SiteMarker, len(common.SiteLocations))
	for i, s := range common.SiteLocations {
		markers[i] = SiteMarker{
			Name:        s.Name,
			Latitude:    s.Latitude,
			Longitude:   s.Longitude,
			SuccessRate: s.SuccessRate,
			Color:       MarkerColor(s.SuccessRate),
			Popup:       fmt.Sprintf("%s: %.2f%%", s.Name, s.SuccessRate*100),
		}
	}
	return MapView{
		CenterLatitude:  common.MapCenterLatitude,
		CenterLongitude: common.MapCenterLongitude,
		Zoom:            common.MapZoom,
		Markers:         markers,
	}
}
