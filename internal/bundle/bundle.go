// Package bundle defines the immutable aggregate snapshot handed to callers
// and the pure assembly that produces it.
package bundle

import (
	"time"

	"github.com/civitas-app/civitas/internal/feed"
)

// Source records where a domain's data in the bundle came from.
type Source string

const (
	SourceFresh  Source = "fresh"
	SourceCached Source = "cached"
	SourceEmpty  Source = "empty"
)

// Bundle is one snapshot across all domains. Every domain field is always
// present (possibly empty); callers never test for existence. A Bundle is
// never mutated after assembly; a new refresh produces a new Bundle.
type Bundle struct {
	RefreshID   string    `json:"refresh_id"`
	Language    string    `json:"language"`
	AssembledAt time.Time `json:"assembled_at"`
	// Background selects the backdrop the presentation layer renders,
	// derived from rain, sky, and the day/night window.
	Background string `json:"background"`
	// Sources maps each domain to where its data came from so the caller
	// can flag staleness per section.
	Sources map[feed.DomainID]Source `json:"sources"`

	Alerts           []feed.Alert          `json:"alerts"`
	WeatherReports   []feed.WeatherReport  `json:"weather_reports"`
	TrafficReports   []feed.TrafficReport  `json:"traffic_reports"`
	Events           []feed.Event          `json:"events"`
	Cameras          []feed.Camera         `json:"cameras"`
	Sirens           []feed.Siren          `json:"sirens"`
	SupportPoints    []feed.Facility       `json:"support_points"`
	HealthUnits      []feed.Facility       `json:"health_units"`
	CoolingPoints    []feed.Facility       `json:"cooling_points"`
	OperationalStage *feed.StatusLevel     `json:"operational_stage"`
	HeatLevel        *feed.StatusLevel     `json:"heat_level"`
	Recommendations  []feed.Recommendation `json:"recommendations"`
	Interdictions    []feed.Interdiction   `json:"interdictions"`
	RainStations     []feed.RainStation    `json:"rain_stations"`
	SkyStations      []feed.SkyStation     `json:"sky_stations"`
	Sun              *feed.SunInfo         `json:"sun"`
	MeteoStations    []feed.MeteoStation   `json:"meteo_stations"`
}

// Results carries the per-domain outcome of one refresh into assembly.
// Slices hold whatever subset of domains succeeded or was cache-restored.
type Results struct {
	Sources map[feed.DomainID]Source

	Alerts           []feed.Alert
	WeatherReports   []feed.WeatherReport
	TrafficReports   []feed.TrafficReport
	Events           []feed.Event
	Cameras          []feed.Camera
	Sirens           []feed.Siren
	SupportPoints    []feed.Facility
	HealthUnits      []feed.Facility
	CoolingPoints    []feed.Facility
	OperationalStage []feed.StatusLevel
	HeatLevel        []feed.StatusLevel
	Recommendations  []feed.Recommendation
	Interdictions    []feed.Interdiction
	RainStations     []feed.RainStation
	SkyStations      []feed.SkyStation
	Sun              []feed.SunInfo
	MeteoStations    []feed.MeteoStation
}

// AllEmpty reports whether no domain produced any data, fresh or cached.
func (r Results) AllEmpty() bool {
	for _, src := range r.Sources {
		if src != SourceEmpty {
			return false
		}
	}
	return true
}

// Assemble merges the per-domain results into an immutable Bundle. Pure:
// no I/O, deterministic given its inputs and now.
func Assemble(r Results, now time.Time, refreshID, language string) *Bundle {
	sources := make(map[feed.DomainID]Source, len(r.Sources))
	for id, src := range r.Sources {
		sources[id] = src
	}

	return &Bundle{
		RefreshID:        refreshID,
		Language:         language,
		AssembledAt:      now,
		Background:       SelectBackground(r.RainStations, r.SkyStations, firstOrNil(r.Sun), now),
		Sources:          sources,
		Alerts:           r.Alerts,
		WeatherReports:   r.WeatherReports,
		TrafficReports:   r.TrafficReports,
		Events:           r.Events,
		Cameras:          r.Cameras,
		Sirens:           r.Sirens,
		SupportPoints:    r.SupportPoints,
		HealthUnits:      r.HealthUnits,
		CoolingPoints:    r.CoolingPoints,
		OperationalStage: firstOrNil(r.OperationalStage),
		HeatLevel:        firstOrNil(r.HeatLevel),
		Recommendations:  r.Recommendations,
		Interdictions:    r.Interdictions,
		RainStations:     r.RainStations,
		SkyStations:      r.SkyStations,
		Sun:              firstOrNil(r.Sun),
		MeteoStations:    r.MeteoStations,
	}
}

// Section returns the bundle's data for one domain, in the same shape the
// bundle itself serializes it. The second return is false for unknown IDs.
func (b *Bundle) Section(id feed.DomainID) (any, bool) {
	switch id {
	case feed.DomainAlerts:
		return b.Alerts, true
	case feed.DomainWeatherReports:
		return b.WeatherReports, true
	case feed.DomainTrafficReports:
		return b.TrafficReports, true
	case feed.DomainEvents:
		return b.Events, true
	case feed.DomainCameras:
		return b.Cameras, true
	case feed.DomainSirens:
		return b.Sirens, true
	case feed.DomainSupportPoints:
		return b.SupportPoints, true
	case feed.DomainHealthUnits:
		return b.HealthUnits, true
	case feed.DomainCoolingPoints:
		return b.CoolingPoints, true
	case feed.DomainOperationalStage:
		return b.OperationalStage, true
	case feed.DomainHeatLevel:
		return b.HeatLevel, true
	case feed.DomainRecommendations:
		return b.Recommendations, true
	case feed.DomainInterdictions:
		return b.Interdictions, true
	case feed.DomainRainStations:
		return b.RainStations, true
	case feed.DomainSkyStations:
		return b.SkyStations, true
	case feed.DomainSunInfo:
		return b.Sun, true
	case feed.DomainMeteoStations:
		return b.MeteoStations, true
	default:
		return nil, false
	}
}

// firstOrNil maps a record-of-one domain's list onto its pointer field.
func firstOrNil[T any](list []T) *T {
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}
