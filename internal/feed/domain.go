// Package feed defines the static feed registry: one descriptor per upstream
// domain, the per-domain delimited schemas, and the typed records the parser
// produces from them.
package feed

import "strings"

// DomainID identifies one logical upstream feed.
type DomainID string

const (
	DomainAlerts           DomainID = "alerts"
	DomainWeatherReports   DomainID = "weather_reports"
	DomainTrafficReports   DomainID = "traffic_reports"
	DomainEvents           DomainID = "events"
	DomainCameras          DomainID = "cameras"
	DomainSirens           DomainID = "sirens"
	DomainSupportPoints    DomainID = "support_points"
	DomainHealthUnits      DomainID = "health_units"
	DomainCoolingPoints    DomainID = "cooling_points"
	DomainOperationalStage DomainID = "operational_stage"
	DomainHeatLevel        DomainID = "heat_level"
	DomainRecommendations  DomainID = "recommendations"
	DomainInterdictions    DomainID = "interdictions"
	DomainRainStations     DomainID = "rain_stations"
	DomainSkyStations      DomainID = "sky_stations"
	DomainSunInfo          DomainID = "sun_info"
	DomainMeteoStations    DomainID = "meteo_stations"
)

// IsValid reports whether id names a known domain.
func (id DomainID) IsValid() bool {
	_, ok := defaultRegistry[id]
	return ok
}

// PayloadKind is the wire format of a domain's response body.
type PayloadKind string

const (
	// PayloadDelimitedLines is the ad-hoc "one record per line, fields split
	// on a delimiter" format most domains use.
	PayloadDelimitedLines PayloadKind = "delimited_lines"
	// PayloadJSONDocument is a structured JSON envelope (events only).
	PayloadJSONDocument PayloadKind = "json_document"
)

const (
	// DefaultLanguage is the upstream default; unsupported codes fall back
	// here deterministically.
	DefaultLanguage = "pt"

	// langPlaceholder is substituted into URL templates of language-variant
	// domains.
	langPlaceholder = "{lang}"
)

// supportedLanguages is the set of language codes the upstream publishes.
var supportedLanguages = map[string]bool{
	"pt": true,
	"en": true,
	"es": true,
}

// NormalizeLanguage maps an arbitrary caller-supplied code to a supported
// one. Unsupported or empty codes resolve to DefaultLanguage; this keeps the
// cache keyspace closed over the supported set.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if supportedLanguages[code] {
		return code
	}
	return DefaultLanguage
}

// Descriptor is the static configuration of one domain.
type Descriptor struct {
	ID              DomainID
	URLTemplate     string
	LanguageVariant bool
	Payload         PayloadKind
	Schema          Schema
	// MaxRecords bounds the parsed record list (applied after filtering
	// malformed lines).
	MaxRecords int
	// CacheRowCap bounds the record count persisted for this domain; applied
	// by truncation before serialization.
	CacheRowCap int
}

// URL renders the endpoint for the given (already normalized) language code.
// Non-variant domains ignore the code.
func (d Descriptor) URL(lang string) string {
	if !d.LanguageVariant {
		return d.URLTemplate
	}
	return strings.ReplaceAll(d.URLTemplate, langPlaceholder, NormalizeLanguage(lang))
}

// Accept returns the Accept header value for this domain's payload kind.
func (d Descriptor) Accept() string {
	if d.Payload == PayloadJSONDocument {
		return "application/json"
	}
	return "text/plain"
}

// Registry maps domain IDs to their descriptors.
type Registry map[DomainID]Descriptor

const upstreamBase = "https://feeds.cidade.example.gov"

var defaultRegistry = Registry{
	DomainAlerts: {
		ID:              DomainAlerts,
		URLTemplate:     upstreamBase + "/{lang}/alertas.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          AlertSchema,
		MaxRecords:      100,
		CacheRowCap:     100,
	},
	DomainWeatherReports: {
		ID:              DomainWeatherReports,
		URLTemplate:     upstreamBase + "/{lang}/boletim_tempo.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          WeatherReportSchema,
		MaxRecords:      60,
		CacheRowCap:     60,
	},
	DomainTrafficReports: {
		ID:              DomainTrafficReports,
		URLTemplate:     upstreamBase + "/{lang}/boletim_transito.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          TrafficReportSchema,
		MaxRecords:      60,
		CacheRowCap:     60,
	},
	DomainEvents: {
		ID:              DomainEvents,
		URLTemplate:     upstreamBase + "/{lang}/eventos.json",
		LanguageVariant: true,
		Payload:         PayloadJSONDocument,
		MaxRecords:      200,
		CacheRowCap:     200,
	},
	DomainCameras: {
		ID:          DomainCameras,
		URLTemplate: upstreamBase + "/cameras.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      CameraSchema,
		MaxRecords:  1500,
		CacheRowCap: 1200,
	},
	DomainSirens: {
		ID:          DomainSirens,
		URLTemplate: upstreamBase + "/sirenes.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      SirenSchema,
		MaxRecords:  400,
		CacheRowCap: 400,
	},
	DomainSupportPoints: {
		ID:          DomainSupportPoints,
		URLTemplate: upstreamBase + "/pontos_apoio.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      FacilitySchema,
		MaxRecords:  300,
		CacheRowCap: 300,
	},
	DomainHealthUnits: {
		ID:          DomainHealthUnits,
		URLTemplate: upstreamBase + "/unidades_saude.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      FacilitySchema,
		MaxRecords:  400,
		CacheRowCap: 400,
	},
	DomainCoolingPoints: {
		ID:          DomainCoolingPoints,
		URLTemplate: upstreamBase + "/pontos_resfriamento.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      FacilitySchema,
		MaxRecords:  200,
		CacheRowCap: 200,
	},
	DomainOperationalStage: {
		ID:              DomainOperationalStage,
		URLTemplate:     upstreamBase + "/{lang}/estagio.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          StatusLevelSchema,
		MaxRecords:      1,
		CacheRowCap:     20,
	},
	DomainHeatLevel: {
		ID:              DomainHeatLevel,
		URLTemplate:     upstreamBase + "/{lang}/nivel_calor.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          StatusLevelSchema,
		MaxRecords:      1,
		CacheRowCap:     20,
	},
	DomainRecommendations: {
		ID:              DomainRecommendations,
		URLTemplate:     upstreamBase + "/{lang}/recomendacoes.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          RecommendationSchema,
		MaxRecords:      50,
		CacheRowCap:     50,
	},
	DomainInterdictions: {
		ID:              DomainInterdictions,
		URLTemplate:     upstreamBase + "/{lang}/interdicoes.txt",
		LanguageVariant: true,
		Payload:         PayloadDelimitedLines,
		Schema:          InterdictionSchema,
		MaxRecords:      150,
		CacheRowCap:     150,
	},
	DomainRainStations: {
		ID:          DomainRainStations,
		URLTemplate: upstreamBase + "/estacoes_chuva.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      RainStationSchema,
		MaxRecords:  150,
		CacheRowCap: 150,
	},
	DomainSkyStations: {
		ID:          DomainSkyStations,
		URLTemplate: upstreamBase + "/estacoes_ceu.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      SkyStationSchema,
		MaxRecords:  50,
		CacheRowCap: 50,
	},
	DomainSunInfo: {
		ID:          DomainSunInfo,
		URLTemplate: upstreamBase + "/sol.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      SunInfoSchema,
		MaxRecords:  1,
		CacheRowCap: 20,
	},
	DomainMeteoStations: {
		ID:          DomainMeteoStations,
		URLTemplate: upstreamBase + "/estacoes_meteo.txt",
		Payload:     PayloadDelimitedLines,
		Schema:      MeteoStationSchema,
		MaxRecords:  120,
		CacheRowCap: 120,
	},
}

// DefaultRegistry returns a copy of the built-in registry. Callers may
// mutate the returned map freely.
func DefaultRegistry() Registry {
	out := make(Registry, len(defaultRegistry))
	for id, d := range defaultRegistry {
		out[id] = d
	}
	return out
}

// WithURLOverrides returns a copy of r with URL templates replaced for the
// given domains. Unknown domain IDs are ignored.
func (r Registry) WithURLOverrides(overrides map[DomainID]string) Registry {
	out := make(Registry, len(r))
	for id, d := range r {
		if tpl, ok := overrides[id]; ok && tpl != "" {
			d.URLTemplate = tpl
		}
		out[id] = d
	}
	return out
}

// AllDomains lists every domain ID in a stable order (registry iteration
// order is randomized by the map; fan-out and tests want determinism).
func AllDomains() []DomainID {
	return []DomainID{
		DomainAlerts,
		DomainWeatherReports,
		DomainTrafficReports,
		DomainEvents,
		DomainCameras,
		DomainSirens,
		DomainSupportPoints,
		DomainHealthUnits,
		DomainCoolingPoints,
		DomainOperationalStage,
		DomainHeatLevel,
		DomainRecommendations,
		DomainInterdictions,
		DomainRainStations,
		DomainSkyStations,
		DomainSunInfo,
		DomainMeteoStations,
	}
}
