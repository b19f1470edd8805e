package feed

// Schema describes the delimited layout of one domain's lines. Field order
// is part of the versioned contract with the upstream: several feeds have
// historically shifted indices, so the maps below are authoritative and each
// one is pinned by a fixture test built from an observed payload.
type Schema struct {
	Name      string
	Delimiter string
	// MinFields is the minimum field count for a line to be decodable at
	// all. Lines below it are skipped, never fatal.
	MinFields int
}

const defaultDelimiter = ";"

// Alert layout: name;message;geo_flag;audio_flag;audio_url
// Trailing fields are optional; an alert is usable with name+message alone.
const (
	alertFieldName      = 0
	alertFieldMessage   = 1
	alertFieldGeoFlag   = 2
	alertFieldAudioFlag = 3
	alertFieldAudioURL  = 4
)

// AlertSchema is the layout of the alerts feed.
var AlertSchema = Schema{Name: "alerts", Delimiter: defaultDelimiter, MinFields: 2}

// Weather report layout: region;condition;temperature;humidity
const (
	weatherFieldRegion      = 0
	weatherFieldCondition   = 1
	weatherFieldTemperature = 2
	weatherFieldHumidity    = 3
)

// WeatherReportSchema is the layout of the weather bulletin feed.
var WeatherReportSchema = Schema{Name: "weather_reports", Delimiter: defaultDelimiter, MinFields: 2}

// Traffic report layout: region;status;description
const (
	trafficFieldRegion      = 0
	trafficFieldStatus      = 1
	trafficFieldDescription = 2
)

// TrafficReportSchema is the layout of the traffic bulletin feed.
var TrafficReportSchema = Schema{Name: "traffic_reports", Delimiter: defaultDelimiter, MinFields: 2}

// Camera layout: lat;lon;name;id
const (
	cameraFieldLat  = 0
	cameraFieldLon  = 1
	cameraFieldName = 2
	cameraFieldID   = 3
)

// CameraSchema is the layout of the camera inventory feed.
var CameraSchema = Schema{Name: "cameras", Delimiter: defaultDelimiter, MinFields: 4}

// Siren layout: id;name;lat;lon;status
const (
	sirenFieldID     = 0
	sirenFieldName   = 1
	sirenFieldLat    = 2
	sirenFieldLon    = 3
	sirenFieldStatus = 4
)

// SirenSchema is the layout of the siren inventory feed.
var SirenSchema = Schema{Name: "sirens", Delimiter: defaultDelimiter, MinFields: 4}

// Facility layout (support points, health units, cooling points):
// name;address;neighborhood;lat;lon;hours
const (
	facilityFieldName         = 0
	facilityFieldAddress      = 1
	facilityFieldNeighborhood = 2
	facilityFieldLat          = 3
	facilityFieldLon          = 4
	facilityFieldHours        = 5
)

// FacilitySchema is the shared layout of the support-point directories.
var FacilitySchema = Schema{Name: "facilities", Delimiter: defaultDelimiter, MinFields: 3}

// Status-level layout (operational stage, heat level): level;since;description
const (
	statusFieldLevel       = 0
	statusFieldSince       = 1
	statusFieldDescription = 2
)

// StatusLevelSchema is the layout of the single-record stage/level feeds.
var StatusLevelSchema = Schema{Name: "status_level", Delimiter: defaultDelimiter, MinFields: 1}

// Recommendation layout: title;text
const (
	recFieldTitle = 0
	recFieldText  = 1
)

// RecommendationSchema is the layout of the recommendations feed.
var RecommendationSchema = Schema{Name: "recommendations", Delimiter: defaultDelimiter, MinFields: 2}

// Interdiction layout: road;stretch;reason;since
const (
	interdictionFieldRoad    = 0
	interdictionFieldStretch = 1
	interdictionFieldReason  = 2
	interdictionFieldSince   = 3
)

// InterdictionSchema is the layout of the road interdictions feed.
var InterdictionSchema = Schema{Name: "interdictions", Delimiter: defaultDelimiter, MinFields: 3}

// Rain station layout:
// name;municipality;r05min;r15min;r1h;r4h;r24h;r96h;source;status
// Readings use decimal comma and may be blank when the gauge is offline.
const (
	rainFieldName         = 0
	rainFieldMunicipality = 1
	rainFieldFirstReading = 2 // six consecutive reading fields
	rainReadingCount      = 6
	rainFieldSource       = 8
	rainFieldStatus       = 9
)

// RainStationSchema is the layout of the rain gauge feed.
var RainStationSchema = Schema{Name: "rain_stations", Delimiter: defaultDelimiter, MinFields: 8}

// Sky station layout: name;condition;visibility_km
const (
	skyFieldName       = 0
	skyFieldCondition  = 1
	skyFieldVisibility = 2
)

// SkyStationSchema is the layout of the sky observation feed.
var SkyStationSchema = Schema{Name: "sky_stations", Delimiter: defaultDelimiter, MinFields: 2}

// Sun info layout: sunrise;sunset;date
const (
	sunFieldSunrise = 0
	sunFieldSunset  = 1
	sunFieldDate    = 2
)

// SunInfoSchema is the layout of the sunrise/sunset feed.
var SunInfoSchema = Schema{Name: "sun_info", Delimiter: defaultDelimiter, MinFields: 2}

// Meteo station layout: id;name;lat;lon;temperature;humidity;pressure;wind_kmh
//
// Payloads published before 2023 carried lat/lon shifted one position to the
// right (a blank field at index 2). The mapping below matches the current
// upstream order; the pre-2023 variant is intentionally not supported and
// shows up as stations without coordinates, which is the safe degradation.
const (
	meteoFieldID          = 0
	meteoFieldName        = 1
	meteoFieldLat         = 2
	meteoFieldLon         = 3
	meteoFieldTemperature = 4
	meteoFieldHumidity    = 5
	meteoFieldPressure    = 6
	meteoFieldWind        = 7
)

// MeteoStationSchema is the layout of the meteorological station feed.
var MeteoStationSchema = Schema{Name: "meteo_stations", Delimiter: defaultDelimiter, MinFields: 4}
