package feed

// Derived fields (IDs, parsed coordinates, flags) are computed once here at
// construction and carried on the record, never recomputed on access.

// Alert is one civil-defense alert.
type Alert struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Message  string `json:"message"`
	HasGeo   bool   `json:"has_geo"`
	HasAudio bool   `json:"has_audio"`
	AudioURL string `json:"audio_url,omitempty"`
}

// DecodeAlert builds an Alert from cleaned fields. An alert without a name
// is unusable and rejected.
func DecodeAlert(f Fields) (Alert, bool) {
	name := f.Str(alertFieldName)
	if name == "" {
		return Alert{}, false
	}
	msg := f.Str(alertFieldMessage)
	return Alert{
		ID:       RecordID(DomainAlerts, name, msg),
		Name:     name,
		Message:  msg,
		HasGeo:   f.Bool(alertFieldGeoFlag),
		HasAudio: f.Bool(alertFieldAudioFlag),
		AudioURL: f.Str(alertFieldAudioURL),
	}, true
}

// WeatherReport is one regional weather bulletin entry.
type WeatherReport struct {
	ID          string   `json:"id"`
	Region      string   `json:"region"`
	Condition   string   `json:"condition"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

// DecodeWeatherReport builds a WeatherReport from cleaned fields.
func DecodeWeatherReport(f Fields) (WeatherReport, bool) {
	region := f.Str(weatherFieldRegion)
	if region == "" {
		return WeatherReport{}, false
	}
	cond := f.Str(weatherFieldCondition)
	return WeatherReport{
		ID:          RecordID(DomainWeatherReports, region, cond),
		Region:      region,
		Condition:   cond,
		Temperature: f.Float(weatherFieldTemperature),
		Humidity:    f.Float(weatherFieldHumidity),
	}, true
}

// TrafficReport is one regional traffic bulletin entry.
type TrafficReport struct {
	ID          string `json:"id"`
	Region      string `json:"region"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// DecodeTrafficReport builds a TrafficReport from cleaned fields.
func DecodeTrafficReport(f Fields) (TrafficReport, bool) {
	region := f.Str(trafficFieldRegion)
	if region == "" {
		return TrafficReport{}, false
	}
	status := f.Str(trafficFieldStatus)
	return TrafficReport{
		ID:          RecordID(DomainTrafficReports, region, status),
		Region:      region,
		Status:      status,
		Description: f.Str(trafficFieldDescription),
	}, true
}

// Camera is one traffic camera. Coordinates may be absent; a camera without
// coordinates is still listed, it just never sorts into nearby results.
type Camera struct {
	ID   string   `json:"id"`
	Code string   `json:"code"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
	// DistanceMeters is populated only when the caller supplied a location.
	DistanceMeters *float64 `json:"distance_m,omitempty"`
}

// DecodeCamera builds a Camera from cleaned fields.
func DecodeCamera(f Fields) (Camera, bool) {
	code := f.Str(cameraFieldID)
	name := f.Str(cameraFieldName)
	if code == "" && name == "" {
		return Camera{}, false
	}
	return Camera{
		ID:   RecordID(DomainCameras, code, name),
		Code: code,
		Name: name,
		Lat:  f.Float(cameraFieldLat),
		Lon:  f.Float(cameraFieldLon),
	}, true
}

// Siren is one alarm siren installation.
type Siren struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	Status         string   `json:"status,omitempty"`
	DistanceMeters *float64 `json:"distance_m,omitempty"`
}

// DecodeSiren builds a Siren from cleaned fields.
func DecodeSiren(f Fields) (Siren, bool) {
	code := f.Str(sirenFieldID)
	name := f.Str(sirenFieldName)
	if code == "" && name == "" {
		return Siren{}, false
	}
	return Siren{
		ID:     RecordID(DomainSirens, code, name),
		Code:   code,
		Name:   name,
		Lat:    f.Float(sirenFieldLat),
		Lon:    f.Float(sirenFieldLon),
		Status: f.Str(sirenFieldStatus),
	}, true
}

// Facility is one support point, health unit, or cooling point.
type Facility struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Hours        string   `json:"hours,omitempty"`
}

// FacilityDecoder returns a decode function bound to the given domain so the
// three directory feeds that share this layout still get domain-scoped IDs.
func FacilityDecoder(domain DomainID) func(Fields) (Facility, bool) {
	return func(f Fields) (Facility, bool) {
		name := f.Str(facilityFieldName)
		if name == "" {
			return Facility{}, false
		}
		addr := f.Str(facilityFieldAddress)
		return Facility{
			ID:           RecordID(domain, name, addr),
			Name:         name,
			Address:      addr,
			Neighborhood: f.Str(facilityFieldNeighborhood),
			Lat:          f.Float(facilityFieldLat),
			Lon:          f.Float(facilityFieldLon),
			Hours:        f.Str(facilityFieldHours),
		}, true
	}
}

// StatusLevel is the single-record payload of the operational stage and heat
// level feeds.
type StatusLevel struct {
	ID          string `json:"id"`
	Level       string `json:"level"`
	Since       string `json:"since,omitempty"`
	Description string `json:"description,omitempty"`
}

// StatusLevelDecoder returns a decode function bound to the given domain.
func StatusLevelDecoder(domain DomainID) func(Fields) (StatusLevel, bool) {
	return func(f Fields) (StatusLevel, bool) {
		level := f.Str(statusFieldLevel)
		if level == "" {
			return StatusLevel{}, false
		}
		return StatusLevel{
			ID:          RecordID(domain, level, f.Str(statusFieldSince)),
			Level:       level,
			Since:       f.Str(statusFieldSince),
			Description: f.Str(statusFieldDescription),
		}, true
	}
}

// Recommendation is one civil-defense recommendation.
type Recommendation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DecodeRecommendation builds a Recommendation from cleaned fields.
func DecodeRecommendation(f Fields) (Recommendation, bool) {
	title := f.Str(recFieldTitle)
	text := f.Str(recFieldText)
	if title == "" || text == "" {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:    RecordID(DomainRecommendations, title, text),
		Title: title,
		Text:  text,
	}, true
}

// Interdiction is one road interdiction notice.
type Interdiction struct {
	ID      string `json:"id"`
	Road    string `json:"road"`
	Stretch string `json:"stretch,omitempty"`
	Reason  string `json:"reason"`
	Since   string `json:"since,omitempty"`
}

// DecodeInterdiction builds an Interdiction from cleaned fields.
func DecodeInterdiction(f Fields) (Interdiction, bool) {
	road := f.Str(interdictionFieldRoad)
	if road == "" {
		return Interdiction{}, false
	}
	return Interdiction{
		ID:      RecordID(DomainInterdictions, road, f.Str(interdictionFieldStretch), f.Str(interdictionFieldReason)),
		Road:    road,
		Stretch: f.Str(interdictionFieldStretch),
		Reason:  f.Str(interdictionFieldReason),
		Since:   f.Str(interdictionFieldSince),
	}, true
}

// RainStation is one rain gauge with its accumulation readings
// (5min, 15min, 1h, 4h, 24h, 96h). Offline gauges report blank readings.
type RainStation struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	Municipality string                     `json:"municipality,omitempty"`
	Readings     [rainReadingCount]*float64 `json:"readings"`
	Source       string                     `json:"source,omitempty"`
	Status       string                     `json:"status,omitempty"`
}

// DecodeRainStation builds a RainStation from cleaned fields.
func DecodeRainStation(f Fields) (RainStation, bool) {
	name := f.Str(rainFieldName)
	if name == "" {
		return RainStation{}, false
	}
	r := RainStation{
		ID:           RecordID(DomainRainStations, name, f.Str(rainFieldMunicipality)),
		Name:         name,
		Municipality: f.Str(rainFieldMunicipality),
		Source:       f.Str(rainFieldSource),
		Status:       f.Str(rainFieldStatus),
	}
	for i := 0; i < rainReadingCount; i++ {
		r.Readings[i] = f.Float(rainFieldFirstReading + i)
	}
	return r, true
}

// Reading1h returns the one-hour accumulation, or nil when unavailable.
// It is the reading the background derivation keys off.
func (r RainStation) Reading1h() *float64 {
	return r.Readings[2]
}

// SkyStation is one sky observation post.
type SkyStation struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Condition    string   `json:"condition"`
	VisibilityKM *float64 `json:"visibility_km,omitempty"`
}

// DecodeSkyStation builds a SkyStation from cleaned fields.
func DecodeSkyStation(f Fields) (SkyStation, bool) {
	name := f.Str(skyFieldName)
	if name == "" {
		return SkyStation{}, false
	}
	cond := f.Str(skyFieldCondition)
	return SkyStation{
		ID:           RecordID(DomainSkyStations, name, cond),
		Name:         name,
		Condition:    cond,
		VisibilityKM: f.Float(skyFieldVisibility),
	}, true
}

// SunInfo is the single sunrise/sunset record, times as "HH:MM" local.
type SunInfo struct {
	ID      string `json:"id"`
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
	Date    string `json:"date,omitempty"`
}

// DecodeSunInfo builds a SunInfo from cleaned fields.
func DecodeSunInfo(f Fields) (SunInfo, bool) {
	sunrise := f.Str(sunFieldSunrise)
	sunset := f.Str(sunFieldSunset)
	if sunrise == "" || sunset == "" {
		return SunInfo{}, false
	}
	return SunInfo{
		ID:      RecordID(DomainSunInfo, sunrise, sunset, f.Str(sunFieldDate)),
		Sunrise: sunrise,
		Sunset:  sunset,
		Date:    f.Str(sunFieldDate),
	}, true
}

// MeteoStation is one meteorological station sample.
type MeteoStation struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	WindKMH     *float64 `json:"wind_kmh,omitempty"`
}

// DecodeMeteoStation builds a MeteoStation from cleaned fields.
func DecodeMeteoStation(f Fields) (MeteoStation, bool) {
	code := f.Str(meteoFieldID)
	name := f.Str(meteoFieldName)
	if code == "" && name == "" {
		return MeteoStation{}, false
	}
	return MeteoStation{
		ID:          RecordID(DomainMeteoStations, code, name),
		Code:        code,
		Name:        name,
		Lat:         f.Float(meteoFieldLat),
		Lon:         f.Float(meteoFieldLon),
		Temperature: f.Float(meteoFieldTemperature),
		Humidity:    f.Float(meteoFieldHumidity),
		Pressure:    f.Float(meteoFieldPressure),
		WindKMH:     f.Float(meteoFieldWind),
	}, true
}
