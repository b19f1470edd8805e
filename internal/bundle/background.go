package bundle

import (
	"strings"
	"time"

	"github.com/civitas-app/civitas/internal/feed"
)

// Background selectors. The presentation layer maps these to actual assets;
// the engine only derives which one applies.
const (
	BackgroundDayClear       = "day-clear"
	BackgroundDayCloudy      = "day-cloudy"
	BackgroundDayRain        = "day-rain"
	BackgroundDayRainHeavy   = "day-rain-heavy"
	BackgroundNightClear     = "night-clear"
	BackgroundNightCloudy    = "night-cloudy"
	BackgroundNightRain      = "night-rain"
	BackgroundNightRainHeavy = "night-rain-heavy"
)

// Rain thresholds in mm over the one-hour accumulation, matching the civil
// defense classification of drizzle vs heavy rain.
const (
	rainThresholdMM      = 0.2
	heavyRainThresholdMM = 25.0
)

// Fallback day window used when no sunrise/sunset record is available.
const (
	fallbackDayStartHour = 6
	fallbackDayEndHour   = 18
)

// SelectBackground derives the background selector from the rain gauges,
// the sky observations, and the day/night window.
func SelectBackground(rain []feed.RainStation, sky []feed.SkyStation, sun *feed.SunInfo, now time.Time) string {
	day := isDaytime(sun, now)

	switch rainSeverity(rain) {
	case rainHeavy:
		if day {
			return BackgroundDayRainHeavy
		}
		return BackgroundNightRainHeavy
	case rainModerate:
		if day {
			return BackgroundDayRain
		}
		return BackgroundNightRain
	}

	if skyCloudy(sky) {
		if day {
			return BackgroundDayCloudy
		}
		return BackgroundNightCloudy
	}
	if day {
		return BackgroundDayClear
	}
	return BackgroundNightClear
}

type severity int

const (
	rainNone severity = iota
	rainModerate
	rainHeavy
)

// rainSeverity classifies the worst one-hour accumulation across gauges.
func rainSeverity(stations []feed.RainStation) severity {
	max := 0.0
	for _, st := range stations {
		if v := st.Reading1h(); v != nil && *v > max {
			max = *v
		}
	}
	switch {
	case max >= heavyRainThresholdMM:
		return rainHeavy
	case max >= rainThresholdMM:
		return rainModerate
	}
	return rainNone
}

// cloudyConditions are the upstream condition words meaning an overcast sky.
var cloudyConditions = []string{"nublado", "encoberto", "cloudy", "overcast", "nublada"}

// skyCloudy reports whether a majority of sky stations observe cloud cover.
func skyCloudy(stations []feed.SkyStation) bool {
	if len(stations) == 0 {
		return false
	}
	cloudy := 0
	for _, st := range stations {
		cond := strings.ToLower(st.Condition)
		for _, w := range cloudyConditions {
			if strings.Contains(cond, w) {
				cloudy++
				break
			}
		}
	}
	return cloudy*2 > len(stations)
}

// isDaytime compares now against the sunrise/sunset record when present,
// otherwise against the fixed fallback window.
func isDaytime(sun *feed.SunInfo, now time.Time) bool {
	if sun != nil {
		sunrise, okRise := parseClock(sun.Sunrise)
		sunset, okSet := parseClock(sun.Sunset)
		if okRise && okSet {
			minutes := now.Hour()*60 + now.Minute()
			return minutes >= sunrise && minutes < sunset
		}
	}
	return now.Hour() >= fallbackDayStartHour && now.Hour() < fallbackDayEndHour
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
