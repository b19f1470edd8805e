package api

import (
	"net/http"

	"github.com/civitas-app/civitas/internal/geo"
	"github.com/civitas-app/civitas/internal/orchestrator"
)

func parseOrigin(w http.ResponseWriter, r *http.Request) (geo.Point, bool) {
	lat, err := ParseFloatQuery(r, "lat")
	if err != nil {
		writeInvalidArgument(w, err.Error())
		return geo.Point{}, false
	}
	lon, err := ParseFloatQuery(r, "lon")
	if err != nil {
		writeInvalidArgument(w, err.Error())
		return geo.Point{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeInvalidArgument(w, "lat/lon out of range")
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}

// HandleCamerasNearby returns a handler for GET /api/v1/cameras/nearby.
func HandleCamerasNearby(o *orchestrator.Orchestrator, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin, ok := parseOrigin(w, r)
		if !ok {
			return
		}
		limit, err := ParseLimitQuery(r, defaultLimit)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}

		cams, err := o.CamerasNearby(r.Context(), r.URL.Query().Get("lang"), origin, limit)
		if err != nil {
			writeBundleError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"cameras": cams})
	}
}

// HandleSirensNearby returns a handler for GET /api/v1/sirens/nearby.
func HandleSirensNearby(o *orchestrator.Orchestrator, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin, ok := parseOrigin(w, r)
		if !ok {
			return
		}
		limit, err := ParseLimitQuery(r, defaultLimit)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}

		sirens, err := o.SirensNearby(r.Context(), r.URL.Query().Get("lang"), origin, limit)
		if err != nil {
			writeBundleError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"sirens": sirens})
	}
}
