package api

import (
	"net/http"

	"github.com/civitas-app/civitas/internal/feed"
	"github.com/civitas-app/civitas/internal/orchestrator"
)

// HandleGetBundle returns a handler for GET /api/v1/bundle.
// The lang query parameter selects the language variant; unsupported codes
// fall back to the default.
func HandleGetBundle(o *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := o.Bundle(r.Context(), r.URL.Query().Get("lang"))
		if err != nil {
			writeBundleError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, b)
	}
}

// HandleGetDomain returns a handler for GET /api/v1/domains/{domain}.
func HandleGetDomain(o *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := feed.DomainID(r.PathValue("domain"))
		if !id.IsValid() {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "unknown domain: "+string(id))
			return
		}

		b, err := o.Bundle(r.Context(), r.URL.Query().Get("lang"))
		if err != nil {
			writeBundleError(w, err)
			return
		}
		section, _ := b.Section(id)
		WriteJSON(w, http.StatusOK, map[string]any{
			"domain":     id,
			"refresh_id": b.RefreshID,
			"source":     b.Sources[id],
			"data":       section,
		})
	}
}

// HandleForceRefresh returns a handler for POST /api/v1/admin/refresh.
// It bypasses the snapshot and runs a full fan-out.
func HandleForceRefresh(o *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := o.Refresh(r.Context(), r.URL.Query().Get("lang"))
		if err != nil {
			writeBundleError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"refresh_id":   b.RefreshID,
			"assembled_at": b.AssembledAt,
			"sources":      b.Sources,
		})
	}
}
