package api

import (
	"net/http"
	"time"

	"github.com/civitas-app/civitas/internal/buildinfo"
	"github.com/civitas-app/civitas/internal/cache"
	"github.com/civitas-app/civitas/internal/config"
	"github.com/civitas-app/civitas/internal/orchestrator"
)

// HandleHealthz returns a handler for GET /healthz.
// No authentication is required.
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// StatusResponse is the payload of GET /api/v1/status.
type StatusResponse struct {
	Version     string          `json:"version"`
	GitCommit   string          `json:"git_commit"`
	BuildTime   string          `json:"build_time"`
	UptimeSecs  int64           `json:"uptime_seconds"`
	Offline     bool            `json:"offline"`
	OnlineTTL   config.Duration `json:"cache_online_ttl"`
	OfflineTTL  config.Duration `json:"cache_offline_ttl"`
	SnapshotTTL config.Duration `json:"snapshot_ttl"`
}

// HandleStatus returns a handler for GET /api/v1/status.
func HandleStatus(svc *cache.Service, cfg *config.EnvConfig, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, StatusResponse{
			Version:     buildinfo.Version,
			GitCommit:   buildinfo.GitCommit,
			BuildTime:   buildinfo.BuildTime,
			UptimeSecs:  int64(time.Since(startedAt).Seconds()),
			Offline:     svc.Offline(),
			OnlineTTL:   config.Duration(cfg.OnlineTTL),
			OfflineTTL:  config.Duration(cfg.OfflineTTL),
			SnapshotTTL: config.Duration(cfg.SnapshotTTL),
		})
	}
}

// HandleCacheClear returns a handler for POST /api/v1/admin/cache/clear.
// It empties both cache tiers and drops every snapshot.
func HandleCacheClear(o *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := o.ClearCache(); err != nil {
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "cache clear failed: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

type offlineRequest struct {
	Offline bool `json:"offline"`
}

// HandleSetOffline returns a handler for POST /api/v1/admin/offline.
// Entering offline mode stops upstream fetching and extends cache TTLs;
// snapshots are dropped so the change takes effect on the next request.
func HandleSetOffline(svc *cache.Service, o *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req offlineRequest
		if err := DecodeBody(r, &req); err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		svc.SetOffline(req.Offline)
		o.InvalidateSnapshots()
		WriteJSON(w, http.StatusOK, map[string]bool{"offline": req.Offline})
	}
}
