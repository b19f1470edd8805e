package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/civitas-app/civitas/internal/cache"
	"github.com/civitas-app/civitas/internal/config"
	"github.com/civitas-app/civitas/internal/feed"
	"github.com/civitas-app/civitas/internal/netutil"
	"github.com/civitas-app/civitas/internal/observability"
	"github.com/civitas-app/civitas/internal/orchestrator"
)

const testAdminToken = "api-test-admin-token"

// newTestServer builds a full stack against a fake upstream serving the
// given per-domain bodies. Domains without an entry return 404.
func newTestServer(t *testing.T, bodies map[feed.DomainID]string) *Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[feed.DomainID(r.URL.Path[1:])]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	overrides := make(map[feed.DomainID]string)
	for _, id := range feed.AllDomains() {
		overrides[id] = upstream.URL + "/" + string(id)
	}

	svc, err := cache.NewService(cache.Options{
		Dir:   t.TempDir(),
		Clock: clockwork.NewRealClock(),
		Log:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	fetcher := netutil.NewFetcher(2*time.Second, 5*time.Second, "test-agent")
	t.Cleanup(fetcher.Close)

	registry := prometheus.NewRegistry()
	o := orchestrator.New(orchestrator.Options{
		Registry: feed.DefaultRegistry().WithURLOverrides(overrides),
		Fetcher:  fetcher,
		Cache:    svc,
		Log:      zerolog.Nop(),
		Metrics:  observability.NewMetrics(registry),
	})

	cfg := &config.EnvConfig{
		ListenAddress: "127.0.0.1",
		APIPort:       8480,
		AdminToken:    testAdminToken,
		NearbyLimit:   10,
		OnlineTTL:     2 * time.Minute,
		OfflineTTL:    6 * time.Hour,
		SnapshotTTL:   30 * time.Second,
	}
	return NewServer(cfg, o, svc, registry, time.Now())
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doRequest(t, srv, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestGetBundle(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainCameras: "-22.90;-43.19;Av. Brasil;cam1",
	})

	w := doRequest(t, srv, http.MethodGet, "/api/v1/bundle?lang=pt", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", w.Code, w.Body.String())
	}

	var got struct {
		RefreshID string                   `json:"refresh_id"`
		Language  string                   `json:"language"`
		Cameras   []feed.Camera            `json:"cameras"`
		Sources   map[feed.DomainID]string `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RefreshID == "" || got.Language != "pt" {
		t.Fatalf("identity: %+v", got)
	}
	if len(got.Cameras) != 1 {
		t.Fatalf("cameras: %+v", got.Cameras)
	}
	if got.Sources[feed.DomainCameras] != "fresh" {
		t.Fatalf("cameras source: %q", got.Sources[feed.DomainCameras])
	}
}

func TestGetBundle_NoData(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doRequest(t, srv, http.MethodGet, "/api/v1/bundle", "", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "NO_DATA") {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestGetDomain(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva forte;Fique em casa;1;0;",
	})

	w := doRequest(t, srv, http.MethodGet, "/api/v1/domains/alerts", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", w.Code, w.Body.String())
	}
	var got struct {
		Domain string       `json:"domain"`
		Source string       `json:"source"`
		Data   []feed.Alert `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Domain != "alerts" || got.Source != "fresh" || len(got.Data) != 1 {
		t.Fatalf("payload: %+v", got)
	}
}

func TestGetDomain_Unknown(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva;Msg;0;0;",
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/domains/nonsense", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestCamerasNearby(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainCameras: "-22.906;-43.180;Centro;cam-near\n-22.970;-43.180;Copacabana;cam-far",
	})

	w := doRequest(t, srv, http.MethodGet, "/api/v1/cameras/nearby?lat=-22.905&lon=-43.179&limit=1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", w.Code, w.Body.String())
	}
	var got struct {
		Cameras []feed.Camera `json:"cameras"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Cameras) != 1 || got.Cameras[0].Code != "cam-near" {
		t.Fatalf("cameras: %+v", got.Cameras)
	}
	if got.Cameras[0].DistanceMeters == nil {
		t.Fatal("distance not annotated")
	}
}

func TestCamerasNearby_MissingCoordinates(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainCameras: "-22.90;-43.19;Centro;cam1",
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/cameras/nearby?lat=-22.9", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestCamerasNearby_OutOfRange(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainCameras: "-22.90;-43.19;Centro;cam1",
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/cameras/nearby?lat=123&lon=0", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestAdmin_AuthRequired(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva;Msg;0;0;",
	})

	if w := doRequest(t, srv, http.MethodPost, "/api/v1/admin/cache/clear", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodPost, "/api/v1/admin/cache/clear", "wrong-token", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodPost, "/api/v1/admin/cache/clear", testAdminToken, ""); w.Code != http.StatusOK {
		t.Fatalf("right token: %d", w.Code)
	}
}

func TestAdmin_ForceRefresh(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva;Msg;0;0;",
	})
	w := doRequest(t, srv, http.MethodPost, "/api/v1/admin/refresh", testAdminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "refresh_id") {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestAdmin_SetOffline(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva;Msg;0;0;",
	})

	w := doRequest(t, srv, http.MethodPost, "/api/v1/admin/offline", testAdminToken, `{"offline":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", w.Code, w.Body.String())
	}

	status := doRequest(t, srv, http.MethodGet, "/api/v1/status", "", "")
	if status.Code != http.StatusOK {
		t.Fatalf("status endpoint: %d", status.Code)
	}
	var got StatusResponse
	if err := json.Unmarshal(status.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Offline {
		t.Fatal("offline flag not reflected in status")
	}
	if got.OnlineTTL.Std() != 2*time.Minute {
		t.Fatalf("online ttl: %v", got.OnlineTTL.Std())
	}
}

func TestAdmin_SetOffline_RejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva;Msg;0;0;",
	})
	w := doRequest(t, srv, http.MethodPost, "/api/v1/admin/offline", testAdminToken, `{"offline":true,"bogus":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, map[feed.DomainID]string{
		feed.DomainAlerts: "Chuva;Msg;0;0;",
	})
	// Generate some traffic first so counters exist.
	doRequest(t, srv, http.MethodGet, "/api/v1/bundle", "", "")

	w := doRequest(t, srv, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "civitas_fetch_total") {
		t.Fatal("expected civitas metrics in exposition")
	}
}
