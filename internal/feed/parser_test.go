package feed

import (
	"strings"
	"testing"
)

func TestParseBatch_SkipsMalformedLinesWithoutAborting(t *testing.T) {
	body := strings.Join([]string{
		"-22.90;-43.19;Av. Brasil;cam123",
		"bad;line",
		"-22.95;-43.20;Copacabana;cam456",
		"",
		"   ",
		"-22.97;-43.21;Barra;cam789",
	}, "\n")

	var dropped []int
	got := ParseBatch(body, CameraSchema, 0, DecodeCamera, func(line int, _ string) {
		dropped = append(dropped, line)
	})

	if len(got) != 3 {
		t.Fatalf("records: got %d, want 3", len(got))
	}
	if len(dropped) != 1 || dropped[0] != 2 {
		t.Fatalf("dropped lines: got %v, want [2]", dropped)
	}
	if got[0].Code != "cam123" || got[1].Code != "cam456" || got[2].Code != "cam789" {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestParseBatch_CameraFieldMapping(t *testing.T) {
	recs := ParseBatch("-22.90;-43.19;Av. Brasil;cam123", CameraSchema, 0, DecodeCamera, nil)
	if len(recs) != 1 {
		t.Fatalf("records: got %d, want 1", len(recs))
	}
	c := recs[0]
	if c.Lat == nil || *c.Lat != -22.90 {
		t.Fatalf("lat: got %v, want -22.90", c.Lat)
	}
	if c.Lon == nil || *c.Lon != -43.19 {
		t.Fatalf("lon: got %v, want -43.19", c.Lon)
	}
	if c.Name != "Av. Brasil" {
		t.Fatalf("name: got %q, want %q", c.Name, "Av. Brasil")
	}
	if c.Code != "cam123" {
		t.Fatalf("code: got %q, want %q", c.Code, "cam123")
	}
}

func TestParseBatch_TruncatesAfterFiltering(t *testing.T) {
	// Two malformed lines interleaved before the cap is reached: the first
	// maxRecords VALID records must win, not the first maxRecords lines.
	body := strings.Join([]string{
		"short",
		"-22.1;-43.1;One;c1",
		"short",
		"-22.2;-43.2;Two;c2",
		"-22.3;-43.3;Three;c3",
		"-22.4;-43.4;Four;c4",
	}, "\n")

	got := ParseBatch(body, CameraSchema, 3, DecodeCamera, nil)
	if len(got) != 3 {
		t.Fatalf("records: got %d, want 3", len(got))
	}
	if got[0].Code != "c1" || got[1].Code != "c2" || got[2].Code != "c3" {
		t.Fatalf("want first three valid records in order, got %+v", got)
	}
}

func TestFields_FloatNormalizesDecimalComma(t *testing.T) {
	f := Fields{"12,5", "1.5", "abc", ""}
	if v := f.Float(0); v == nil || *v != 12.5 {
		t.Fatalf("comma decimal: got %v, want 12.5", v)
	}
	if v := f.Float(1); v == nil || *v != 1.5 {
		t.Fatalf("point decimal: got %v, want 1.5", v)
	}
	if v := f.Float(2); v != nil {
		t.Fatalf("garbage: got %v, want nil", v)
	}
	if v := f.Float(3); v != nil {
		t.Fatalf("blank: got %v, want nil", v)
	}
	if v := f.Float(99); v != nil {
		t.Fatalf("out of range: got %v, want nil", v)
	}
}

func TestSplitLine_StripsQuotesAndWhitespace(t *testing.T) {
	fields, ok := SplitLine(`  "Alerta"; 'mensagem com "aspas" perdidas' ;1;0; `, AlertSchema)
	if !ok {
		t.Fatal("line should split")
	}
	if fields.Str(0) != "Alerta" {
		t.Fatalf("field 0: got %q", fields.Str(0))
	}
	if fields.Str(1) != `mensagem com aspas perdidas` {
		t.Fatalf("field 1: got %q", fields.Str(1))
	}
}

func TestParseBatch_RecordWithMissingCoordinatesIsKept(t *testing.T) {
	recs := ParseBatch(";;Sem GPS;cam999", CameraSchema, 0, DecodeCamera, nil)
	if len(recs) != 1 {
		t.Fatalf("records: got %d, want 1", len(recs))
	}
	if recs[0].Lat != nil || recs[0].Lon != nil {
		t.Fatalf("coordinates should be nil, got %+v", recs[0])
	}
	if recs[0].Name != "Sem GPS" {
		t.Fatalf("name: got %q", recs[0].Name)
	}
}

func TestParseEvents_DropsBlankNamesKeepsRest(t *testing.T) {
	body := []byte(`{"events":[
		{"name":"Festival","location":"Parque","starts_at":"2026-09-01T18:00:00"},
		{"name":"  ","location":"?"},
		{"name":"Corrida","location":"Orla"}
	]}`)

	var droppedReasons []string
	got, err := ParseEvents(body, 0, func(_ int, reason string) {
		droppedReasons = append(droppedReasons, reason)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events: got %d, want 2", len(got))
	}
	if got[0].Name != "Festival" || got[1].Name != "Corrida" {
		t.Fatalf("events: %+v", got)
	}
	if len(droppedReasons) != 1 {
		t.Fatalf("drops: got %v", droppedReasons)
	}
}

func TestParseEvents_IDStableUnderFieldNoise(t *testing.T) {
	clean := []byte(`{"events":[{"name":"Festival","location":"Parque","starts_at":"2026-09-01T18:00:00"}]}`)
	noisy := []byte(`{"events":[{"name":" Festival ","location":"'Parque'","starts_at":"  2026-09-01T18:00:00"}]}`)

	a, err := ParseEvents(clean, 0, nil)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	b, err := ParseEvents(noisy, 0, nil)
	if err != nil {
		t.Fatalf("noisy: %v", err)
	}
	if a[0] != b[0] {
		t.Fatalf("normalized events differ: %+v vs %+v", a[0], b[0])
	}
	if a[0].ID != b[0].ID {
		t.Fatalf("IDs must match for identical normalized records: %q vs %q", a[0].ID, b[0].ID)
	}
}

func TestParseEvents_MalformedDocument(t *testing.T) {
	if _, err := ParseEvents([]byte("<html>not json"), 0, nil); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"pt":    "pt",
		"EN":    "en",
		"es":    "es",
		"en-US": "en",
		"pt_BR": "pt",
		"fr":    "pt",
		"":      "pt",
		"  de ": "pt",
	}
	for in, want := range cases {
		if got := NormalizeLanguage(in); got != want {
			t.Fatalf("NormalizeLanguage(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestDescriptorURL_LanguageSubstitution(t *testing.T) {
	reg := DefaultRegistry()

	alerts := reg[DomainAlerts]
	if got := alerts.URL("en"); !strings.Contains(got, "/en/") {
		t.Fatalf("variant URL: got %q", got)
	}
	// Unsupported codes fall back to the default language, never error.
	if got := alerts.URL("zz"); !strings.Contains(got, "/pt/") {
		t.Fatalf("fallback URL: got %q", got)
	}

	cams := reg[DomainCameras]
	if got := cams.URL("en"); strings.Contains(got, "{lang}") || strings.Contains(got, "/en/") {
		t.Fatalf("non-variant URL should ignore language: got %q", got)
	}
}

func TestRegistry_WithURLOverrides(t *testing.T) {
	reg := DefaultRegistry().WithURLOverrides(map[DomainID]string{
		DomainCameras:    "http://localhost:9000/cams.txt",
		DomainID("nope"): "http://ignored",
	})
	if got := reg[DomainCameras].URLTemplate; got != "http://localhost:9000/cams.txt" {
		t.Fatalf("override: got %q", got)
	}
	if got := reg[DomainAlerts].URLTemplate; got == "" || strings.Contains(got, "localhost") {
		t.Fatalf("untouched domain mutated: %q", got)
	}
}

func TestAllDomains_CoversRegistry(t *testing.T) {
	reg := DefaultRegistry()
	all := AllDomains()
	if len(all) != len(reg) {
		t.Fatalf("AllDomains: got %d, registry has %d", len(all), len(reg))
	}
	seen := map[DomainID]bool{}
	for _, id := range all {
		if _, ok := reg[id]; !ok {
			t.Fatalf("unknown domain %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate domain %q", id)
		}
		seen[id] = true
	}
}
