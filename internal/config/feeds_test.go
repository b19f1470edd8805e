package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/civitas-app/civitas/internal/feed"
)

func writeFeedsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write feeds file: %v", err)
	}
	return path
}

func TestLoadFeedOverrides_EmptyPath(t *testing.T) {
	out, err := LoadFeedOverrides("")
	if err != nil || out != nil {
		t.Fatalf("got %v, %v; want nil, nil", out, err)
	}
}

func TestLoadFeedOverrides_Valid(t *testing.T) {
	path := writeFeedsFile(t, `
urls:
  cameras: "https://mirror.example.org/cameras.txt"
  alerts: "https://mirror.example.org/{lang}/alerts.txt"
`)
	out, err := LoadFeedOverrides(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out[feed.DomainCameras] != "https://mirror.example.org/cameras.txt" {
		t.Fatalf("cameras: %q", out[feed.DomainCameras])
	}
	if !strings.Contains(out[feed.DomainAlerts], "{lang}") {
		t.Fatalf("alerts template must keep the placeholder: %q", out[feed.DomainAlerts])
	}
}

func TestLoadFeedOverrides_UnknownDomain(t *testing.T) {
	path := writeFeedsFile(t, "urls:\n  camras: \"https://x\"\n")
	if _, err := LoadFeedOverrides(path); err == nil || !strings.Contains(err.Error(), "camras") {
		t.Fatalf("expected unknown domain error, got %v", err)
	}
}

func TestLoadFeedOverrides_EmptyURL(t *testing.T) {
	path := writeFeedsFile(t, "urls:\n  cameras: \"\"\n")
	if _, err := LoadFeedOverrides(path); err == nil {
		t.Fatal("expected empty url error")
	}
}

func TestLoadFeedOverrides_MissingFile(t *testing.T) {
	if _, err := LoadFeedOverrides(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
