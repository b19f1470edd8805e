package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/civitas-app/civitas/internal/feed"
)

// feedsFile is the on-disk shape of the optional feed override file.
//
//	urls:
//	  cameras: "https://mirror.example.org/cameras.txt"
//	  alerts: "https://mirror.example.org/{lang}/alerts.txt"
type feedsFile struct {
	URLs map[string]string `yaml:"urls"`
}

// LoadFeedOverrides reads the YAML override file at path and returns the
// per-domain URL template overrides. An empty path means no overrides.
// Unknown domain names are rejected so a typo never silently leaves a domain
// on its default endpoint.
func LoadFeedOverrides(path string) (map[feed.DomainID]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var f feedsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
	}

	out := make(map[feed.DomainID]string, len(f.URLs))
	for name, tpl := range f.URLs {
		id := feed.DomainID(name)
		if !id.IsValid() {
			return nil, fmt.Errorf("feeds file %s: unknown domain %q", path, name)
		}
		if tpl == "" {
			return nil, fmt.Errorf("feeds file %s: empty url for domain %q", path, name)
		}
		out[id] = tpl
	}
	return out, nil
}
