package feed

import "encoding/json"

// Event is one city event from the JSON events feed.
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	StartsAt    string `json:"starts_at,omitempty"`
	EndsAt      string `json:"ends_at,omitempty"`
}

// eventsEnvelope is the upstream JSON document shape.
type eventsEnvelope struct {
	Events []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		StartsAt    string `json:"starts_at"`
		EndsAt      string `json:"ends_at"`
	} `json:"events"`
}

// ParseEvents decodes the `{"events": [...]}` envelope. Entries failing
// required-field validation (blank name) are dropped individually, matching
// the line feeds' per-record tolerance. A malformed document yields an error
// and no records; the caller treats that like any other empty fetch.
func ParseEvents(body []byte, maxRecords int, onDrop DropFunc) ([]Event, error) {
	var env eventsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	var out []Event
	for i, e := range env.Events {
		name := cleanField(e.Name)
		if name == "" {
			drop(onDrop, i+1, "blank name")
			continue
		}
		// Hash the cleaned values so two envelopes that normalize to the
		// same record carry the same ID.
		location := cleanField(e.Location)
		startsAt := cleanField(e.StartsAt)
		out = append(out, Event{
			ID:          RecordID(DomainEvents, name, startsAt, location),
			Name:        name,
			Description: cleanField(e.Description),
			Location:    location,
			StartsAt:    startsAt,
			EndsAt:      cleanField(e.EndsAt),
		})
		if maxRecords > 0 && len(out) == maxRecords {
			break
		}
	}
	return out, nil
}
