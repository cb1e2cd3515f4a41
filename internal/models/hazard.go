package models

// HazardEvent is a single detected disaster/weather event from the
// upstream feed. Constructed fresh on every fetch, never persisted.
// Title and Description may be empty; the feed adapter coerces missing
// fields to empty strings so downstream code never sees untyped data.
type HazardEvent struct {
	EventID     string
	Category    string // free-text, e.g. "earthquake", "misc weather"
	SeverityRaw string // free-text, e.g. "extreme", "Low Risk"
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
}

// Summary renders the one-line form used in alert messages:
// "<title-or-category>: <description-or-default>".
func (e HazardEvent) Summary() string {
	name := e.Title
	if name == "" {
		name = e.Category
	}
	desc := e.Description
	if desc == "" {
		desc = "Active in your area"
	}
	return name + ": " + desc
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}
