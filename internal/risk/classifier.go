package risk

import (
	"strings"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

// Tier is the severity classification of a hazard event. Higher values
// are more severe.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

var (
	highSeverity   = []string{"extreme", "high"}
	highCategory   = []string{"earthquake", "tsunami", "hurricane"}
	mediumSeverity = []string{"moderate", "medium"}
	mediumCategory = []string{"flood", "wildfire", "tornado"}
)

// Classify derives a risk tier from an event's severity label and
// category via case-insensitive substring matching. Pure and total:
// empty fields simply match nothing and fall through to TierLow.
// High-tier keywords are checked strictly before medium-tier ones, so
// an event matching both resolves high.
func Classify(e models.HazardEvent) Tier {
	severity := strings.ToLower(e.SeverityRaw)
	category := strings.ToLower(e.Category)

	if containsAny(severity, highSeverity) || containsAny(category, highCategory) {
		return TierHigh
	}
	if containsAny(severity, mediumSeverity) || containsAny(category, mediumCategory) {
		return TierMedium
	}
	return TierLow
}

// AlertWorthy filters events down to those worth notifying about:
// medium tier and above. Low-tier events are a hard cut. Order is
// preserved.
func AlertWorthy(events []models.HazardEvent) []models.HazardEvent {
	worthy := make([]models.HazardEvent, 0, len(events))
	for _, e := range events {
		if Classify(e) >= TierMedium {
			worthy = append(worthy, e)
		}
	}
	return worthy
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
