package feed

import (
	"context"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

// Feed exposes current hazard events near a coordinate. Implementations
// must return an empty slice (not an error) when there is simply no
// data; errors mean the feed itself could not be consulted.
type Feed interface {
	FetchNear(ctx context.Context, lat, lng float64) ([]models.HazardEvent, error)
}
