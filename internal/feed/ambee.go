package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

// ambeeResponse mirrors the upstream disasters-by-lat-lng payload.
// Fields the classifier cares about are coerced to strings here so the
// rest of the system never sees loose data.
type ambeeResponse struct {
	Data []ambeeEvent `json:"data"`
}

type ambeeEvent struct {
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type"`
	EventName     string  `json:"event_name"`
	SeverityLevel string  `json:"proximity_severity_level"`
	Description   string  `json:"description"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
}

// AmbeeClient fetches hazard events from an Ambee-style REST feed.
type AmbeeClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAmbeeClient(baseURL, apiKey string, timeout time.Duration) *AmbeeClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AmbeeClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *AmbeeClient) FetchNear(ctx context.Context, lat, lng float64) ([]models.HazardEvent, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing feed URL: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data ambeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	events := make([]models.HazardEvent, 0, len(data.Data))
	for _, e := range data.Data {
		events = append(events, models.HazardEvent{
			EventID:     e.EventID,
			Category:    e.EventType,
			SeverityRaw: e.SeverityLevel,
			Title:       e.EventName,
			Description: e.Description,
			Latitude:    e.Lat,
			Longitude:   e.Lng,
		})
	}

	return events, nil
}
