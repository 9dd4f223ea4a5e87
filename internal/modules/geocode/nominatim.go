package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spes-app/core/internal/config"
	"github.com/spes-app/core/internal/models"
	"go.uber.org/zap"
)

const (
	// FallbackUnknown is displayed when the lookup succeeds but yields
	// no place name.
	FallbackUnknown = "Unknown location"
	// FallbackError is displayed when the lookup fails.
	FallbackError = "Error loading location"
)

// Client resolves coordinates to human-readable place names via the
// OpenStreetMap Nominatim reverse API. Read-only and best-effort: a
// failure degrades to a fallback display string, never an error the
// caller must handle.
type Client struct {
	baseURL    string
	email      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.NominatimConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.URL,
		email:   cfg.Email,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseName returns the display name for a coordinate, or one of the
// fallback strings. Not cached; callers invoke it once per coordinate
// change.
func (c *Client) ReverseName(ctx context.Context, pos models.Coordinate) string {
	name, err := c.reverse(ctx, pos)
	if err != nil {
		c.logger.Warn("reverse geocode failed",
			zap.Float64("lat", pos.Lat), zap.Float64("lng", pos.Lng), zap.Error(err))
		return FallbackError
	}
	if name == "" {
		return FallbackUnknown
	}
	return name
}

func (c *Client) reverse(ctx context.Context, pos models.Coordinate) (string, error) {
	if err := pos.Validate(); err != nil {
		return "", err
	}

	params := url.Values{
		"lat":             {fmt.Sprintf("%v", pos.Lat)},
		"lon":             {fmt.Sprintf("%v", pos.Lng)},
		"format":          {"json"},
		"accept-language": {"en"},
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.DisplayName, nil
}
