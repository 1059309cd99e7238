package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shanehull/estatecrawler/internal/model"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// ErrTransient marks a lookup failure that may succeed if retried.
var ErrTransient = errors.New("geocoder temporarily unavailable")

type NominatimClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
}

func NewNominatimClient(logger *slog.Logger, baseURL, userAgent, email string, timeout time.Duration) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "?&"),
		userAgent:  userAgent,
		email:      email,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *NominatimClient) Lookup(ctx context.Context, query string) (model.Coordinates, bool, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	if c.email != "" {
		req.Header.Set("From", c.email)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTransient(err) {
			return model.Coordinates{}, false, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return model.Coordinates{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return model.Coordinates{}, false, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Coordinates{}, false, fmt.Errorf("geocoder responded with status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return model.Coordinates{}, false, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if len(places) == 0 {
		return model.Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, false, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, false, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}
	c.logger.Debug("Geocode match", "query", query, "place", places[0].DisplayName)
	return model.Coordinates{Lat: lat, Lon: lon}, true, nil
}

// isTransient reports whether a transport error is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
