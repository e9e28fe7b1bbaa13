// Package geocode talks to a Nominatim instance. Lookups never fail loudly:
// every problem is logged and reported as a nil result.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/logger"
)

const service = "nominatim"

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Client performs forward and reverse lookups.
type Client struct {
	baseURL   string
	userAgent string
	country   string
	language  string
	http      *http.Client
	reverse   *rate.Limiter
}

func NewClient(cfg config.GeocoderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	every := cfg.ReverseEvery
	if every <= 0 {
		every = time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		country:   cfg.Country,
		language:  cfg.Language,
		http:      &http.Client{Timeout: timeout},
		reverse:   rate.NewLimiter(rate.Every(every), 1),
	}
}

// CityCoordinates resolves a city name to its centre.
func (c *Client) CityCoordinates(ctx context.Context, city string) *Point {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil
	}
	return c.search(ctx, "city_coordinates", c.query(city))
}

// GeocodeAddress resolves a street address, optionally narrowed to a city.
func (c *Client) GeocodeAddress(ctx context.Context, address, city string) *Point {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}
	parts := []string{address}
	if city = strings.TrimSpace(city); city != "" {
		parts = append(parts, city)
	}
	return c.search(ctx, "geocode_address", c.query(parts...))
}

// ReverseGeocode returns the display name at a point. Calls are spaced out
// to respect the public instance's usage policy.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) *string {
	if err := c.reverse.Wait(ctx); err != nil {
		logger.ExternalServiceResult(service, "reverse_geocode", err)
		return nil
	}
	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}
	var out struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.get(ctx, "reverse_geocode", "/reverse", params, &out); err != nil {
		logger.ExternalServiceResult(service, "reverse_geocode", err, "lat", lat, "lon", lon)
		return nil
	}
	if out.DisplayName == "" {
		logger.ExternalServiceResult(service, "reverse_geocode", errEmpty, "lat", lat, "lon", lon)
		return nil
	}
	logger.ExternalServiceResult(service, "reverse_geocode", nil)
	return &out.DisplayName
}

var errEmpty = errors.New("empty result")

func (c *Client) query(parts ...string) string {
	if c.country != "" {
		parts = append(parts, c.country)
	}
	return strings.Join(parts, ", ")
}

func (c *Client) search(ctx context.Context, op, q string) *Point {
	params := url.Values{"q": {q}, "format": {"json"}, "limit": {"1"}}
	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := c.get(ctx, op, "/search", params, &hits); err != nil {
		logger.ExternalServiceResult(service, op, err, "query", q)
		return nil
	}
	if len(hits) == 0 {
		logger.ExternalServiceResult(service, op, errEmpty, "query", q)
		return nil
	}
	lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(hits[0].Lon, 64)
	if err1 != nil || err2 != nil {
		logger.ExternalServiceResult(service, op, fmt.Errorf("bad coordinates %q,%q", hits[0].Lat, hits[0].Lon), "query", q)
		return nil
	}
	logger.ExternalServiceResult(service, op, nil, "query", q)
	return &Point{Lat: lat, Lon: lon}
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, dst any) error {
	logger.ExternalServiceCall(service, op, "path", path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
