package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/green-city-platform/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.GeocoderConfig{
		BaseURL:      srv.URL,
		UserAgent:    "GreenCityPlatform/1.0",
		Country:      "Россия",
		Language:     "ru",
		Timeout:      2 * time.Second,
		ReverseEvery: time.Millisecond,
	})
}

func TestCityCoordinates(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "Ковдор, Россия", r.URL.Query().Get("q"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.Equal(t, "GreenCityPlatform/1.0", r.Header.Get("User-Agent"))
			w.Write([]byte(`[{"lat":"67.566","lon":"30.467"}]`))
		})
		p := c.CityCoordinates(context.Background(), "Ковдор")
		require.NotNil(t, p)
		assert.InDelta(t, 67.566, p.Lat, 1e-9)
		assert.InDelta(t, 30.467, p.Lon, 1e-9)
	})

	t.Run("EmptyResult", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		assert.Nil(t, c.CityCoordinates(context.Background(), "Нигде"))
	})

	t.Run("ServerError", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		assert.Nil(t, c.CityCoordinates(context.Background(), "Ковдор"))
	})

	t.Run("BadNumbers", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"lat":"north","lon":"30"}]`))
		})
		assert.Nil(t, c.CityCoordinates(context.Background(), "Ковдор"))
	})

	t.Run("BadJSON", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		assert.Nil(t, c.CityCoordinates(context.Background(), "Ковдор"))
	})
}

func TestGeocodeAddress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ул. Ленина 1, Барнаул, Россия", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"lat":"53.35","lon":"83.77"}]`))
	})
	p := c.GeocodeAddress(context.Background(), "ул. Ленина 1", "Барнаул")
	require.NotNil(t, p)
	assert.InDelta(t, 53.35, p.Lat, 1e-9)

	assert.Nil(t, c.GeocodeAddress(context.Background(), "  ", "Барнаул"))
}

func TestReverseGeocode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/reverse", r.URL.Path)
			assert.Equal(t, "18", r.URL.Query().Get("zoom"))
			assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
			assert.Equal(t, "ru", r.Header.Get("Accept-Language"))
			w.Write([]byte(`{"display_name":"Ковдор, Мурманская область"}`))
		})
		name := c.ReverseGeocode(context.Background(), 67.566, 30.467)
		require.NotNil(t, name)
		assert.Equal(t, "Ковдор, Мурманская область", *name)
	})

	t.Run("NoDisplayName", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
		})
		assert.Nil(t, c.ReverseGeocode(context.Background(), 0, 0))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"display_name":"x"}`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Nil(t, c.ReverseGeocode(ctx, 1, 1))
	})
}
