package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spes-app/core/internal/config"
	"github.com/spes-app/core/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.NominatimConfig{URL: srv.URL, Timeout: 2}, zap.NewNop())
}

func TestReverseNameResolvesDisplayName(t *testing.T) {
	var gotQuery map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"lat":    r.URL.Query().Get("lat"),
			"lon":    r.URL.Query().Get("lon"),
			"format": r.URL.Query().Get("format"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Belfast, County Antrim, Northern Ireland"}`))
	})

	name := c.ReverseName(context.Background(), models.Coordinate{Lat: 54.5973, Lng: -5.9301})
	assert.Equal(t, "Belfast, County Antrim, Northern Ireland", name)
	assert.Equal(t, "54.5973", gotQuery["lat"])
	assert.Equal(t, "-5.9301", gotQuery["lon"])
	assert.Equal(t, "json", gotQuery["format"])
}

func TestReverseNameEmptyResultFallsBackToUnknown(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	name := c.ReverseName(context.Background(), models.Coordinate{Lat: 0, Lng: 0})
	assert.Equal(t, FallbackUnknown, name)
}

func TestReverseNameServerErrorFallsBackToError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	name := c.ReverseName(context.Background(), models.Coordinate{Lat: 0, Lng: 0})
	assert.Equal(t, FallbackError, name)
}

func TestReverseNameRejectsInvalidCoordinate(t *testing.T) {
	called := false
	c := testClient(t, func(http.ResponseWriter, *http.Request) { called = true })

	name := c.ReverseName(context.Background(), models.Coordinate{Lat: 123, Lng: 0})
	assert.Equal(t, FallbackError, name)
	assert.False(t, called)
}

func TestReverseNameSendsContactEmail(t *testing.T) {
	var gotEmail string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		_, _ = w.Write([]byte(`{"display_name":"x"}`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(config.NominatimConfig{URL: srv.URL, Email: "ops@example.com", Timeout: 2}, zap.NewNop())

	c.ReverseName(context.Background(), models.Coordinate{Lat: 1, Lng: 1})
	assert.Equal(t, "ops@example.com", gotEmail)
}
