package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCity(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"what is the weather in london", "London"},
		{"temperature at new york", "New York"},
		{"weather in san francisco today", "San Francisco Today"},
		{"what is the weather", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractCity(tt.query), "query %q", tt.query)
	}
}

func TestCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "key", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{
			"cod": 200,
			"main": {"temp": 18.5, "feels_like": 17.2, "humidity": 72},
			"weather": [{"description": "light rain"}],
			"wind": {"speed": 4.1}
		}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: server.URL}, nil)

	got, err := c.Current(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "London", got.City)
	assert.Equal(t, 18.5, got.Temperature)
	assert.Equal(t, 17.2, got.FeelsLike)
	assert.Equal(t, "Light rain", got.Description)
	assert.Equal(t, 72, got.Humidity)
	assert.Equal(t, 4.1, got.WindSpeed)
}

func TestCurrentAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: server.URL}, nil)

	_, err := c.Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}

func TestLocateCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city": "Berlin"}`))
	}))
	defer server.Close()

	c := NewClient(Config{GeoURL: server.URL}, nil)
	assert.Equal(t, "Berlin", c.LocateCity(context.Background()))
}

func TestLocateCityFallsBackToDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // force a transport error

	c := NewClient(Config{GeoURL: server.URL, DefaultCity: "Kolkata"}, nil)
	assert.Equal(t, "Kolkata", c.LocateCity(context.Background()))
}

func TestCurrentResolvesEmptyCity(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city": "Tokyo"}`))
	}))
	defer geo.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tokyo", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"cod": 200, "main": {"temp": 20}, "weather": [], "wind": {}}`))
	}))
	defer api.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: api.URL, GeoURL: geo.URL}, nil)

	got, err := c.Current(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", got.City)
}
