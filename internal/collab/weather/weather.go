// Package weather reports current conditions via the OpenWeather API, with
// IP-based city lookup as the location fallback.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultGeoURL         = "http://ip-api.com/json/"
	defaultTimeout        = 10 * time.Second
)

// Observation is the subset of OpenWeather data the assistant speaks.
type Observation struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Config holds weather client configuration.
type Config struct {
	APIKey      string
	DefaultCity string        // used when IP lookup fails, default: Kolkata
	BaseURL     string        // OpenWeather endpoint override for tests
	GeoURL      string        // ip-api endpoint override for tests
	Timeout     time.Duration // default: 10s
}

// Client fetches weather observations.
type Client struct {
	cfg    Config
	client *http.Client
	logger *log.Logger
}

// NewClient builds a weather client.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "Kolkata"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenWeatherURL
	}
	if cfg.GeoURL == "" {
		cfg.GeoURL = defaultGeoURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// cityRe captures the city name after "in" or "at" in a weather query.
var cityRe = regexp.MustCompile(`\b(?:in|at)\s+([a-zA-Z][a-zA-Z\s]*)`)

// ExtractCity pulls a city name out of a weather query, title-cased.
// Returns "" when the query names no city.
func ExtractCity(query string) string {
	m := cityRe.FindStringSubmatch(strings.ToLower(query))
	if m == nil {
		return ""
	}
	return titleCase(strings.TrimSpace(m[1]))
}

// titleCase uppercases the first letter of each word ("new york" → "New York").
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LocateCity resolves the user's city from their IP address, falling back
// to the configured default city on any failure.
func (c *Client) LocateCity(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.GeoURL, nil)
	if err != nil {
		return c.cfg.DefaultCity
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("weather: location lookup failed: %v", err)
		return c.cfg.DefaultCity
	}
	defer func() { _ = resp.Body.Close() }()

	var data struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || data.City == "" {
		return c.cfg.DefaultCity
	}
	return data.City
}

// openWeatherResponse mirrors the fields we read from the API.
type openWeatherResponse struct {
	Cod     json.Number `json:"cod"`
	Message string      `json:"message"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the current observation for city (metric units). An empty
// city is resolved via LocateCity.
func (c *Client) Current(ctx context.Context, city string) (*Observation, error) {
	if city == "" {
		city = c.LocateCity(ctx)
	}

	endpoint := fmt.Sprintf("%s?q=%s&appid=%s&units=metric",
		c.cfg.BaseURL, url.QueryEscape(city), url.QueryEscape(c.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var data openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("weather: failed to decode response: %w", err)
	}

	if cod, _ := data.Cod.Int64(); cod != http.StatusOK {
		return nil, fmt.Errorf("weather: api error for %q: %s", city, data.Message)
	}

	description := ""
	if len(data.Weather) > 0 {
		description = capitalize(data.Weather[0].Description)
	}

	return &Observation{
		City:        city,
		Temperature: data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
		Description: description,
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
