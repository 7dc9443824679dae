// internal/weather/client.go
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"weather-agent/internal/common/config"
	"weather-agent/internal/common/database"
	"weather-agent/internal/common/logger"
	"weather-agent/internal/common/metrics"
)

var (
	ErrServiceUnavailable = errors.New("WEATHER_SERVICE_UNAVAILABLE")
	ErrLocationNotFound   = errors.New("LOCATION_NOT_FOUND")
	ErrService            = errors.New("WEATHER_REQUEST_FAILED")
)

const maxForecastSlots = 8 // provider returns 8 three-hour slots per day

// Client fetches weather data from OpenWeatherMap.
type Client struct {
	baseURL    string
	geoBaseURL string
	apiKey     string
	cacheTTL   time.Duration
	httpClient *http.Client
	cache      *database.RedisClient
	logger     logger.Logger
}

// NewClient creates a weather client. cache may be nil; geocoding then
// always hits the provider.
func NewClient(cfg *config.Config, cache *database.RedisClient, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.APIs.OpenWeather.BaseURL,
		geoBaseURL: cfg.APIs.OpenWeather.GeoBaseURL,
		apiKey:     cfg.APIs.OpenWeather.APIKey,
		cacheTTL:   config.GetDuration(cfg.Database.Redis.CacheTTL),
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.APIs.OpenWeather.Timeout),
		},
		cache: cache,
		logger: log.With(map[string]interface{}{
			"component": "weather-client",
		}),
	}
}

// Configured reports whether the provider API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Coordinates geocodes a location name, consulting the Redis cache first.
// Cache outages are non-fatal.
func (c *Client) Coordinates(ctx context.Context, location string) (*Coordinates, error) {
	if !c.Configured() {
		return nil, ErrServiceUnavailable
	}

	cacheKey := "geocode:" + location
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
			var coords Coordinates
			if err := json.Unmarshal([]byte(cached), &coords); err == nil {
				return &coords, nil
			}
		}
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var entries []geocodeEntry
	if err := c.getJSON(ctx, c.geoBaseURL+"/direct", params, "geocode", &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, location)
	}

	coords := &Coordinates{
		Lat:     entries[0].Lat,
		Lon:     entries[0].Lon,
		Name:    entries[0].Name,
		Country: entries[0].Country,
	}

	if c.cache != nil {
		if data, err := json.Marshal(coords); err == nil {
			if err := c.cache.Set(ctx, cacheKey, string(data), c.cacheTTL); err != nil {
				c.logger.Warn("geocode cache write failed", map[string]interface{}{
					"location": location,
					"error":    err.Error(),
				})
			}
		}
	}

	return coords, nil
}

// Current fetches current weather for a location, metric units.
func (c *Client) Current(ctx context.Context, location string) (*Response, error) {
	coords, err := c.Coordinates(ctx, location)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var data currentWeatherResponse
	if err := c.getJSON(ctx, c.baseURL+"/weather", params, "current", &data); err != nil {
		return nil, err
	}

	conditions := make([]Condition, 0, len(data.Weather))
	for _, cond := range data.Weather {
		conditions = append(conditions, Condition(cond))
	}

	return &Response{
		Location:    coords.Name,
		Country:     coords.Country,
		Coordinates: map[string]float64{"lat": coords.Lat, "lon": coords.Lon},
		CurrentWeather: Data{
			Temperature: data.Main.Temp,
			FeelsLike:   data.Main.FeelsLike,
			Humidity:    data.Main.Humidity,
			Pressure:    data.Main.Pressure,
			Visibility:  data.Visibility,
		},
		Conditions: conditions,
		Timestamp:  time.Unix(data.Dt, 0).UTC(),
		Source:     "OpenWeatherMap",
	}, nil
}

// GetForecast fetches the forecast for a location, capped at days*8
// three-hour slots.
func (c *Client) GetForecast(ctx context.Context, location string, days int) (*Forecast, error) {
	coords, err := c.Coordinates(ctx, location)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var data forecastResponse
	if err := c.getJSON(ctx, c.baseURL+"/forecast", params, "forecast", &data); err != nil {
		return nil, err
	}

	limit := days * maxForecastSlots
	if limit > len(data.List) {
		limit = len(data.List)
	}

	items := make([]ForecastItem, 0, limit)
	for _, entry := range data.List[:limit] {
		conditions := make([]Condition, 0, len(entry.Weather))
		for _, cond := range entry.Weather {
			conditions = append(conditions, Condition(cond))
		}
		items = append(items, ForecastItem{
			Date: time.Unix(entry.Dt, 0).UTC(),
			WeatherData: Data{
				Temperature: entry.Main.Temp,
				FeelsLike:   entry.Main.FeelsLike,
				Humidity:    entry.Main.Humidity,
				Pressure:    entry.Main.Pressure,
				Visibility:  entry.Visibility,
			},
			Conditions: conditions,
		})
	}

	return &Forecast{
		Location: coords.Name,
		Forecast: items,
		Source:   "OpenWeatherMap",
	}, nil
}

// Healthy probes the provider with a fixed query.
func (c *Client) Healthy(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}

	params := url.Values{}
	params.Set("q", "London")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, name string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrService, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.WeatherAPIRequests.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		metrics.WeatherAPIRequests.WithLabelValues(name, "unauthorized").Inc()
		return ErrServiceUnavailable
	case resp.StatusCode == http.StatusNotFound:
		metrics.WeatherAPIRequests.WithLabelValues(name, "not_found").Inc()
		return ErrLocationNotFound
	case resp.StatusCode != http.StatusOK:
		metrics.WeatherAPIRequests.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.WeatherAPIRequests.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("%w: decode error: %v", ErrService, err)
	}

	metrics.WeatherAPIRequests.WithLabelValues(name, "ok").Inc()
	return nil
}
