// internal/weather/models.go
package weather

import "time"

// Coordinates is a geocoded location.
type Coordinates struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
}

// Condition describes one weather condition entry.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Data holds the core weather measurements, metric units.
type Data struct {
	Temperature float64  `json:"temperature"`
	FeelsLike   float64  `json:"feels_like"`
	Humidity    int      `json:"humidity"`
	Pressure    int      `json:"pressure"`
	Visibility  *int     `json:"visibility,omitempty"`
	UVIndex     *float64 `json:"uv_index,omitempty"`
}

// Response is the current-weather result for a location.
type Response struct {
	Location       string             `json:"location"`
	Country        string             `json:"country"`
	Coordinates    map[string]float64 `json:"coordinates"`
	CurrentWeather Data               `json:"current_weather"`
	Conditions     []Condition        `json:"conditions"`
	Timestamp      time.Time          `json:"timestamp"`
	Source         string             `json:"source"`
}

// ForecastItem is one 3-hour forecast slot.
type ForecastItem struct {
	Date        time.Time   `json:"date"`
	WeatherData Data        `json:"weather_data"`
	Conditions  []Condition `json:"conditions"`
}

// Forecast is the multi-day forecast for a location.
type Forecast struct {
	Location string         `json:"location"`
	Forecast []ForecastItem `json:"forecast"`
	Source   string         `json:"source"`
}

// Provider wire formats.

type geocodeEntry struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

type apiConditions struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type apiMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  int     `json:"humidity"`
	Pressure  int     `json:"pressure"`
}

type currentWeatherResponse struct {
	Weather    []apiConditions `json:"weather"`
	Main       apiMain         `json:"main"`
	Visibility *int            `json:"visibility,omitempty"`
	Dt         int64           `json:"dt"`
}

type forecastResponse struct {
	List []struct {
		Dt         int64           `json:"dt"`
		Main       apiMain         `json:"main"`
		Weather    []apiConditions `json:"weather"`
		Visibility *int            `json:"visibility,omitempty"`
	} `json:"list"`
}
