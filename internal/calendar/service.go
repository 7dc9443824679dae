// internal/calendar/service.go
package calendar

import (
	"context"
	"strconv"
	"strings"
	"time"

	"weather-agent/internal/common/config"
	"weather-agent/internal/common/logger"
	"weather-agent/internal/weather"
)

// outdoorKeywords marks events whose summary, description or location
// suggests a weather-dependent activity.
var outdoorKeywords = []string{
	"outdoor", "park", "garden", "beach", "picnic", "bbq", "barbecue",
	"sports", "golf", "tennis", "running", "cycling", "hiking",
}

// Event is a single calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// Service looks up calendar events and scores them against current
// weather. Event retrieval is a stub until the Google Calendar API is
// wired in; the recommendation rules are the real engine.
type Service struct {
	credentialsPath string
	apiKey          string
	logger          logger.Logger
}

func NewService(cfg *config.Config, log logger.Logger) *Service {
	service := &Service{
		credentialsPath: cfg.Calendar.CredentialsPath,
		apiKey:          cfg.Calendar.APIKey,
		logger: log.With(map[string]interface{}{
			"component": "calendar-service",
		}),
	}

	if service.credentialsPath == "" && service.apiKey == "" {
		service.logger.Warn("neither calendar credentials path nor API key configured", nil)
	}

	return service
}

// GetEvents returns calendar events within the date range.
// TODO: replace the mock events with real Google Calendar API calls
// once credentials handling lands.
func (s *Service) GetEvents(ctx context.Context, startDate, endDate time.Time) ([]Event, error) {
	s.logger.Info("fetching calendar events", map[string]interface{}{
		"start": startDate.Format(time.RFC3339),
		"end":   endDate.Format(time.RFC3339),
	})

	events := []Event{
		{
			ID:          "1",
			Summary:     "Team Meeting",
			Start:       startDate,
			End:         startDate.Add(time.Hour),
			Location:    "Conference Room A",
			Description: "Weekly team sync",
		},
		{
			ID:          "2",
			Summary:     "Outdoor Lunch",
			Start:       startDate.Add(4 * time.Hour),
			End:         startDate.Add(5 * time.Hour),
			Location:    "Central Park",
			Description: "Lunch meeting with client",
		},
	}

	return events, nil
}

// CheckOutdoorEvents filters events that might be weather-dependent.
func (s *Service) CheckOutdoorEvents(events []Event) []Event {
	outdoor := make([]Event, 0, len(events))

	for _, event := range events {
		haystack := strings.ToLower(event.Summary) +
			strings.ToLower(event.Description) +
			strings.ToLower(event.Location)

		for _, keyword := range outdoorKeywords {
			if strings.Contains(haystack, keyword) {
				outdoor = append(outdoor, event)
				break
			}
		}
	}

	return outdoor
}

// GenerateWeatherRecommendations produces one advice line per outdoor
// event, ranked by severity: precipitation first, then temperature
// extremes, then clear-sky encouragement.
func (s *Service) GenerateWeatherRecommendations(events []Event, weatherData *weather.Response) string {
	if len(events) == 0 {
		return "No events found for the specified period."
	}

	outdoor := s.CheckOutdoorEvents(events)
	if len(outdoor) == 0 {
		return "No weather-dependent events found in your calendar."
	}

	mainCondition := "Unknown"
	var temperature float64
	hasTemperature := false
	if weatherData != nil {
		if len(weatherData.Conditions) > 0 {
			mainCondition = weatherData.Conditions[0].Main
		}
		temperature = weatherData.CurrentWeather.Temperature
		hasTemperature = true
	}

	recommendations := make([]string, 0, len(outdoor))

	for _, event := range outdoor {
		name := event.Summary
		if name == "" {
			name = "Event"
		}

		switch {
		case mainCondition == "Rain" || mainCondition == "Drizzle" || mainCondition == "Thunderstorm":
			recommendations = append(recommendations, "⚠️ "+name+": Consider rescheduling or moving indoors due to rain.")
		case hasTemperature && temperature < 5:
			recommendations = append(recommendations, "🥶 "+name+": Very cold weather ("+formatTemp(temperature)+"°C) - dress warmly!")
		case hasTemperature && temperature > 30:
			recommendations = append(recommendations, "🌡️ "+name+": Hot weather ("+formatTemp(temperature)+"°C) - stay hydrated and seek shade.")
		case mainCondition == "Clear":
			recommendations = append(recommendations, "☀️ "+name+": Perfect weather for outdoor activities!")
		default:
			recommendations = append(recommendations, "🌤️ "+name+": "+mainCondition+" conditions - check details before heading out.")
		}
	}

	return strings.Join(recommendations, "\n")
}

// Healthy reports whether the calendar integration is configured.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.credentialsPath != "" || s.apiKey != ""
}

func formatTemp(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
