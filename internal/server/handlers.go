// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"weather-agent/internal/agent"
	"weather-agent/internal/calendar"
	"weather-agent/internal/common/config"
	apperrors "weather-agent/internal/common/errors"
	"weather-agent/internal/common/logger"
	"weather-agent/internal/weather"
)

const maxQueryLength = 500

// AgentService is the natural language pipeline behind /query.
type AgentService interface {
	ProcessQuery(ctx context.Context, query string) *agent.QueryResponse
	Parse(ctx context.Context, query string) *agent.ParsedQuery
}

// WeatherService is the weather capability behind /weather and the
// calendar weather check.
type WeatherService interface {
	Current(ctx context.Context, location string) (*weather.Response, error)
	GetForecast(ctx context.Context, location string, days int) (*weather.Forecast, error)
	Configured() bool
	Healthy(ctx context.Context) bool
}

// CalendarService is the recommendation engine behind /calendar.
type CalendarService interface {
	GetEvents(ctx context.Context, startDate, endDate time.Time) ([]calendar.Event, error)
	CheckOutdoorEvents(events []calendar.Event) []calendar.Event
	GenerateWeatherRecommendations(events []calendar.Event, weatherData *weather.Response) string
	Healthy(ctx context.Context) bool
}

// Backend reports the language model's availability for health checks.
type Backend interface {
	Configured() bool
	Healthy(ctx context.Context) bool
}

type Handler struct {
	agent    AgentService
	weather  WeatherService
	calendar CalendarService
	backend  Backend
	cfg      *config.Config
	logger   logger.Logger
}

func NewHandler(agentService AgentService, weatherService WeatherService, calendarService CalendarService, backend Backend, cfg *config.Config, log logger.Logger) *Handler {
	return &Handler{
		agent:    agentService,
		weather:  weatherService,
		calendar: calendarService,
		backend:  backend,
		cfg:      cfg,
		logger: log.With(map[string]interface{}{
			"component": "http-handler",
		}),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", h.processQuery)
	mux.HandleFunc("POST /query/{$}", h.processQuery)
	mux.HandleFunc("POST /query/parse", h.parseQuery)
	mux.HandleFunc("GET /query/health", h.queryHealth)

	mux.HandleFunc("GET /weather/current/{location}", h.currentWeather)
	mux.HandleFunc("GET /weather/forecast/{location}", h.weatherForecast)
	mux.HandleFunc("GET /weather/health", h.weatherHealth)

	mux.HandleFunc("GET /calendar/events", h.calendarEvents)
	mux.HandleFunc("GET /calendar/outdoor-events", h.outdoorEvents)
	mux.HandleFunc("POST /calendar/weather-check", h.calendarWeatherCheck)
	mux.HandleFunc("GET /calendar/health", h.calendarHealth)

	mux.HandleFunc("GET /health", h.health)
}

// ==========================
// Request/Response Models
// ==========================

type queryRequest struct {
	Query     string  `json:"query"`
	UserID    *string `json:"user_id,omitempty"`
	SessionID *string `json:"session_id,omitempty"`
}

type calendarCheckRequest struct {
	Query      string  `json:"query"`
	DateRange  *string `json:"date_range,omitempty"`
	CalendarID *string `json:"calendar_id,omitempty"`
}

type calendarCheckResponse struct {
	Events                 []calendar.Event `json:"events"`
	WeatherRecommendations string           `json:"weather_recommendations"`
	NaturalResponse        string           `json:"natural_response"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ==========================
// Natural Language Endpoints
// ==========================

func (h *Handler) processQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	response := h.agent.ProcessQuery(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) parseQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	parsed := h.agent.Parse(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"parsed_query": parsed,
		"query":        req.Query,
	})
}

func (h *Handler) queryHealth(w http.ResponseWriter, r *http.Request) {
	nlpHealthy := h.backend.Healthy(r.Context())
	weatherHealthy := h.weather.Healthy(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "nlp",
		"status":  healthStatus(nlpHealthy && weatherHealthy),
		"components": map[string]string{
			"nlp":     healthStatus(nlpHealthy),
			"weather": healthStatus(weatherHealthy),
		},
		"openai_configured":  h.backend.Configured(),
		"weather_configured": h.weather.Configured(),
	})
}

func (h *Handler) decodeQuery(w http.ResponseWriter, r *http.Request) (*queryRequest, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}

	if len(req.Query) == 0 || len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Query must be between 1 and %d characters", maxQueryLength))
		return nil, false
	}

	return &req, true
}

// ==========================
// Direct Weather Endpoints
// ==========================

func (h *Handler) currentWeather(w http.ResponseWriter, r *http.Request) {
	location := r.PathValue("location")

	data, err := h.weather.Current(r.Context(), location)
	if err != nil {
		h.writeWeatherError(w, err, "Weather data not found for location: "+location)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) weatherForecast(w http.ResponseWriter, r *http.Request) {
	location := r.PathValue("location")

	days, ok := parseDays(w, r, 5, 10)
	if !ok {
		return
	}

	forecast, err := h.weather.GetForecast(r.Context(), location, days)
	if err != nil {
		h.writeWeatherError(w, err, "Forecast data not found for location: "+location)
		return
	}

	writeJSON(w, http.StatusOK, forecast)
}

func (h *Handler) weatherHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":        "weather",
		"status":         healthStatus(h.weather.Healthy(r.Context())),
		"api_configured": h.weather.Configured(),
	})
}

func (h *Handler) writeWeatherError(w http.ResponseWriter, err error, notFoundDetail string) {
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		writeError(w, apperrors.HTTPStatus(apperrors.ErrCodeLocationNotFound), notFoundDetail)
	case errors.Is(err, weather.ErrServiceUnavailable):
		writeError(w, apperrors.HTTPStatus(apperrors.ErrCodeWeatherServiceUnavailable), "Weather service unavailable")
	default:
		h.logger.Error("weather request failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error while fetching weather data")
	}
}

// ==========================
// Calendar Endpoints
// ==========================

func (h *Handler) calendarEvents(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r, 7, 30)
	if !ok {
		return
	}

	startDate := time.Now()
	endDate := startDate.AddDate(0, 0, days)

	events, err := h.calendar.GetEvents(r.Context(), startDate, endDate)
	if err != nil {
		h.logger.Error("calendar events lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error while fetching calendar events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"date_range": dateRange{
			Start: startDate.Format(time.RFC3339),
			End:   endDate.Format(time.RFC3339),
		},
		"count": len(events),
	})
}

func (h *Handler) outdoorEvents(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r, 7, 30)
	if !ok {
		return
	}

	startDate := time.Now()
	endDate := startDate.AddDate(0, 0, days)

	events, err := h.calendar.GetEvents(r.Context(), startDate, endDate)
	if err != nil {
		h.logger.Error("calendar events lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error while fetching outdoor events")
		return
	}

	outdoor := h.calendar.CheckOutdoorEvents(events)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outdoor_events": outdoor,
		"total_events":   len(events),
		"outdoor_count":  len(outdoor),
		"date_range": dateRange{
			Start: startDate.Format(time.RFC3339),
			End:   endDate.Format(time.RFC3339),
		},
	})
}

func (h *Handler) calendarWeatherCheck(w http.ResponseWriter, r *http.Request) {
	var req calendarCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	startDate, endDate := resolveDateRange(req.DateRange, time.Now())

	events, err := h.calendar.GetEvents(r.Context(), startDate, endDate)
	if err != nil {
		h.logger.Error("calendar events lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error while checking calendar weather")
		return
	}

	// Events carry no usable location yet, so the check runs against
	// the configured default location.
	location := h.cfg.Calendar.DefaultLocation
	weatherData, err := h.weather.Current(r.Context(), location)
	if err != nil {
		writeError(w, http.StatusNotFound, "Could not get weather data for "+location)
		return
	}

	recommendations := h.calendar.GenerateWeatherRecommendations(events, weatherData)

	description := ""
	if len(weatherData.Conditions) > 0 {
		description = weatherData.Conditions[0].Description
	}

	naturalResponse := fmt.Sprintf(
		"I found %d events in your calendar for the next week.\nHere are my weather-based recommendations:\n\n%s\n\nCurrent weather in %s: %s°C, %s",
		len(events),
		recommendations,
		location,
		formatTemp(weatherData.CurrentWeather.Temperature),
		description,
	)

	writeJSON(w, http.StatusOK, calendarCheckResponse{
		Events:                 events,
		WeatherRecommendations: recommendations,
		NaturalResponse:        naturalResponse,
	})
}

func (h *Handler) calendarHealth(w http.ResponseWriter, r *http.Request) {
	calendarHealthy := h.calendar.Healthy(r.Context())
	weatherHealthy := h.weather.Healthy(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "calendar",
		"status":  healthStatus(calendarHealthy && weatherHealthy),
		"components": map[string]string{
			"calendar": healthStatus(calendarHealthy),
			"weather":  healthStatus(weatherHealthy),
		},
		"calendar_configured": calendarHealthy,
		"weather_configured":  h.weather.Configured(),
	})
}

// ==========================
// Service Health
// ==========================

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"service":     h.cfg.App.Name,
		"version":     h.cfg.App.Version,
		"environment": h.cfg.App.Environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ==========================
// Helpers
// ==========================

// resolveDateRange turns a free-text range hint into concrete bounds.
// "tomorrow" means a one-day window starting tomorrow; anything else,
// including no hint, means the next seven days.
func resolveDateRange(hint *string, now time.Time) (time.Time, time.Time) {
	if hint != nil && strings.Contains(strings.ToLower(*hint), "tomorrow") {
		start := now.AddDate(0, 0, 1)
		return start, start.AddDate(0, 0, 1)
	}
	return now, now.AddDate(0, 0, 7)
}

func parseDays(w http.ResponseWriter, r *http.Request, defaultDays, maxDays int) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxDays))
		return 0, false
	}

	return days, true
}

func healthStatus(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}

func formatTemp(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
