// internal/agent/synthesizer_test.go
package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"weather-agent/internal/common/logger"
	"weather-agent/internal/weather"
)

// ==========================
// Backend-Path Tests
// ==========================

func TestSynthesizer_Observe_BackendPath(t *testing.T) {
	backend := &stubBackend{
		configured: true,
		reply:      "The weather in Paris is cloudy with 18.5°C. A light jacket would be wise.",
	}
	synthesizer := NewSynthesizer(backend, logger.NewTestLogger(t))

	thought := weatherThought("Paris", ActionCurrentWeather)
	results := []ActionResult{
		{ActionType: ActionCurrentWeather, Success: true, Data: testWeatherResponse()},
	}

	observation := synthesizer.Observe(context.Background(), thought, results, "req-1")

	assert.False(t, observation.NeedsMoreActions)
	assert.Equal(t, backend.reply, observation.FinalResponse)
	assert.Equal(t, "en", observation.Language)
	// Backend path boosts confidence over the thought's.
	assert.InDelta(t, 1.0, observation.Confidence, 1e-9)
}

func TestSynthesizer_Observe_ConfidenceBoostCapped(t *testing.T) {
	tests := []struct {
		name     string
		thought  float64
		expected float64
	}{
		{"normal boost", 0.5, 0.6},
		{"cap at one", 0.95, 1.0},
		{"already at one", 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, boostConfidence(tt.thought), 1e-9)
		})
	}
}

// ==========================
// Fallback-Path Tests
// ==========================

func TestSynthesizer_Observe_FallbackTriggers(t *testing.T) {
	tests := []struct {
		name    string
		backend *stubBackend
	}{
		{"unconfigured backend", &stubBackend{configured: false}},
		{"backend error", &stubBackend{configured: true, err: errors.New("BACKEND_TIMEOUT")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synthesizer := NewSynthesizer(tt.backend, logger.NewTestLogger(t))

			thought := weatherThought("Paris", ActionCurrentWeather)
			results := []ActionResult{
				{ActionType: ActionCurrentWeather, Success: true, Data: testWeatherResponse()},
			}

			observation := synthesizer.Observe(context.Background(), thought, results, "req-1")

			assert.Equal(t, "The weather in Paris is scattered clouds with 18.5°C.", observation.FinalResponse)
			assert.Equal(t, fallbackConfidence, observation.Confidence)
			assert.False(t, observation.NeedsMoreActions)
		})
	}
}

func TestFallbackObserve_Templates(t *testing.T) {
	successResults := []ActionResult{
		{ActionType: ActionCurrentWeather, Success: true, Data: testWeatherResponse()},
	}
	failedResults := []ActionResult{
		{ActionType: ActionCurrentWeather, Success: false, Error: "Weather service unavailable"},
	}

	tests := []struct {
		name     string
		thought  *Thought
		results  []ActionResult
		expected string
	}{
		{
			name:     "english weather data",
			thought:  &Thought{IsWeatherRelated: true, DetectedLanguage: "en"},
			results:  successResults,
			expected: "The weather in Paris is scattered clouds with 18.5°C.",
		},
		{
			name:     "french weather data",
			thought:  &Thought{IsWeatherRelated: true, DetectedLanguage: "fr"},
			results:  successResults,
			expected: "Le temps à Paris est scattered clouds avec 18.5°C.",
		},
		{
			name:     "spanish weather data",
			thought:  &Thought{IsWeatherRelated: true, DetectedLanguage: "es"},
			results:  successResults,
			expected: "El tiempo en Paris es scattered clouds con 18.5°C.",
		},
		{
			name:     "english apology",
			thought:  &Thought{IsWeatherRelated: true, DetectedLanguage: "en"},
			results:  failedResults,
			expected: "Sorry, I couldn't get the weather information.",
		},
		{
			name:     "french apology",
			thought:  &Thought{IsWeatherRelated: true, DetectedLanguage: "fr"},
			results:  failedResults,
			expected: "Désolé, je n'ai pas pu obtenir les informations météo.",
		},
		{
			name:     "spanish apology",
			thought:  &Thought{IsWeatherRelated: true, DetectedLanguage: "es"},
			results:  failedResults,
			expected: "Lo siento, no pude obtener la información del tiempo.",
		},
		{
			name:     "english greeting",
			thought:  &Thought{IsWeatherRelated: false, DetectedLanguage: "en"},
			results:  nil,
			expected: "Hello! I'm a weather assistant. How can I help you with weather information?",
		},
		{
			name:     "french greeting",
			thought:  &Thought{IsWeatherRelated: false, DetectedLanguage: "fr"},
			results:  nil,
			expected: "Bonjour! Je suis un assistant météo. Comment puis-je vous aider avec la météo?",
		},
		{
			name:     "spanish greeting",
			thought:  &Thought{IsWeatherRelated: false, DetectedLanguage: "es"},
			results:  nil,
			expected: "¡Hola! Soy un asistente del tiempo. ¿Cómo puedo ayudarte con el clima?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observation := fallbackObserve(tt.thought, tt.results)

			assert.Equal(t, tt.expected, observation.FinalResponse)
			assert.Equal(t, fallbackConfidence, observation.Confidence)
			assert.Equal(t, tt.thought.DetectedLanguage, observation.Language)
			assert.False(t, observation.NeedsMoreActions)
		})
	}
}

func TestFallbackObserve_ForecastData(t *testing.T) {
	forecast := &weather.Forecast{
		Location: "London",
		Forecast: []weather.ForecastItem{{
			WeatherData: weather.Data{Temperature: 12},
			Conditions:  []weather.Condition{{Main: "Rain", Description: "light rain"}},
		}},
	}

	thought := &Thought{IsWeatherRelated: true, DetectedLanguage: "en"}
	results := []ActionResult{
		{ActionType: ActionWeatherForecast, Success: true, Data: forecast},
	}

	observation := fallbackObserve(thought, results)

	assert.Equal(t, "The weather in London is light rain with 12°C.", observation.FinalResponse)
}

func TestExtractWeatherData(t *testing.T) {
	response := testWeatherResponse()

	tests := []struct {
		name     string
		results  []ActionResult
		expected interface{}
	}{
		{
			name: "skips failed actions",
			results: []ActionResult{
				{ActionType: ActionCurrentWeather, Success: false, Error: "Location not found"},
				{ActionType: ActionCurrentWeather, Success: true, Data: response},
			},
			expected: response,
		},
		{
			name: "ignores non-weather payloads",
			results: []ActionResult{
				{ActionType: ActionDirectResponse, Success: true, Data: map[string]interface{}{"ready_for_direct_response": true}},
			},
			expected: nil,
		},
		{
			name:     "empty results",
			results:  nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expected == nil {
				assert.Nil(t, extractWeatherData(tt.results))
			} else {
				assert.Equal(t, tt.expected, extractWeatherData(tt.results))
			}
		})
	}
}
