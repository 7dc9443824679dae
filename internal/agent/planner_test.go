// internal/agent/planner_test.go
package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"weather-agent/internal/common/logger"
)

// ==========================
// Test Backend Stub
// ==========================

type stubBackend struct {
	configured      bool
	reply           string
	err             error
	calls           int
	lastTemperature float64
	lastMaxTokens   int
}

func (s *stubBackend) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	s.calls++
	s.lastTemperature = temperature
	s.lastMaxTokens = maxTokens
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubBackend) Configured() bool {
	return s.configured
}

// ==========================
// Backend-Path Tests
// ==========================

func TestPlanner_Think_BackendJudgment(t *testing.T) {
	backend := &stubBackend{
		configured: true,
		reply: `{
			"is_weather_related": true,
			"detected_language": "en",
			"confidence": 0.9,
			"reasoning": "User asks about current weather in Paris",
			"suggested_actions": ["weather_current"],
			"parsed_query": {
				"location": "Paris",
				"date_time": null,
				"weather_aspect": null,
				"query_type": "current"
			}
		}`,
	}

	planner := NewPlanner(backend, logger.NewTestLogger(t))

	thought := planner.Think(context.Background(), "What's the weather in Paris?", "req-1")

	assert.True(t, thought.IsWeatherRelated)
	assert.Equal(t, "en", thought.DetectedLanguage)
	assert.Equal(t, 0.9, thought.Confidence)
	assert.Equal(t, []ActionType{ActionCurrentWeather}, thought.SuggestedActions)
	assert.NotNil(t, thought.ParsedQuery)
	assert.Equal(t, "Paris", *thought.ParsedQuery.Location)
	assert.Equal(t, "current", thought.ParsedQuery.QueryType)
	assert.Equal(t, "What's the weather in Paris?", thought.ParsedQuery.OriginalQuery)

	// Thinking runs near-deterministic with a 500-token budget.
	assert.Equal(t, 0.1, backend.lastTemperature)
	assert.Equal(t, 500, backend.lastMaxTokens)
}

func TestPlanner_Think_CodeFencedJudgment(t *testing.T) {
	backend := &stubBackend{
		configured: true,
		reply: "```json\n" + `{
			"is_weather_related": false,
			"detected_language": "en",
			"confidence": 0.8,
			"reasoning": "greeting",
			"suggested_actions": ["direct_response"]
		}` + "\n```",
	}

	planner := NewPlanner(backend, logger.NewTestLogger(t))

	thought := planner.Think(context.Background(), "Hello!", "req-1")

	assert.False(t, thought.IsWeatherRelated)
	assert.Equal(t, []ActionType{ActionDirectResponse}, thought.SuggestedActions)
	assert.Equal(t, 0.8, thought.Confidence)
}

func TestPlanner_Think_UnknownActionMapsToNoAction(t *testing.T) {
	backend := &stubBackend{
		configured: true,
		reply: `{
			"is_weather_related": false,
			"detected_language": "en",
			"confidence": 0.7,
			"reasoning": "unclear",
			"suggested_actions": ["launch_rocket", "weather_current"]
		}`,
	}

	planner := NewPlanner(backend, logger.NewTestLogger(t))

	thought := planner.Think(context.Background(), "do something", "req-1")

	assert.Equal(t, []ActionType{ActionNone, ActionCurrentWeather}, thought.SuggestedActions)
}

// ==========================
// Fallback-Path Tests
// ==========================

func TestPlanner_Think_FallbackTriggers(t *testing.T) {
	tests := []struct {
		name    string
		backend *stubBackend
	}{
		{"unconfigured backend", &stubBackend{configured: false}},
		{"backend error", &stubBackend{configured: true, err: errors.New("BACKEND_TIMEOUT")}},
		{"malformed json", &stubBackend{configured: true, reply: "not json {{{"}},
		{"schema violation: missing fields", &stubBackend{configured: true, reply: `{"is_weather_related": true}`}},
		{"schema violation: confidence out of range", &stubBackend{configured: true, reply: `{
			"is_weather_related": true,
			"detected_language": "en",
			"confidence": 1.5,
			"suggested_actions": ["weather_current"]
		}`}},
		{"schema violation: wrong types", &stubBackend{configured: true, reply: `{
			"is_weather_related": "yes",
			"detected_language": "en",
			"confidence": 0.9,
			"suggested_actions": ["weather_current"]
		}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := NewPlanner(tt.backend, logger.NewTestLogger(t))

			thought := planner.Think(context.Background(), "What's the weather in Paris?", "req-1")

			// All failure modes land on the rule-based result.
			assert.True(t, thought.IsWeatherRelated)
			assert.Equal(t, fallbackConfidence, thought.Confidence)
			assert.Equal(t, []ActionType{ActionCurrentWeather}, thought.SuggestedActions)
			assert.Nil(t, thought.ParsedQuery)
		})
	}
}

// ==========================
// Fallback Heuristics Tests
// ==========================

func TestFallbackThink_Classification(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		weatherRelated  bool
		language        string
		expectedActions []ActionType
	}{
		{
			name:            "english current weather",
			query:           "What is the weather like today?",
			weatherRelated:  true,
			language:        "en",
			expectedActions: []ActionType{ActionCurrentWeather},
		},
		{
			name:            "english forecast",
			query:           "Will it rain tomorrow?",
			weatherRelated:  true,
			language:        "en",
			expectedActions: []ActionType{ActionWeatherForecast},
		},
		{
			name:            "french weather query",
			query:           "Quel temps fait-il à Paris?",
			weatherRelated:  true,
			language:        "fr",
			expectedActions: []ActionType{ActionCurrentWeather},
		},
		{
			name:            "french forecast",
			query:           "Quelle est la météo demain?",
			weatherRelated:  true,
			language:        "fr",
			expectedActions: []ActionType{ActionWeatherForecast},
		},
		{
			name:            "spanish forecast",
			query:           "¿Lloverá mañana en Madrid?",
			weatherRelated:  true,
			language:        "es",
			expectedActions: []ActionType{ActionWeatherForecast},
		},
		{
			name:            "plain greeting",
			query:           "Good morning, how are you?",
			weatherRelated:  false,
			language:        "en",
			expectedActions: []ActionType{ActionDirectResponse},
		},
		{
			name:            "empty query",
			query:           "",
			weatherRelated:  false,
			language:        "en",
			expectedActions: []ActionType{ActionDirectResponse},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thought := fallbackThink(tt.query)

			assert.Equal(t, tt.weatherRelated, thought.IsWeatherRelated)
			assert.Equal(t, tt.language, thought.DetectedLanguage)
			assert.Equal(t, tt.expectedActions, thought.SuggestedActions)
			assert.Equal(t, fallbackConfidence, thought.Confidence)
		})
	}
}

func TestParseActionType(t *testing.T) {
	tests := []struct {
		raw      string
		expected ActionType
	}{
		{"weather_current", ActionCurrentWeather},
		{"weather_forecast", ActionWeatherForecast},
		{"direct_response", ActionDirectResponse},
		{"no_action", ActionNone},
		{"", ActionNone},
		{"anything_else", ActionNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseActionType(tt.raw), "raw: %q", tt.raw)
	}
}
