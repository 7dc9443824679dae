// internal/agent/models.go
package agent

import "time"

// ActionType is the closed set of actions the agent can take.
type ActionType string

const (
	ActionNone            ActionType = "no_action"
	ActionCurrentWeather  ActionType = "get_current_weather"
	ActionWeatherForecast ActionType = "get_weather_forecast"
	ActionDirectResponse  ActionType = "direct_response"
)

// ParseActionType maps a backend action name onto the closed set. Unknown
// strings map to ActionNone; this is the single place wire strings become
// ActionType values.
func ParseActionType(raw string) ActionType {
	switch raw {
	case "weather_current":
		return ActionCurrentWeather
	case "weather_forecast":
		return ActionWeatherForecast
	case "direct_response":
		return ActionDirectResponse
	default:
		return ActionNone
	}
}

// ParsedQuery is the structured data extracted from a natural language query.
type ParsedQuery struct {
	Location      *string `json:"location"`
	DateTime      *string `json:"date_time"`
	WeatherAspect *string `json:"weather_aspect"`
	QueryType     string  `json:"query_type"`
	Confidence    float64 `json:"confidence"`
	OriginalQuery string  `json:"original_query"`
}

// Thought is the result of the thinking phase.
type Thought struct {
	IsWeatherRelated bool         `json:"is_weather_related"`
	DetectedLanguage string       `json:"detected_language"`
	Confidence       float64      `json:"confidence"`
	Reasoning        string       `json:"reasoning"`
	SuggestedActions []ActionType `json:"suggested_actions"`
	ParsedQuery      *ParsedQuery `json:"parsed_query,omitempty"`
}

// ActionResult is the outcome of one executed action. Data holds the
// capability payload (*weather.Response or *weather.Forecast) on success.
type ActionResult struct {
	ActionType ActionType  `json:"action_type"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Observation is the result of the observation phase.
type Observation struct {
	NeedsMoreActions bool    `json:"needs_more_actions"`
	FinalResponse    string  `json:"final_response"`
	Confidence       float64 `json:"confidence"`
	Language         string  `json:"language"`
}

// QueryResponse is the full pipeline result returned to API clients.
type QueryResponse struct {
	ParsedQuery      ParsedQuery `json:"parsed_query"`
	NaturalResponse  string      `json:"natural_response"`
	WeatherData      interface{} `json:"weather_data,omitempty"`
	Timestamp        time.Time   `json:"timestamp"`
	ProcessingTimeMs float64     `json:"processing_time_ms"`
}
