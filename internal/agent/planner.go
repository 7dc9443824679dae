// internal/agent/planner.go
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"weather-agent/internal/common/logger"
	"weather-agent/internal/common/metrics"
)

// Backend produces raw judgments for the planner and synthesizer. Each
// stage supplies its own sampling temperature and token budget.
type Backend interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
	Configured() bool
}

// Stage-specific sampling parameters: thinking wants near-deterministic
// JSON, observing wants a warmer conversational register.
const (
	thinkTemperature   = 0.1
	thinkMaxTokens     = 500
	observeTemperature = 0.7
	observeMaxTokens   = 400
)

const plannerSystemPrompt = `You are an intelligent weather agent. Analyze the user's query and reason about what actions to take.

Analyze the query and determine:
1. Is this query weather-related? (true/false)
2. What language is the user using? (detect language code like 'en', 'fr', 'es', etc.)
3. What actions should be taken? Use EXACTLY these action names:
   - "weather_current" for current weather queries
   - "weather_forecast" for future weather queries (tomorrow, next week, etc.)
   - "direct_response" for non-weather queries
   - "no_action" for unclear queries
4. If weather-related, extract location, time, and specific weather aspects

Return a JSON object with this structure:
{
    "is_weather_related": boolean,
    "detected_language": "language_code",
    "confidence": float (0.0-1.0),
    "reasoning": "explanation of your thinking process",
    "suggested_actions": ["action1", "action2"],
    "parsed_query": {
        "location": "extracted location or null",
        "date_time": "time reference or null",
        "weather_aspect": "specific aspect or null",
        "query_type": "current/forecast/other"
    }
}

Examples:
- "What's the weather in Paris?" → {"suggested_actions": ["weather_current"]}
- "Will it rain tomorrow in London?" → {"suggested_actions": ["weather_forecast"]}
- "¿Lloverá mañana en Madrid?" → {"suggested_actions": ["weather_forecast"]}
- "Hello, how are you?" → {"suggested_actions": ["direct_response"]}`

// judgmentSchema validates the backend's judgment before it is trusted.
// Any violation sends the planner to the fallback path.
const judgmentSchema = `{
	"type": "object",
	"required": ["is_weather_related", "detected_language", "confidence", "suggested_actions"],
	"properties": {
		"is_weather_related": {"type": "boolean"},
		"detected_language": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reasoning": {"type": "string"},
		"suggested_actions": {
			"type": "array",
			"items": {"type": "string"}
		},
		"parsed_query": {
			"type": ["object", "null"],
			"properties": {
				"location": {"type": ["string", "null"]},
				"date_time": {"type": ["string", "null"]},
				"weather_aspect": {"type": ["string", "null"]},
				"query_type": {"type": ["string", "null"]}
			}
		}
	}
}`

// backendJudgment is the wire shape of a schema-valid planner reply.
type backendJudgment struct {
	IsWeatherRelated bool     `json:"is_weather_related"`
	DetectedLanguage string   `json:"detected_language"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	SuggestedActions []string `json:"suggested_actions"`
	ParsedQuery      *struct {
		Location      *string `json:"location"`
		DateTime      *string `json:"date_time"`
		WeatherAspect *string `json:"weather_aspect"`
		QueryType     *string `json:"query_type"`
	} `json:"parsed_query"`
}

// Planner runs the thinking phase.
type Planner struct {
	backend Backend
	schema  *gojsonschema.Schema
	logger  logger.Logger
}

func NewPlanner(backend Backend, log logger.Logger) *Planner {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(judgmentSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is a
		// programming error.
		panic("agent: invalid judgment schema: " + err.Error())
	}

	return &Planner{
		backend: backend,
		schema:  schema,
		logger: log.With(map[string]interface{}{
			"component": "planner",
		}),
	}
}

// Think analyzes the query and plans actions. Every backend failure,
// including schema-invalid judgments, degrades to the rule-based fallback.
func (p *Planner) Think(ctx context.Context, query, requestID string) *Thought {
	if !p.backend.Configured() {
		p.logger.Warn("using fallback thinking, backend unconfigured", map[string]interface{}{
			"request_id": requestID,
		})
		metrics.FallbackActivations.WithLabelValues("think").Inc()
		return fallbackThink(query)
	}

	content, err := p.backend.Complete(ctx, plannerSystemPrompt, query, thinkTemperature, thinkMaxTokens)
	if err != nil {
		p.logger.Error("thinking phase backend call failed, falling back", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		metrics.FallbackActivations.WithLabelValues("think").Inc()
		return fallbackThink(query)
	}

	thought, err := p.parseJudgment(content, query)
	if err != nil {
		p.logger.Error("backend judgment rejected, falling back", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		metrics.FallbackActivations.WithLabelValues("think").Inc()
		return fallbackThink(query)
	}

	p.logger.Info("THINK completed", map[string]interface{}{
		"request_id":      requestID,
		"weather_related": thought.IsWeatherRelated,
		"language":        thought.DetectedLanguage,
		"confidence":      thought.Confidence,
		"planned_actions": thought.SuggestedActions,
		"reasoning":       thought.Reasoning,
	})

	return thought
}

func (p *Planner) parseJudgment(content, query string) (*Thought, error) {
	content = stripCodeFence(content)

	result, err := p.schema.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, &schemaError{violations: details}
	}

	var judgment backendJudgment
	if err := json.Unmarshal([]byte(content), &judgment); err != nil {
		return nil, err
	}

	actions := make([]ActionType, 0, len(judgment.SuggestedActions))
	for _, raw := range judgment.SuggestedActions {
		actions = append(actions, ParseActionType(raw))
	}

	var parsedQuery *ParsedQuery
	if judgment.IsWeatherRelated && judgment.ParsedQuery != nil {
		queryType := "current"
		if judgment.ParsedQuery.QueryType != nil && *judgment.ParsedQuery.QueryType != "" {
			queryType = *judgment.ParsedQuery.QueryType
		}
		parsedQuery = &ParsedQuery{
			Location:      judgment.ParsedQuery.Location,
			DateTime:      judgment.ParsedQuery.DateTime,
			WeatherAspect: judgment.ParsedQuery.WeatherAspect,
			QueryType:     queryType,
			Confidence:    judgment.Confidence,
			OriginalQuery: query,
		}
	}

	return &Thought{
		IsWeatherRelated: judgment.IsWeatherRelated,
		DetectedLanguage: defaultString(judgment.DetectedLanguage, "en"),
		Confidence:       judgment.Confidence,
		Reasoning:        judgment.Reasoning,
		SuggestedActions: actions,
		ParsedQuery:      parsedQuery,
	}, nil
}

// stripCodeFence removes a ```json wrapper if the backend added one.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}
	return strings.TrimSpace(content)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

type schemaError struct {
	violations []string
}

func (e *schemaError) Error() string {
	return "judgment schema violations: " + strings.Join(e.violations, "; ")
}
