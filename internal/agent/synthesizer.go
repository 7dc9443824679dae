// internal/agent/synthesizer.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"weather-agent/internal/common/logger"
	"weather-agent/internal/common/metrics"
)

// Synthesizer runs the observation phase: it turns action results into the
// final natural-language response.
type Synthesizer struct {
	backend Backend
	logger  logger.Logger
}

func NewSynthesizer(backend Backend, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		backend: backend,
		logger: log.With(map[string]interface{}{
			"component": "synthesizer",
		}),
	}
}

// Observe generates the final response. Backend failures degrade to
// per-language templates; needs_more_actions is always false.
func (s *Synthesizer) Observe(ctx context.Context, thought *Thought, results []ActionResult, requestID string) *Observation {
	if !s.backend.Configured() {
		s.logger.Warn("using fallback observation, backend unconfigured", map[string]interface{}{
			"request_id": requestID,
		})
		metrics.FallbackActivations.WithLabelValues("observe").Inc()
		return fallbackObserve(thought, results)
	}

	systemPrompt := fmt.Sprintf(`You are a helpful weather assistant. Generate a final response based on:
1. The user's original query
2. The reasoning process
3. The results of actions taken

CRITICAL REQUIREMENTS:
- ALWAYS respond in the same language as the user's query (detected language: %s)
- Be natural and conversational
- If weather data is available, provide helpful and relevant information
- If no weather data is available due to errors, explain politely
- If the query was not weather-related, respond helpfully to their actual question

Language examples:
- English: "The weather in Paris is sunny with 22°C."
- French: "Le temps à Paris est ensoleillé avec 22°C."
- Spanish: "El tiempo en Madrid es soleado con 22°C."`, thought.DetectedLanguage)

	contextJSON, err := json.Marshal(s.buildContext(thought, results))
	if err != nil {
		s.logger.Error("observation context marshal failed, falling back", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		metrics.FallbackActivations.WithLabelValues("observe").Inc()
		return fallbackObserve(thought, results)
	}

	userPrompt := fmt.Sprintf("Context: %s\n\nGenerate a natural, helpful response in the user's language (%s).",
		string(contextJSON), thought.DetectedLanguage)

	finalResponse, err := s.backend.Complete(ctx, systemPrompt, userPrompt, observeTemperature, observeMaxTokens)
	if err != nil {
		s.logger.Error("observation backend call failed, falling back", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		metrics.FallbackActivations.WithLabelValues("observe").Inc()
		return fallbackObserve(thought, results)
	}

	s.logger.Info("OBSERVE completed", map[string]interface{}{
		"request_id":      requestID,
		"language":        thought.DetectedLanguage,
		"response_length": len(finalResponse),
	})

	return &Observation{
		NeedsMoreActions: false,
		FinalResponse:    finalResponse,
		Confidence:       boostConfidence(thought.Confidence),
		Language:         thought.DetectedLanguage,
	}
}

func (s *Synthesizer) buildContext(thought *Thought, results []ActionResult) map[string]interface{} {
	originalQuery := ""
	if thought.ParsedQuery != nil {
		originalQuery = thought.ParsedQuery.OriginalQuery
	}

	actionResults := make([]map[string]interface{}, 0, len(results))
	for _, result := range results {
		actionResults = append(actionResults, map[string]interface{}{
			"action":  string(result.ActionType),
			"success": result.Success,
			"data":    result.Data,
			"error":   result.Error,
		})
	}

	return map[string]interface{}{
		"original_query":     originalQuery,
		"user_language":      thought.DetectedLanguage,
		"is_weather_related": thought.IsWeatherRelated,
		"reasoning":          thought.Reasoning,
		"action_results":     actionResults,
	}
}

// boostConfidence rewards a completed backend path over the raw thought
// confidence, capped at 1.0.
func boostConfidence(confidence float64) float64 {
	boosted := confidence + 0.1
	if boosted > 1.0 {
		return 1.0
	}
	return boosted
}
