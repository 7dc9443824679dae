// internal/agent/service.go
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weather-agent/internal/common/logger"
	"weather-agent/internal/common/metrics"
	"weather-agent/internal/common/observability"
)

const errorApology = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// Service orchestrates the Think-Act-Observe pipeline.
type Service struct {
	planner     *Planner
	executor    *Executor
	synthesizer *Synthesizer
	obs         *observability.Observability
	logger      logger.Logger
}

func NewService(backend Backend, provider WeatherProvider, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		planner:     NewPlanner(backend, log),
		executor:    NewExecutor(provider, log),
		synthesizer: NewSynthesizer(backend, log),
		obs:         obs,
		logger: log.With(map[string]interface{}{
			"component": "agent-service",
		}),
	}
}

// ProcessQuery runs the full pipeline for one query. It never returns an
// error to the caller: any failure, panics included, yields the fixed
// error response.
func (s *Service) ProcessQuery(ctx context.Context, query string) (response *QueryResponse) {
	startTime := time.Now()
	requestID := uuid.NewString()

	log := s.logger.WithFields(map[string]interface{}{
		"request_id": requestID,
	})

	log.Info("agent processing started", map[string]interface{}{
		"query": query,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error("agent processing panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			metrics.QueriesProcessed.WithLabelValues("error").Inc()
			if s.obs != nil {
				s.obs.RecordQueryProcessed(ctx, "error")
			}
			response = errorResponse(query, time.Since(startTime))
		}
	}()

	thought := s.runThink(ctx, query, requestID)
	results := s.runAct(ctx, thought, requestID)
	observation := s.runObserve(ctx, thought, results, requestID)

	processingTime := time.Since(startTime)

	log.Info("agent processing completed", map[string]interface{}{
		"processing_time_ms": processingTime.Milliseconds(),
		"total_actions":      len(results),
		"language":           observation.Language,
		"confidence":         observation.Confidence,
	})

	metrics.QueriesProcessed.WithLabelValues("success").Inc()
	if s.obs != nil {
		s.obs.RecordQueryProcessed(ctx, "success")
	}

	parsedQuery := thought.ParsedQuery
	if parsedQuery == nil {
		parsedQuery = &ParsedQuery{
			QueryType:     "other",
			Confidence:    thought.Confidence,
			OriginalQuery: query,
		}
	}

	return &QueryResponse{
		ParsedQuery:      *parsedQuery,
		NaturalResponse:  observation.FinalResponse,
		WeatherData:      extractWeatherData(results),
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: float64(processingTime.Microseconds()) / 1000.0,
	}
}

// Parse runs the thinking phase only, without fetching weather.
func (s *Service) Parse(ctx context.Context, query string) *ParsedQuery {
	requestID := uuid.NewString()
	thought := s.runThink(ctx, query, requestID)

	if thought.ParsedQuery != nil {
		return thought.ParsedQuery
	}
	return &ParsedQuery{
		QueryType:     "other",
		Confidence:    thought.Confidence,
		OriginalQuery: query,
	}
}

func (s *Service) runThink(ctx context.Context, query, requestID string) *Thought {
	start := time.Now()
	thought := s.planner.Think(ctx, query, requestID)
	s.recordStage(ctx, "think", time.Since(start))
	return thought
}

func (s *Service) runAct(ctx context.Context, thought *Thought, requestID string) []ActionResult {
	start := time.Now()
	results := s.executor.Execute(ctx, thought, requestID)
	s.recordStage(ctx, "act", time.Since(start))
	return results
}

func (s *Service) runObserve(ctx context.Context, thought *Thought, results []ActionResult, requestID string) *Observation {
	start := time.Now()
	observation := s.synthesizer.Observe(ctx, thought, results, requestID)
	s.recordStage(ctx, "observe", time.Since(start))
	return observation
}

func (s *Service) recordStage(ctx context.Context, stage string, duration time.Duration) {
	metrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if s.obs != nil {
		s.obs.RecordStageDuration(ctx, stage, duration)
	}
}

// errorResponse is the fixed top-level failure shape: query_type "error",
// zero confidence, no weather data.
func errorResponse(query string, elapsed time.Duration) *QueryResponse {
	return &QueryResponse{
		ParsedQuery: ParsedQuery{
			QueryType:     "error",
			Confidence:    0.0,
			OriginalQuery: query,
		},
		NaturalResponse:  errorApology,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}
}
