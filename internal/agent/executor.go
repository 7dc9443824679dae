// internal/agent/executor.go
package agent

import (
	"context"
	"errors"
	"fmt"

	apperrors "weather-agent/internal/common/errors"
	"weather-agent/internal/common/logger"
	"weather-agent/internal/common/metrics"
	"weather-agent/internal/weather"
)

// WeatherProvider is the capability surface the executor needs.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (*weather.Response, error)
	GetForecast(ctx context.Context, location string, days int) (*weather.Forecast, error)
}

const defaultForecastDays = 5

// Executor runs the acting phase. Each action is isolated: one failure
// never aborts the rest of the plan.
type Executor struct {
	weather WeatherProvider
	logger  logger.Logger
}

func NewExecutor(provider WeatherProvider, log logger.Logger) *Executor {
	return &Executor{
		weather: provider,
		logger: log.With(map[string]interface{}{
			"component": "executor",
		}),
	}
}

// Execute runs the planned actions sequentially, in plan order.
func (e *Executor) Execute(ctx context.Context, thought *Thought, requestID string) []ActionResult {
	e.logger.Info("ACT started", map[string]interface{}{
		"request_id": requestID,
		"actions":    thought.SuggestedActions,
	})

	results := make([]ActionResult, 0, len(thought.SuggestedActions))
	for _, actionType := range thought.SuggestedActions {
		result := e.executeOne(ctx, actionType, thought, requestID)
		results = append(results, result)

		outcome := "success"
		if !result.Success {
			outcome = "failure"
		}
		metrics.ActionsExecuted.WithLabelValues(string(actionType), outcome).Inc()
	}

	successful := 0
	for _, result := range results {
		if result.Success {
			successful++
		}
	}

	e.logger.Info("ACT completed", map[string]interface{}{
		"request_id":         requestID,
		"total_actions":      len(results),
		"successful_actions": successful,
		"failed_actions":     len(results) - successful,
	})

	return results
}

func (e *Executor) executeOne(ctx context.Context, actionType ActionType, thought *Thought, requestID string) (result ActionResult) {
	// A panic inside one action must not take down the plan.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked", map[string]interface{}{
				"request_id":  requestID,
				"action_type": string(actionType),
				"panic":       fmt.Sprint(r),
			})
			result = ActionResult{
				ActionType: actionType,
				Success:    false,
				Error:      fmt.Sprintf("action panicked: %v", r),
			}
		}
	}()

	switch actionType {
	case ActionCurrentWeather:
		location := queryLocation(thought)
		if location == "" {
			e.logger.Warn("current weather request failed, no location", map[string]interface{}{
				"request_id": requestID,
			})
			return ActionResult{
				ActionType: actionType,
				Success:    false,
				Error:      "No location specified for weather query",
			}
		}

		data, err := e.weather.Current(ctx, location)
		if err != nil {
			return e.weatherFailure(actionType, location, err, requestID)
		}

		e.logger.Info("current weather fetched", map[string]interface{}{
			"request_id":  requestID,
			"location":    location,
			"temperature": data.CurrentWeather.Temperature,
		})
		return ActionResult{ActionType: actionType, Success: true, Data: data}

	case ActionWeatherForecast:
		location := queryLocation(thought)
		if location == "" {
			e.logger.Warn("forecast request failed, no location", map[string]interface{}{
				"request_id": requestID,
			})
			return ActionResult{
				ActionType: actionType,
				Success:    false,
				Error:      "No location specified for forecast query",
			}
		}

		data, err := e.weather.GetForecast(ctx, location, defaultForecastDays)
		if err != nil {
			return e.weatherFailure(actionType, location, err, requestID)
		}

		e.logger.Info("forecast fetched", map[string]interface{}{
			"request_id":     requestID,
			"location":       location,
			"forecast_slots": len(data.Forecast),
		})
		return ActionResult{ActionType: actionType, Success: true, Data: data}

	case ActionDirectResponse:
		// No external call; the observation phase composes the reply.
		return ActionResult{
			ActionType: actionType,
			Success:    true,
			Data:       map[string]interface{}{"ready_for_direct_response": true},
		}

	default: // ActionNone
		return ActionResult{
			ActionType: ActionNone,
			Success:    true,
			Data:       map[string]interface{}{"no_action_taken": true},
		}
	}
}

func (e *Executor) weatherFailure(actionType ActionType, location string, err error, requestID string) ActionResult {
	var reason string
	var code apperrors.ErrorCode
	switch {
	case errors.Is(err, weather.ErrServiceUnavailable):
		stdErr := apperrors.NewWeatherServiceUnavailableError(err)
		reason, code = stdErr.Message, stdErr.Code
	case errors.Is(err, weather.ErrLocationNotFound):
		stdErr := apperrors.NewLocationNotFoundError(location)
		reason, code = stdErr.Message, stdErr.Code
	default:
		reason, code = err.Error(), apperrors.ErrCodeWeatherRequestFailed
	}

	e.logger.Error("weather action failed", map[string]interface{}{
		"request_id":  requestID,
		"action_type": string(actionType),
		"location":    location,
		"code":        string(code),
		"category":    apperrors.GetErrorCategory(code),
		"error":       err.Error(),
	})

	return ActionResult{ActionType: actionType, Success: false, Error: reason}
}

func queryLocation(thought *Thought) string {
	if thought.ParsedQuery == nil || thought.ParsedQuery.Location == nil {
		return ""
	}
	return *thought.ParsedQuery.Location
}
