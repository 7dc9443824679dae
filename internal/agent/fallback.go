// internal/agent/fallback.go
package agent

import (
	"strconv"
	"strings"
	"unicode"

	"weather-agent/internal/weather"
)

// Keyword tables for the rule-based fallback. The planner and synthesizer
// share these so language detection stays consistent across stages.
var (
	weatherKeywords = []string{
		"weather", "temperature", "rain", "sunny", "cloudy", "forecast", "wind", "humidity",
		"météo", "temps", "pluie", "soleil", "vent", "humidité", // French
		"tiempo", "lluvia", "llover", "sol", "viento", "humedad", // Spanish
	}

	frenchWords  = []string{"bonjour", "quel", "temps", "météo", "il", "fait"}
	spanishWords = []string{"hola", "tiempo", "lluvia", "llover", "mañana", "hace", "será"}

	forecastWords = []string{"tomorrow", "next", "forecast", "demain", "mañana"}
)

const fallbackConfidence = 0.4

// detectLanguage applies the keyword heuristic: French checked first,
// then Spanish, English as the default. Marker words must match whole
// tokens so short ones like "il" don't fire inside English words.
func detectLanguage(queryLower string) string {
	tokens := strings.FieldsFunc(queryLower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if containsAnyWord(tokens, frenchWords) {
		return "fr"
	}
	if containsAnyWord(tokens, spanishWords) {
		return "es"
	}
	return "en"
}

func containsAnyWord(tokens, words []string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// fallbackThink is the rule-based substitute for the thinking phase.
func fallbackThink(query string) *Thought {
	queryLower := strings.ToLower(query)

	isWeatherRelated := containsAny(queryLower, weatherKeywords)
	detectedLanguage := detectLanguage(queryLower)

	var suggestedActions []ActionType
	if isWeatherRelated {
		if containsAny(queryLower, forecastWords) {
			suggestedActions = append(suggestedActions, ActionWeatherForecast)
		} else {
			suggestedActions = append(suggestedActions, ActionCurrentWeather)
		}
	} else {
		suggestedActions = append(suggestedActions, ActionDirectResponse)
	}

	return &Thought{
		IsWeatherRelated: isWeatherRelated,
		DetectedLanguage: detectedLanguage,
		Confidence:       fallbackConfidence,
		Reasoning:        "Fallback analysis - limited reasoning capabilities",
		SuggestedActions: suggestedActions,
	}
}

// fallbackObserve is the template-based substitute for the observation phase.
func fallbackObserve(thought *Thought, results []ActionResult) *Observation {
	weatherData := extractWeatherData(results)

	var finalResponse string
	if thought.IsWeatherRelated {
		if weatherData != nil {
			location, temp, condition := summarizeWeatherData(weatherData)
			switch thought.DetectedLanguage {
			case "fr":
				finalResponse = "Le temps à " + location + " est " + condition + " avec " + temp + "°C."
			case "es":
				finalResponse = "El tiempo en " + location + " es " + condition + " con " + temp + "°C."
			default:
				finalResponse = "The weather in " + location + " is " + condition + " with " + temp + "°C."
			}
		} else {
			switch thought.DetectedLanguage {
			case "fr":
				finalResponse = "Désolé, je n'ai pas pu obtenir les informations météo."
			case "es":
				finalResponse = "Lo siento, no pude obtener la información del tiempo."
			default:
				finalResponse = "Sorry, I couldn't get the weather information."
			}
		}
	} else {
		switch thought.DetectedLanguage {
		case "fr":
			finalResponse = "Bonjour! Je suis un assistant météo. Comment puis-je vous aider avec la météo?"
		case "es":
			finalResponse = "¡Hola! Soy un asistente del tiempo. ¿Cómo puedo ayudarte con el clima?"
		default:
			finalResponse = "Hello! I'm a weather assistant. How can I help you with weather information?"
		}
	}

	return &Observation{
		NeedsMoreActions: false,
		FinalResponse:    finalResponse,
		Confidence:       fallbackConfidence,
		Language:         thought.DetectedLanguage,
	}
}

// extractWeatherData returns the payload of the first successful action that
// carried weather data.
func extractWeatherData(results []ActionResult) interface{} {
	for _, result := range results {
		if !result.Success || result.Data == nil {
			continue
		}
		switch result.Data.(type) {
		case *weather.Response, *weather.Forecast:
			return result.Data
		}
	}
	return nil
}

// summarizeWeatherData pulls location, temperature, and condition out of
// either a current-weather response or the first forecast slot.
func summarizeWeatherData(data interface{}) (location, temp, condition string) {
	location = "that location"
	condition = "unknown"
	temp = "?"

	switch d := data.(type) {
	case *weather.Response:
		if d.Location != "" {
			location = d.Location
		}
		temp = formatTemp(d.CurrentWeather.Temperature)
		if len(d.Conditions) > 0 {
			condition = d.Conditions[0].Description
		}
	case *weather.Forecast:
		if d.Location != "" {
			location = d.Location
		}
		if len(d.Forecast) > 0 {
			first := d.Forecast[0]
			temp = formatTemp(first.WeatherData.Temperature)
			if len(first.Conditions) > 0 {
				condition = first.Conditions[0].Description
			}
		}
	}

	return location, temp, condition
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
