package orchestrator

import (
	"math"
	"strings"

	"github.com/promptly/client/internal/models"
)

// Request defaults and bounds
const (
	DefaultTemperature = 0.7
	MinTemperature     = 0.0
	MaxTemperature     = 1.0

	DefaultMaxTokens = 256
	MinMaxTokens     = 50
	MaxMaxTokens     = 1024
)

// Normalize turns raw form input into a request the service accepts.
// It returns ErrEmptyText when the trimmed text is empty.
func Normalize(input models.FormInput) (models.GenerationRequest, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return models.GenerationRequest{}, ErrEmptyText
	}

	platform := models.PlatformGeneral
	if p, ok := models.ParsePlatform(input.Platform); ok {
		platform = p
	}

	temperature := DefaultTemperature
	if input.Temperature != nil && !math.IsNaN(*input.Temperature) {
		temperature = math.Min(MaxTemperature, math.Max(MinTemperature, *input.Temperature))
	}

	maxTokens := DefaultMaxTokens
	if input.MaxTokens != nil {
		maxTokens = min(MaxMaxTokens, max(MinMaxTokens, *input.MaxTokens))
	}

	useLegacy := false
	if input.UseLegacy != nil {
		useLegacy = *input.UseLegacy
	}

	return models.GenerationRequest{
		Text:         text,
		Platform:     platform,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		UseLegacyAPI: useLegacy,
	}, nil
}
