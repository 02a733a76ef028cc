package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

func TestTemperatureFor(t *testing.T) {
	assert.InDelta(t, 0.7, temperatureFor(nil), 0.001)
	assert.InDelta(t, 0.0, temperatureFor(&transfer.ContentVariation{Creativity: 0}), 0.001)
	assert.InDelta(t, 0.5, temperatureFor(&transfer.ContentVariation{Creativity: 50}), 0.001)
	assert.InDelta(t, 1.0, temperatureFor(&transfer.ContentVariation{Creativity: 100}), 0.001)

	// Out-of-range knobs clamp instead of producing garbage temperatures.
	assert.InDelta(t, 1.0, temperatureFor(&transfer.ContentVariation{Creativity: 500}), 0.001)
	assert.InDelta(t, 0.0, temperatureFor(&transfer.ContentVariation{Creativity: -5}), 0.001)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(&transfer.GenerationRequest{
		Platform:    models.PlatformTwitter,
		ContentType: "announcement",
		Tone:        "excited",
		Topic:       "v2 launch",
		ThemePreset: "product",
		Variation:   &transfer.ContentVariation{Creativity: 80, Humor: 75, Length: 20},
	})

	assert.Contains(t, prompt, "announcement")
	assert.Contains(t, prompt, "twitter")
	assert.Contains(t, prompt, "v2 launch")
	assert.Contains(t, prompt, "Tone: excited")
	assert.Contains(t, prompt, "Theme: product")
	assert.Contains(t, prompt, "funny")
	assert.Contains(t, prompt, "very short")
	assert.Contains(t, prompt, "at most 280 characters")
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := buildPrompt(&transfer.GenerationRequest{
		Platform: models.PlatformMedium,
		Topic:    "retrospective",
	})

	assert.Contains(t, prompt, "post")
	assert.NotContains(t, prompt, "Tone:")
	// Medium has no practical limit, so no limit line appears.
	assert.NotContains(t, prompt, "Hard limit")
}
