package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithinCharacterLimitBoundary(t *testing.T) {
	atLimit := strings.Repeat("a", 280)
	assert.True(t, WithinCharacterLimit(PlatformTwitter, atLimit))
	assert.False(t, WithinCharacterLimit(PlatformTwitter, atLimit+"a"))
}

func TestWithinCharacterLimitCountsRunes(t *testing.T) {
	// 280 multi-byte characters are still 280 characters.
	content := strings.Repeat("ü", 280)
	assert.True(t, WithinCharacterLimit(PlatformTwitter, content))
	assert.False(t, WithinCharacterLimit(PlatformTwitter, content+"ü"))
}

func TestWithinCharacterLimitUnlimited(t *testing.T) {
	assert.True(t, WithinCharacterLimit(PlatformMedium, strings.Repeat("a", 100000)))
}

func TestCharacterLimit(t *testing.T) {
	limit, ok := CharacterLimit(PlatformMastodon)
	assert.True(t, ok)
	assert.Equal(t, 500, limit)

	_, ok = CharacterLimit(PlatformMedium)
	assert.False(t, ok)

	_, ok = CharacterLimit("friendster")
	assert.False(t, ok)
}

func TestIsValidPlatform(t *testing.T) {
	assert.True(t, IsValidPlatform(PlatformTwitter))
	assert.True(t, IsValidPlatform(PlatformMedium))
	assert.False(t, IsValidPlatform(""))
	assert.False(t, IsValidPlatform("friendster"))
}
