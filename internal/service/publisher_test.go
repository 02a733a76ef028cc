package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitasa/social-scheduler/internal/models"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{401, true},
		{403, true},
		{400, true},
		{422, true},
		{429, false},
		{500, false},
		{503, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := classifyStatus(models.PlatformTwitter, tt.status, "detail")
			assert.Error(t, err)
			assert.Equal(t, tt.permanent, IsPermanent(err))
		})
	}
}

func TestIsPermanentWrapped(t *testing.T) {
	err := fmt.Errorf("publishing: %w", Permanent("content rejected"))
	assert.True(t, IsPermanent(err))

	assert.False(t, IsPermanent(fmt.Errorf("network timeout")))
	assert.False(t, IsPermanent(nil))
}

func TestPublisherRegistry(t *testing.T) {
	registry := NewPublisherRegistry()
	_, ok := registry.For(models.PlatformTwitter)
	assert.False(t, ok)

	registry.Register(models.PlatformTwitter, nil)
	_, ok = registry.For(models.PlatformTwitter)
	assert.True(t, ok)
}
