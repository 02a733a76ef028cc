package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitasa/social-scheduler/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"draft released", models.PostStatusDraft, models.PostStatusPendingDispatch, true},
		{"draft gated", models.PostStatusDraft, models.PostStatusPendingApproval, true},
		{"approval released", models.PostStatusPendingApproval, models.PostStatusPendingDispatch, true},
		{"dispatch posted", models.PostStatusPendingDispatch, models.PostStatusPosted, true},
		{"dispatch failed", models.PostStatusPendingDispatch, models.PostStatusFailed, true},
		{"draft cannot post directly", models.PostStatusDraft, models.PostStatusPosted, false},
		{"approval cannot regress", models.PostStatusPendingApproval, models.PostStatusDraft, false},
		{"posted is terminal", models.PostStatusPosted, models.PostStatusPendingDispatch, false},
		{"failed is terminal", models.PostStatusFailed, models.PostStatusPendingDispatch, false},
		{"posted cannot fail", models.PostStatusPosted, models.PostStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	all := []string{
		models.PostStatusDraft,
		models.PostStatusPendingApproval,
		models.PostStatusPendingDispatch,
		models.PostStatusPosted,
		models.PostStatusFailed,
	}

	for _, terminal := range []string{models.PostStatusPosted, models.PostStatusFailed} {
		assert.True(t, IsTerminal(terminal))
		for _, to := range all {
			assert.False(t, CanTransition(terminal, to), "terminal %s must not move to %s", terminal, to)
		}
	}
}

func TestRoute(t *testing.T) {
	// The approval gate wins over autopost.
	assert.Equal(t, models.PostStatusPendingApproval, Route(true, true))
	assert.Equal(t, models.PostStatusPendingApproval, Route(true, false))
	assert.Equal(t, models.PostStatusPendingDispatch, Route(false, true))
	assert.Equal(t, models.PostStatusDraft, Route(false, false))
}

func TestIsPending(t *testing.T) {
	assert.True(t, IsPending(models.PostStatusDraft))
	assert.True(t, IsPending(models.PostStatusPendingApproval))
	assert.True(t, IsPending(models.PostStatusPendingDispatch))
	assert.False(t, IsPending(models.PostStatusPosted))
	assert.False(t, IsPending(models.PostStatusFailed))
}
