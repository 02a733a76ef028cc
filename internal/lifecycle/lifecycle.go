// Package lifecycle owns the scheduled-post state machine. Every status
// change in the system goes through CanTransition; posted and failed are
// terminal and immutable.
package lifecycle

import "github.com/unitasa/social-scheduler/internal/models"

var transitions = map[string][]string{
	models.PostStatusDraft: {
		models.PostStatusPendingApproval,
		models.PostStatusPendingDispatch,
	},
	models.PostStatusPendingApproval: {
		models.PostStatusPendingDispatch,
		models.PostStatusFailed,
	},
	models.PostStatusPendingDispatch: {
		models.PostStatusPosted,
		models.PostStatusFailed,
	},
}

// CanTransition reports whether a post may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status is final. Terminal posts are
// append-only history and can be neither edited nor deleted.
func IsTerminal(status string) bool {
	return status == models.PostStatusPosted || status == models.PostStatusFailed
}

// IsPending reports whether a status is shown as "pending" to the user:
// anything already created but not yet posted or failed.
func IsPending(status string) bool {
	return status == models.PostStatusDraft ||
		status == models.PostStatusPendingApproval ||
		status == models.PostStatusPendingDispatch
}

// Route decides where a freshly created post goes. The account-level
// approval gate is a hard gate; autopost only applies past it. A rule
// without autopost parks the post as a draft for the user to release.
func Route(approvalRequired, autopost bool) string {
	if approvalRequired {
		return models.PostStatusPendingApproval
	}
	if autopost {
		return models.PostStatusPendingDispatch
	}
	return models.PostStatusDraft
}
