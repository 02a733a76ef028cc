package models

import (
	"database/sql"
	"time"
)

type ScheduledPost struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	RuleID        sql.NullInt64 `db:"rule_id" json:"rule_id"`
	AccountID     int64         `db:"account_id" json:"account_id"`
	Platform      string        `db:"platform" json:"platform"`
	Content       string        `db:"content" json:"content"`
	ScheduledAt   time.Time     `db:"scheduled_at" json:"scheduled_at"`
	NextAttemptAt time.Time     `db:"next_attempt_at" json:"-"`
	Status        string        `db:"status" json:"status"`
	Attempts      int           `db:"attempts" json:"attempts"`
	PostedAt      sql.NullTime  `db:"posted_at" json:"posted_at"`
	PostURL       string        `db:"post_url" json:"post_url"`
	FailedAt      sql.NullTime  `db:"failed_at" json:"failed_at"`
	FailureReason string        `db:"failure_reason" json:"failure_reason"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft           = "draft"
	PostStatusPendingApproval = "pending_approval"
	PostStatusPendingDispatch = "pending_dispatch"
	PostStatusPosted          = "posted"
	PostStatusFailed          = "failed"
)

// Firing failure reasons surfaced in history.
const (
	FailureGeneration      = "generation_failed"
	FailureNoAccount       = "account_not_connected"
	FailureContentTooLong  = "content_exceeds_platform_limit"
	FailureUnsupported     = "platform_not_supported"
	FailureRetriesExceeded = "retry_budget_exhausted"
)
