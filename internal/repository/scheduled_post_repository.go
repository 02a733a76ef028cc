package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/unitasa/social-scheduler/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListPending(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	ListDrafts(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	ListHistory(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	UpdateStatus(ctx context.Context, postID int64, status string) error
	UpdateContent(ctx context.Context, postID int64, content string, scheduledAt time.Time) error
	MarkPosted(ctx context.Context, postID int64, postURL string, postedAt time.Time) error
	MarkFailed(ctx context.Context, postID int64, reason string, failedAt time.Time) error
	Reschedule(ctx context.Context, postID int64, attempts int, nextAttemptAt time.Time) error
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, user_id, rule_id, account_id, platform, content, scheduled_at, next_attempt_at,
	status, attempts, posted_at, COALESCE(post_url, ''), failed_at, COALESCE(failure_reason, ''), created_at, updated_at`

func scanScheduledPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.RuleID,
		&post.AccountID,
		&post.Platform,
		&post.Content,
		&post.ScheduledAt,
		&post.NextAttemptAt,
		&post.Status,
		&post.Attempts,
		&post.PostedAt,
		&post.PostURL,
		&post.FailedAt,
		&post.FailureReason,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (
			user_id, rule_id, account_id, platform, content, scheduled_at,
			next_attempt_at, status, failure_reason, failed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, NULLIF($8, ''), $9)
		RETURNING id
	`

	args := []any{
		post.UserID,
		post.RuleID,
		post.AccountID,
		post.Platform,
		post.Content,
		post.ScheduledAt,
		post.Status,
		post.FailureReason,
		post.FailedAt,
	}

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *scheduledPostRepository) ListPending(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE user_id = $1 AND status IN ($2, $3, $4)
		ORDER BY scheduled_at, id`
	return r.list(ctx, query, userID,
		models.PostStatusDraft, models.PostStatusPendingApproval, models.PostStatusPendingDispatch)
}

func (r *scheduledPostRepository) ListDrafts(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY scheduled_at, id`
	return r.list(ctx, query, userID, models.PostStatusDraft, models.PostStatusPendingApproval)
}

func (r *scheduledPostRepository) ListHistory(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE user_id = $1 AND status = $2
		ORDER BY COALESCE(posted_at, failed_at) DESC, id DESC
		LIMIT $3 OFFSET $4`
	return r.list(ctx, query, userID, status, limit, offset)
}

// ListDue returns dispatchable posts in delivery order: earliest slot first,
// then id for same-instant posts. Due-ness goes by the retry clock, so a
// backed-off post does not come due again until its next attempt.
func (r *scheduledPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY scheduled_at, id`
	return r.list(ctx, query, models.PostStatusPendingDispatch, now)
}

func (r *scheduledPostRepository) list(ctx context.Context, query string, args ...any) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *scheduledPostRepository) UpdateStatus(ctx context.Context, postID int64, status string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) UpdateContent(ctx context.Context, postID int64, content string, scheduledAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET content = $1,
			scheduled_at = $2,
			next_attempt_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, content, scheduledAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) MarkPosted(ctx context.Context, postID int64, postURL string, postedAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			post_url = $2,
			posted_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPosted, postURL, postedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) MarkFailed(ctx context.Context, postID int64, reason string, failedAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			failure_reason = $2,
			failed_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, reason, failedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Reschedule records a transient delivery failure: the attempt counter moves
// up and the retry clock moves out. scheduled_at is untouched; listings keep
// showing the slot the user chose.
func (r *scheduledPostRepository) Reschedule(ctx context.Context, postID int64, attempts int, nextAttemptAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET attempts = $1,
			next_attempt_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, attempts, nextAttemptAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM scheduled_posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *scheduledPostRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
