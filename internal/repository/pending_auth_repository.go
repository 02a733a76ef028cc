package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/unitasa/social-scheduler/internal/models"
)

type PendingAuthRepository interface {
	Create(ctx context.Context, pa *models.PendingAuthorization) error
	Consume(ctx context.Context, state string) (*models.PendingAuthorization, bool, error)
	DeleteExpired(ctx context.Context, now time.Time) error
}

type pendingAuthRepository struct {
	db *sql.DB
}

func NewPendingAuthRepository(db *sql.DB) PendingAuthRepository {
	return &pendingAuthRepository{db: db}
}

func (r *pendingAuthRepository) Create(ctx context.Context, pa *models.PendingAuthorization) error {
	query := `
		INSERT INTO pending_authorizations (state, user_id, platform, code_verifier, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, pa.State, pa.UserID, pa.Platform, pa.CodeVerifier, pa.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Consume atomically removes and returns the record for a state value, so a
// stolen or replayed callback can only ever succeed once.
func (r *pendingAuthRepository) Consume(ctx context.Context, state string) (*models.PendingAuthorization, bool, error) {
	query := `
		DELETE FROM pending_authorizations
		WHERE state = $1 AND expires_at > $2
		RETURNING state, user_id, platform, code_verifier, expires_at, created_at
	`

	var pa models.PendingAuthorization
	err := r.db.QueryRowContext(ctx, query, state, time.Now()).Scan(
		&pa.State,
		&pa.UserID,
		&pa.Platform,
		&pa.CodeVerifier,
		&pa.ExpiresAt,
		&pa.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &pa, true, nil
}

func (r *pendingAuthRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query := `DELETE FROM pending_authorizations WHERE expires_at <= $1`
	_, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
