package models

import "time"

// PendingAuthorization is a short-lived server-side record for an in-flight
// platform OAuth flow. The client only ever holds the opaque state value;
// the PKCE verifier never leaves the server.
type PendingAuthorization struct {
	State        string    `db:"state"`
	UserID       int64     `db:"user_id"`
	Platform     string    `db:"platform"`
	CodeVerifier string    `db:"code_verifier"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}
