package models

import (
	"time"
)

type SocialAccount struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	Platform         string    `db:"platform" json:"platform"`
	AccountID        string    `db:"account_id" json:"account_id"`
	AccountName      string    `db:"account_name" json:"account_name"`
	AccountUsername  string    `db:"account_username" json:"account_username"`
	ProfilePicture   string    `db:"profile_picture_url" json:"profile_picture"`
	ApprovalRequired bool      `db:"approval_required" json:"approval_required"`
	AccessToken      string    `db:"access_token" json:"-"`
	RefreshToken     string    `db:"refresh_token" json:"-"`
	TokenExpiresAt   time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformLinkedin  = "linkedin"
	PlatformYoutube   = "youtube"
	PlatformTelegram  = "telegram"
	PlatformReddit    = "reddit"
	PlatformMastodon  = "mastodon"
	PlatformBluesky   = "bluesky"
	PlatformPinterest = "pinterest"
	PlatformMedium    = "medium"
)

// characterLimits holds the per-platform maximum post length. A zero entry
// means the platform imposes no practical limit.
var characterLimits = map[string]int{
	PlatformTwitter:   280,
	PlatformBluesky:   300,
	PlatformMastodon:  500,
	PlatformPinterest: 500,
	PlatformInstagram: 2200,
	PlatformLinkedin:  3000,
	PlatformTelegram:  4096,
	PlatformYoutube:   5000,
	PlatformReddit:    40000,
	PlatformFacebook:  63206,
	PlatformMedium:    0,
}

func IsValidPlatform(platform string) bool {
	_, ok := characterLimits[platform]
	return ok
}

// CharacterLimit returns the maximum content length for a platform and
// whether a limit applies at all.
func CharacterLimit(platform string) (int, bool) {
	limit, ok := characterLimits[platform]
	if !ok || limit == 0 {
		return 0, false
	}
	return limit, true
}

// WithinCharacterLimit reports whether content fits the platform. Length is
// counted in runes, matching how the platforms themselves count.
func WithinCharacterLimit(platform, content string) bool {
	limit, ok := CharacterLimit(platform)
	if !ok {
		return true
	}
	return len([]rune(content)) <= limit
}
