package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/unitasa/social-scheduler/internal/models"
)

// Publisher delivers one post to one platform. The returned string is the
// public URL (or platform id) of the published post.
type Publisher interface {
	Publish(ctx context.Context, account *models.SocialAccount, post *models.ScheduledPost) (string, error)
}

// PermanentError marks a delivery failure that retrying cannot fix: revoked
// authorization, rejected content. The dispatcher fails the post immediately
// instead of burning its retry budget.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string {
	return e.Reason
}

func Permanent(format string, args ...any) error {
	return &PermanentError{Reason: fmt.Sprintf(format, args...)}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// classifyStatus turns a platform HTTP status into a transient or permanent
// delivery error. 401/403 mean the stored token is no good; 4xx otherwise
// means the platform rejected the content itself.
func classifyStatus(platform string, status int, detail string) error {
	switch {
	case status == 401 || status == 403:
		return Permanent("%s authorization rejected: %s", platform, detail)
	case status == 429:
		return fmt.Errorf("%s rate limited: %s", platform, detail)
	case status >= 400 && status < 500:
		return Permanent("%s rejected content: %s", platform, detail)
	default:
		return fmt.Errorf("%s returned status %d: %s", platform, status, detail)
	}
}

// PublisherRegistry maps a platform name to its publisher. Platforms without
// an entry fail permanently at dispatch time.
type PublisherRegistry struct {
	publishers map[string]Publisher
}

func NewPublisherRegistry() *PublisherRegistry {
	return &PublisherRegistry{publishers: make(map[string]Publisher)}
}

func (r *PublisherRegistry) Register(platform string, p Publisher) {
	r.publishers[platform] = p
}

func (r *PublisherRegistry) For(platform string) (Publisher, bool) {
	p, ok := r.publishers[platform]
	return p, ok
}
