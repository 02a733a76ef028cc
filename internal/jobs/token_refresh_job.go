package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/service"
)

// TokenRefreshJob renews access tokens that expire within the next sweep
// window, so dispatch never publishes with a token that just died.
type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	tw service.TwitterService
	li service.LinkedinService
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	tw service.TwitterService,
	li service.LinkedinService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		tw: tw,
		li: li,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.sr.ListByTokenExpiry(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			switch acc.Platform {
			case models.PlatformTwitter:
				if err := c.tw.RefreshTwitterToken(ctx, acc); err != nil {
					slog.Info("unable to refresh Twitter token", "account_id", acc.ID)
				}
			case models.PlatformLinkedin:
				if err := c.li.RefreshLinkedinToken(ctx, acc); err != nil {
					slog.Info("unable to refresh LinkedIn token", "account_id", acc.ID)
				}
			}
		}(acc)
	}

	wg.Wait()
}
