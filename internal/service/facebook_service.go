package service

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/unitasa/social-scheduler/configs"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/transfer"
	"github.com/unitasa/social-scheduler/pkg/utils"
)

const facebookGraphURL = "https://graph.facebook.com/v19.0"

type FacebookService interface {
	FacebookCallback(ctx context.Context, code, codeVerifier string, userID int64) error
	Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error)
}

type facebookService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewFacebookService(cfg config.Config, sa repository.SocialAccountRepository) FacebookService {
	return &facebookService{
		cfg: cfg,
		sa:  sa,
	}
}

// FacebookCallback exchanges the code and connects every page the user
// manages as its own social account, each with the page's own token.
func (s *facebookService) FacebookCallback(ctx context.Context, code, codeVerifier string, userID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	params := url.Values{}
	params.Add("client_id", s.cfg.FacebookClientID)
	params.Add("client_secret", s.cfg.FacebookClientSecret)
	params.Add("redirect_uri", s.cfg.FacebookRedirectURI)
	params.Add("code", code)

	resp, err := httpClient.Get(facebookGraphURL + "/oauth/access_token?" + params.Encode())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("facebook token endpoint returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return err
	}

	var tokenResponse transfer.FacebookTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return err
	}

	pages, err := s.listPages(tokenResponse.AccessToken)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return errors.New("no facebook pages available on this account")
	}

	for _, page := range pages {
		encryptedPageToken, err := utils.Encrypt([]byte(page.AccessToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}

		accountInfo := &models.SocialAccount{
			UserID:          userID,
			Platform:        models.PlatformFacebook,
			AccountID:       page.ID,
			AccountName:     page.Name,
			AccountUsername: page.ID,
			AccessToken:     encryptedPageToken,
			// Page tokens obtained this way do not expire.
			TokenExpiresAt: time.Now().AddDate(100, 0, 0),
		}

		if _, err := s.sa.Create(ctx, nil, accountInfo); err != nil {
			return err
		}
	}

	return nil
}

func (s *facebookService) listPages(accessToken string) ([]transfer.FacebookPage, error) {
	params := url.Values{}
	params.Add("access_token", accessToken)

	resp, err := httpClient.Get(facebookGraphURL + "/me/accounts?" + params.Encode())
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("facebook pages endpoint returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return nil, err
	}

	var pagesResponse transfer.FacebookPagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pagesResponse); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return pagesResponse.Data, nil
}

func (s *facebookService) Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error) {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", Permanent("facebook token unreadable: %v", err)
	}

	data := url.Values{}
	data.Add("message", post.Content)
	data.Add("access_token", accessToken)

	feedURL := fmt.Sprintf("%s/%s/feed", facebookGraphURL, acc.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, feedURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var postResponse transfer.FacebookPostResponse
	if err := json.Unmarshal(body, &postResponse); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK || postResponse.Error != nil {
		detail := string(body)
		if postResponse.Error != nil {
			detail = postResponse.Error.Message
			// Graph marks some errors transient regardless of status.
			if postResponse.Error.IsTransient {
				return "", fmt.Errorf("facebook transient error: %s", detail)
			}
		}
		return "", classifyStatus(models.PlatformFacebook, resp.StatusCode, detail)
	}

	return "https://www.facebook.com/" + postResponse.ID, nil
}
