package service

import (
	"context"
	"encoding/json"
	"errors"
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

type MastodonService interface {
	MastodonCallback(ctx context.Context, code, codeVerifier string, userID int64) error
	Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error)
}

type mastodonService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewMastodonService(cfg config.Config, sa repository.SocialAccountRepository) MastodonService {
	return &mastodonService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *mastodonService) MastodonCallback(ctx context.Context, code, codeVerifier string, userID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	data := url.Values{}
	data.Add("client_id", s.cfg.MastodonClientID)
	data.Add("client_secret", s.cfg.MastodonClientSecret)
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", s.cfg.MastodonRedirectURI)
	data.Add("code_verifier", codeVerifier)
	data.Add("scope", "read write")

	resp, err := httpClient.Post(
		s.cfg.MastodonServer+"/oauth/token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("mastodon token endpoint returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return err
	}

	var tokenResponse transfer.MastodonTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return err
	}

	account, err := s.verifyCredentials(tokenResponse.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformMastodon,
		AccountID:       account.ID,
		AccountName:     account.DisplayName,
		AccountUsername: account.Username,
		ProfilePicture:  account.Avatar,
		AccessToken:     encryptedAccessToken,
		// Mastodon tokens do not expire; keep the refresh job away.
		TokenExpiresAt: time.Now().AddDate(100, 0, 0),
	}

	_, err = s.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *mastodonService) verifyCredentials(accessToken string) (*transfer.MastodonAccount, error) {
	req, err := http.NewRequest(http.MethodGet, s.cfg.MastodonServer+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("mastodon verify_credentials returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return nil, err
	}

	var account transfer.MastodonAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &account, nil
}

func (s *mastodonService) Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error) {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", Permanent("mastodon token unreadable: %v", err)
	}

	data := url.Values{}
	data.Add("status", post.Content)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.MastodonServer+"/api/v1/statuses", strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	// Idempotency-Key makes an at-most-once retry safe on the server side.
	req.Header.Set("Idempotency-Key", fmt.Sprintf("unitasa-post-%d", post.ID))

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

	var status transfer.MastodonStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		detail := status.Error
		if detail == "" {
			detail = string(body)
		}
		return "", classifyStatus(models.PlatformMastodon, resp.StatusCode, detail)
	}

	return status.URL, nil
}
