package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/unitasa/social-scheduler/configs"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/transfer"
	"github.com/unitasa/social-scheduler/pkg/utils"
)

const (
	twitterTokenURL = "https://api.twitter.com/2/oauth2/token"
	twitterUserURL  = "https://api.twitter.com/2/users/me?user.fields=profile_image_url"
	twitterTweetURL = "https://api.twitter.com/2/tweets"
)

type TwitterService interface {
	TwitterCallback(ctx context.Context, code, codeVerifier string, userID int64) error
	RefreshTwitterToken(ctx context.Context, acc *models.SocialAccount) error
	Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error)
}

type twitterService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewTwitterService(cfg config.Config, sa repository.SocialAccountRepository) TwitterService {
	return &twitterService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *twitterService) TwitterCallback(ctx context.Context, code, codeVerifier string, userID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	tokenResponse, err := s.exchangeCodeForToken(code, codeVerifier)
	if err != nil {
		return err
	}

	userInfo, err := s.twitterUserInfo(tokenResponse.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.Encrypt([]byte(tokenResponse.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformTwitter,
		AccountID:       userInfo.Data.ID,
		AccountName:     userInfo.Data.Name,
		AccountUsername: userInfo.Data.Username,
		ProfilePicture:  userInfo.Data.ProfileImageURL,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedRefreshToken,
		TokenExpiresAt:  GetExpiresAt(tokenResponse.ExpiresIn),
	}

	_, err = s.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *twitterService) exchangeCodeForToken(code, codeVerifier string) (*transfer.TwitterTokenResponse, error) {
	data := url.Values{}
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", s.cfg.TwitterRedirectURI)
	data.Add("code_verifier", codeVerifier)

	return s.tokenRequest(data)
}

func (s *twitterService) RefreshTwitterToken(ctx context.Context, acc *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Add("refresh_token", refreshToken)
	data.Add("grant_type", "refresh_token")

	tokenResponse, err := s.tokenRequest(data)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.Encrypt([]byte(tokenResponse.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetTokens(ctx, acc.ID, encryptedAccessToken, encryptedRefreshToken, GetExpiresAt(tokenResponse.ExpiresIn))
}

func (s *twitterService) tokenRequest(data url.Values) (*transfer.TwitterTokenResponse, error) {
	req, err := http.NewRequest(http.MethodPost, twitterTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	basic := base64.StdEncoding.EncodeToString([]byte(s.cfg.TwitterClientID + ":" + s.cfg.TwitterClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("twitter token endpoint returned status %d: %s", resp.StatusCode, string(body))
		slog.Info(err.Error())
		return nil, err
	}

	var tokenResponse transfer.TwitterTokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &tokenResponse, nil
}

func (s *twitterService) twitterUserInfo(accessToken string) (*transfer.TwitterUserResponse, error) {
	req, err := http.NewRequest(http.MethodGet, twitterUserURL, nil)
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
		err = fmt.Errorf("twitter user endpoint returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return nil, err
	}

	var userInfo transfer.TwitterUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &userInfo, nil
}

func (s *twitterService) Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error) {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", Permanent("twitter token unreadable: %v", err)
	}

	payload, err := json.Marshal(transfer.TwitterTweetRequest{Text: post.Content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterTweetURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

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

	var tweet transfer.TwitterTweetResponse
	if err := json.Unmarshal(body, &tweet); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusCreated {
		detail := tweet.Detail
		if detail == "" {
			detail = string(body)
		}
		return "", classifyStatus(models.PlatformTwitter, resp.StatusCode, detail)
	}

	return fmt.Sprintf("https://twitter.com/%s/status/%s", acc.AccountUsername, tweet.Data.ID), nil
}
