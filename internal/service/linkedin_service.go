package service

import (
	"bytes"
	"context"
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
	linkedinTokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	linkedinUserinfoURL = "https://api.linkedin.com/v2/userinfo"
	linkedinPostURL     = "https://api.linkedin.com/v2/ugcPosts"
)

type LinkedinService interface {
	LinkedinCallback(ctx context.Context, code, codeVerifier string, userID int64) error
	RefreshLinkedinToken(ctx context.Context, acc *models.SocialAccount) error
	Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error)
}

type linkedinService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewLinkedinService(cfg config.Config, sa repository.SocialAccountRepository) LinkedinService {
	return &linkedinService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *linkedinService) LinkedinCallback(ctx context.Context, code, codeVerifier string, userID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	data := url.Values{}
	data.Add("grant_type", "authorization_code")
	data.Add("code", code)
	data.Add("redirect_uri", s.cfg.LinkedinRedirectURI)
	data.Add("client_id", s.cfg.LinkedinClientID)
	data.Add("client_secret", s.cfg.LinkedinClientSecret)

	tokenResponse, err := s.tokenRequest(data)
	if err != nil {
		return err
	}

	userInfo, err := s.linkedinUserInfo(tokenResponse.AccessToken)
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
		Platform:        models.PlatformLinkedin,
		AccountID:       userInfo.Sub,
		AccountName:     userInfo.Name,
		AccountUsername: strings.ToLower(strings.ReplaceAll(userInfo.Name, " ", "")),
		ProfilePicture:  userInfo.Picture,
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

func (s *linkedinService) RefreshLinkedinToken(ctx context.Context, acc *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Add("grant_type", "refresh_token")
	data.Add("refresh_token", refreshToken)
	data.Add("client_id", s.cfg.LinkedinClientID)
	data.Add("client_secret", s.cfg.LinkedinClientSecret)

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

func (s *linkedinService) tokenRequest(data url.Values) (*transfer.LinkedinTokenResponse, error) {
	resp, err := httpClient.Post(
		linkedinTokenURL,
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
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
		err = fmt.Errorf("linkedin token endpoint returned status %d: %s", resp.StatusCode, string(body))
		slog.Info(err.Error())
		return nil, err
	}

	var tokenResponse transfer.LinkedinTokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &tokenResponse, nil
}

func (s *linkedinService) linkedinUserInfo(accessToken string) (*transfer.LinkedinUserInfo, error) {
	req, err := http.NewRequest(http.MethodGet, linkedinUserinfoURL, nil)
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
		err = fmt.Errorf("linkedin userinfo returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return nil, err
	}

	var userInfo transfer.LinkedinUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &userInfo, nil
}

func (s *linkedinService) Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error) {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", Permanent("linkedin token unreadable: %v", err)
	}

	var share transfer.LinkedinShareRequest
	share.Author = "urn:li:person:" + acc.AccountID
	share.LifecycleState = "PUBLISHED"
	share.SpecificContent.ShareContent.ShareCommentary.Text = post.Content
	share.SpecificContent.ShareContent.ShareMediaCategory = "NONE"
	share.Visibility.MemberNetworkVisibility = "PUBLIC"

	payload, err := json.Marshal(share)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinPostURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

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

	var shareResponse transfer.LinkedinShareResponse
	if err := json.Unmarshal(body, &shareResponse); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusCreated {
		detail := shareResponse.Message
		if detail == "" {
			detail = string(body)
		}
		return "", classifyStatus(models.PlatformLinkedin, resp.StatusCode, detail)
	}

	return "https://www.linkedin.com/feed/update/" + shareResponse.ID, nil
}
