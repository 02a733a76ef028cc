package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/unitasa/social-scheduler/configs"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/pkg/utils"
)

const (
	TWITTER_AUTH_URL  = "https://twitter.com/i/oauth2/authorize"
	LINKEDIN_AUTH_URL = "https://www.linkedin.com/oauth/v2/authorization"
	FACEBOOK_AUTH_URL = "https://www.facebook.com/v19.0/dialog/oauth"
)

// pendingAuthTTL bounds how long a started OAuth flow stays claimable.
const pendingAuthTTL = 10 * time.Minute

var (
	ErrAccountNotFound = errors.New("social account doesn't exist")
	ErrStateNotFound   = errors.New("authorization state is unknown or expired")
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, userID int64, platform string) (string, error)
	HandleCallback(ctx context.Context, platform, state, code string) error
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	SetApprovalRequired(ctx context.Context, userID, accountID int64, approvalRequired bool) error
	Delete(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	cfg      config.Config
	sa       repository.SocialAccountRepository
	pending  repository.PendingAuthRepository
	twitter  TwitterService
	linkedin LinkedinService
	facebook FacebookService
	mastodon MastodonService
}

func NewPlatformService(
	cfg config.Config,
	sa repository.SocialAccountRepository,
	pending repository.PendingAuthRepository,
	twitter TwitterService,
	linkedin LinkedinService,
	facebook FacebookService,
	mastodon MastodonService) PlatformService {
	return &platformService{
		cfg:      cfg,
		sa:       sa,
		pending:  pending,
		twitter:  twitter,
		linkedin: linkedin,
		facebook: facebook,
		mastodon: mastodon,
	}
}

// GetAuthURL starts a platform OAuth flow. The state and PKCE verifier are
// recorded server side; the client only carries the opaque state through the
// redirect.
func (s *platformService) GetAuthURL(ctx context.Context, userID int64, platform string) (string, error) {
	state, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	verifier, challenge, err := utils.GeneratePKCE()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	var authURL string
	switch platform {
	case models.PlatformTwitter:
		params := url.Values{}
		params.Add("client_id", s.cfg.TwitterClientID)
		params.Add("redirect_uri", s.cfg.TwitterRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "tweet.read tweet.write users.read offline.access")
		params.Add("state", state)
		params.Add("code_challenge", challenge)
		params.Add("code_challenge_method", "S256")
		authURL = fmt.Sprintf("%s?%s", TWITTER_AUTH_URL, params.Encode())

	case models.PlatformLinkedin:
		params := url.Values{}
		params.Add("client_id", s.cfg.LinkedinClientID)
		params.Add("redirect_uri", s.cfg.LinkedinRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "openid profile w_member_social")
		params.Add("state", state)
		authURL = fmt.Sprintf("%s?%s", LINKEDIN_AUTH_URL, params.Encode())

	case models.PlatformFacebook:
		params := url.Values{}
		params.Add("client_id", s.cfg.FacebookClientID)
		params.Add("redirect_uri", s.cfg.FacebookRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "pages_manage_posts,pages_read_engagement,pages_show_list")
		params.Add("state", state)
		authURL = fmt.Sprintf("%s?%s", FACEBOOK_AUTH_URL, params.Encode())

	case models.PlatformMastodon:
		params := url.Values{}
		params.Add("client_id", s.cfg.MastodonClientID)
		params.Add("redirect_uri", s.cfg.MastodonRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "read write")
		params.Add("state", state)
		params.Add("code_challenge", challenge)
		params.Add("code_challenge_method", "S256")
		authURL = fmt.Sprintf("%s/oauth/authorize?%s", s.cfg.MastodonServer, params.Encode())

	default:
		return "", fmt.Errorf("platform %s does not support OAuth connect", platform)
	}

	pa := &models.PendingAuthorization{
		State:        state,
		UserID:       userID,
		Platform:     platform,
		CodeVerifier: verifier,
		ExpiresAt:    time.Now().Add(pendingAuthTTL),
	}
	if err := s.pending.Create(ctx, pa); err != nil {
		return "", err
	}

	return authURL, nil
}

// HandleCallback claims the pending authorization for the state (single use)
// and finishes the flow with the platform's token exchange.
func (s *platformService) HandleCallback(ctx context.Context, platform, state, code string) error {
	pa, found, err := s.pending.Consume(ctx, state)
	if err != nil {
		return err
	}
	if !found {
		slog.Info("authorization state not found", "platform", platform)
		return ErrStateNotFound
	}
	if pa.Platform != platform {
		slog.Info("authorization state platform mismatch", "expected", pa.Platform, "got", platform)
		return ErrStateNotFound
	}

	switch platform {
	case models.PlatformTwitter:
		return s.twitter.TwitterCallback(ctx, code, pa.CodeVerifier, pa.UserID)
	case models.PlatformLinkedin:
		return s.linkedin.LinkedinCallback(ctx, code, pa.CodeVerifier, pa.UserID)
	case models.PlatformFacebook:
		return s.facebook.FacebookCallback(ctx, code, pa.CodeVerifier, pa.UserID)
	case models.PlatformMastodon:
		return s.mastodon.MastodonCallback(ctx, code, pa.CodeVerifier, pa.UserID)
	}
	return fmt.Errorf("platform %s does not support OAuth connect", platform)
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListInfoByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts")
	}
	return accounts, nil
}

func (s *platformService) SetApprovalRequired(ctx context.Context, userID, accountID int64, approvalRequired bool) error {
	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		return ErrAccountNotFound
	}

	return s.sa.SetApprovalRequired(ctx, accountID, approvalRequired)
}

func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		slog.Info("account not owned by user", "account_id", accountID, "user_id", userID)
		return ErrAccountNotFound
	}

	err = s.sa.Remove(ctx, accountID)
	if err != nil {
		return fmt.Errorf("error removing account info")
	}

	return nil
}
