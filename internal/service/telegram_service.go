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
)

// Telegram has no user OAuth: posting goes through the Unitasa bot, and
// connecting means telling us which channel the bot was added to.
type TelegramService interface {
	ConnectChannel(ctx context.Context, userID int64, chatID string) error
	Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error)
}

type telegramService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewTelegramService(cfg config.Config, sa repository.SocialAccountRepository) TelegramService {
	return &telegramService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *telegramService) apiURL(method string) string {
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", s.cfg.TelegramBotToken, method)
}

// ConnectChannel verifies the bot can see the chat, then stores it as a
// social account. No token material is kept per account; the bot token is
// configuration.
func (s *telegramService) ConnectChannel(ctx context.Context, userID int64, chatID string) error {
	if chatID == "" {
		err := errors.New("chat id is empty")
		slog.Info(err.Error())
		return err
	}

	params := url.Values{}
	params.Add("chat_id", chatID)

	resp, err := httpClient.Get(s.apiURL("getChat") + "?" + params.Encode())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	var chatResponse struct {
		OK     bool `json:"ok"`
		Result struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Username string `json:"username"`
		} `json:"result"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResponse); err != nil {
		slog.Info(err.Error())
		return err
	}
	if !chatResponse.OK {
		err = fmt.Errorf("telegram getChat failed: %s", chatResponse.Description)
		slog.Info(err.Error())
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformTelegram,
		AccountID:       chatID,
		AccountName:     chatResponse.Result.Title,
		AccountUsername: chatResponse.Result.Username,
		TokenExpiresAt:  time.Now().AddDate(100, 0, 0),
	}

	_, err = s.sa.Create(ctx, nil, accountInfo)
	return err
}

func (s *telegramService) Publish(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) (string, error) {
	data := url.Values{}
	data.Add("chat_id", acc.AccountID)
	data.Add("text", post.Content)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL("sendMessage"), strings.NewReader(data.Encode()))
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

	var sendResponse transfer.TelegramSendResponse
	if err := json.Unmarshal(body, &sendResponse); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if !sendResponse.OK {
		return "", classifyStatus(models.PlatformTelegram, sendResponse.ErrorCode, sendResponse.Description)
	}

	username := sendResponse.Result.Chat.Username
	if username == "" {
		username = acc.AccountUsername
	}
	return fmt.Sprintf("https://t.me/%s/%d", username, sendResponse.Result.MessageID), nil
}
