package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	config "github.com/unitasa/social-scheduler/configs"
	"github.com/unitasa/social-scheduler/internal/service"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

type PlatformHandler struct {
	ps  service.PlatformService
	tg  service.TelegramService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, tg service.TelegramService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		tg:  tg,
		cfg: cfg,
	}
}

func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	authURL, err := h.ps.GetAuthURL(c.Context(), userID, platform)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Redirect(authURL)
}

// CallbackHandler lands the platform redirect. The state is single use and
// expires on its own; a replayed or stale callback gets a 400.
func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing code or state",
		})
	}

	if err := h.ps.HandleCallback(c.Context(), platform, state, code); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

// ConnectTelegram links a channel by chat id; Telegram bots have no OAuth.
func (h *PlatformHandler) ConnectTelegram(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var body struct {
		ChatID string `json:"chat_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.ChatID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "chat_id is required",
		})
	}

	if err := h.tg.ConnectChannel(c.Context(), userID, body.ChatID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to connect Telegram channel",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountList, err := h.ps.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) UpdateAccountSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid account id",
		})
	}

	var settings transfer.AccountSettingsUpdate
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.ps.SetApprovalRequired(c.Context(), userID, int64(accountID), settings.ApprovalRequired); err != nil {
		return respondError(c, fiber.StatusNotFound, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	err := h.ps.Delete(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to delete social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
