package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/queue"
	"github.com/unitasa/social-scheduler/internal/service"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

type ScheduledHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewScheduledHandler(service service.PostService, asynqClient *asynq.Client) *ScheduledHandler {
	return &ScheduledHandler{s: service, AsynqClient: asynqClient}
}

func (h *ScheduledHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse form",
		})
	}

	pc := transfer.PostCreation{
		Content:          c.FormValue("content"),
		ScheduledAt:      c.FormValue("scheduled_at"),
		Timezone:         c.FormValue("timezone"),
		SelectedAccounts: c.FormValue("selected_accounts"),
	}

	posts, delay, err := h.s.CreatePost(c.Context(), userID, &pc, form.File["files"])
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}

	// Only posts that are already cleared for dispatch get a delayed task;
	// drafts and approval-gated posts wait for the user.
	for _, post := range posts {
		if post.Status != models.PostStatusPendingDispatch {
			continue
		}
		payload := queue.DispatchPostPayload{PostID: post.ID}
		if err := queue.EnqueueDispatch(h.AsynqClient, payload, delay); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "error scheduling post",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(posts)
}

func (h *ScheduledHandler) ListScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.ListPending(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *ScheduledHandler) ListDrafts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.ListDrafts(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to list drafts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *ScheduledHandler) ListHistory(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := c.Query("status", models.PostStatusPosted)
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	posts, err := h.s.ListHistory(c.Context(), userID, status, limit, offset)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *ScheduledHandler) ApprovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	if err := h.s.Approve(c.Context(), userID, int64(postID)); err != nil {
		return postError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduledHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.s.Update(c.Context(), userID, int64(postID), &pu); err != nil {
		return postError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduledHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return postError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func postError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return respondError(c, fiber.StatusNotFound, err)
	case errors.Is(err, service.ErrPostImmutable):
		return respondError(c, fiber.StatusConflict, err)
	default:
		return respondError(c, fiber.StatusInternalServerError, err)
	}
}
