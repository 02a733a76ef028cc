package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/service"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

// GenerateHandler fronts ad-hoc content generation for the dashboard's
// compose screen.
type GenerateHandler struct {
	s service.GenerationService
}

func NewGenerateHandler(service service.GenerationService) *GenerateHandler {
	return &GenerateHandler{s: service}
}

func (h *GenerateHandler) GenerateContent(c *fiber.Ctx) error {
	var req transfer.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Topic == "" {
		return respondError(c, fiber.StatusUnprocessableEntity, transfer.FieldErrors{"topic": "topic is required"})
	}
	if req.Platform != "" && !models.IsValidPlatform(req.Platform) {
		return respondError(c, fiber.StatusUnprocessableEntity, transfer.FieldErrors{"platform": "unknown platform"})
	}

	content, err := h.s.Generate(c.Context(), &req)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "content generation failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.GenerationResponse{
		Content: []transfer.GeneratedContent{{Content: content}},
	})
}
