package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/unitasa/social-scheduler/internal/service"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

type RuleHandler struct {
	s service.RuleService
}

func NewRuleHandler(service service.RuleService) *RuleHandler {
	return &RuleHandler{s: service}
}

func (h *RuleHandler) CreateRule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.RuleCreation
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": id,
	})
}

func (h *RuleHandler) ListRules(c *fiber.Ctx) error {
	userID := GetUserID(c)
	ruleID := c.QueryInt("id", 0)

	if ruleID != 0 {
		rule, err := h.s.Get(c.Context(), userID, int64(ruleID))
		if err != nil {
			return ruleError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(rule)
	}

	rules, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to list schedule rules",
		})
	}

	return c.Status(fiber.StatusOK).JSON(rules)
}

func (h *RuleHandler) UpdateRule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	ruleID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid rule id",
		})
	}

	var req transfer.RuleCreation
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.s.Update(c.Context(), userID, int64(ruleID), &req); err != nil {
		return ruleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *RuleHandler) DeleteRule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	ruleID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid rule id",
		})
	}

	if err := h.s.Delete(c.Context(), userID, int64(ruleID)); err != nil {
		return ruleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func ruleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrRuleNotFound) {
		return respondError(c, fiber.StatusNotFound, err)
	}
	return respondError(c, fiber.StatusInternalServerError, err)
}
