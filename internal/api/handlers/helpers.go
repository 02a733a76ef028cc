package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/unitasa/social-scheduler/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// respondError maps validation failures to 422 with the per-field messages;
// anything else is surfaced with the given status.
func respondError(c *fiber.Ctx, status int, err error) error {
	var fieldErrs transfer.FieldErrors
	if errors.As(err, &fieldErrs) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fieldErrs,
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
