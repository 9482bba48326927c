package handlers

import (
	"errors"

	applog "ecoleta/internal/log"
	"ecoleta/internal/services"

	"github.com/gofiber/fiber/v2"
)

const genericMessage = "Something went wrong. Please try again."

// writeError maps service errors onto status codes. Internal detail is
// logged and never sent to the client.
func writeError(c *fiber.Ctx, err error) error {
	var (
		verr *services.ValidationError
		nf   *services.NotFoundError
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		c.Status(fiber.StatusBadRequest)
		applog.Info(c, "validation.fail", map[string]any{"fields": verr.Fields})
		return c.JSON(fiber.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &nf):
		c.Status(fiber.StatusNotFound)
		return c.JSON(fiber.Map{"error": nf.Resource + " not found"})
	case errors.As(err, &ferr) && ferr.Code < fiber.StatusInternalServerError:
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}
	c.Status(fiber.StatusInternalServerError)
	applog.Error(c, "server.error", err, nil)
	return c.JSON(fiber.Map{"error": genericMessage})
}

// ErrorHandler is the app-wide fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
