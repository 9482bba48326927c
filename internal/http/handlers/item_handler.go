package handlers

import (
	"ecoleta/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	Catalog *services.CatalogService
}

func (h *ItemHandler) List(c *fiber.Ctx) error {
	items, err := h.Catalog.ListItems(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(items)
}
