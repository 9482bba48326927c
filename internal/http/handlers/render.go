package handlers

import (
	"strings"

	"ecoleta/internal/domain"
	"ecoleta/internal/services"

	"github.com/gofiber/fiber/v2"
)

type PageHandler struct {
	Catalog *services.CatalogService
	Points  *services.PointService
}

func render(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		data["RequestID"] = rid
	}
	return c.Status(status).Render(tmpl, data)
}

// Home is the landing page: the catalog plus how many points exist.
func (h *PageHandler) Home(c *fiber.Ctx) error {
	items, err := h.Catalog.ListItems(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	points, err := h.Points.List(c.UserContext(), domain.PointFilter{})
	if err != nil {
		return writeError(c, err)
	}
	return render(c, fiber.StatusOK, "home", fiber.Map{"Items": items, "PointCount": len(points)})
}

// NotFound answers JSON to API clients and a page to browsers.
func (h *PageHandler) NotFound(c *fiber.Ctx) error {
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML) {
		return render(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Page not found"})
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
}
