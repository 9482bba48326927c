package handlers

import (
	"errors"
	"io"
	"strings"

	"ecoleta/internal/domain"
	applog "ecoleta/internal/log"
	"ecoleta/internal/services"
	"ecoleta/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type PointHandler struct {
	Points        *services.PointService
	MaxImageBytes int64
}

// Index lists points, optionally narrowed by ?city=&uf=&items=1,2.
func (h *PointHandler) Index(c *fiber.Ctx) error {
	var f domain.PointFilter
	f.City = strings.TrimSpace(c.Query("city"))

	uf, ok := validate.UF(c.Query("uf"))
	if !ok {
		return badQuery(c, "uf", `"uf" must be a two letter state code`)
	}
	f.UF = uf

	if raw := strings.TrimSpace(c.Query("items")); raw != "" {
		ids, ok := validate.ItemIDs(raw)
		if !ok {
			return badQuery(c, "items", `"items" must be a comma-separated list of item ids`)
		}
		f.ItemIDs = ids
	}

	points, err := h.Points.List(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(points)
}

func (h *PointHandler) Show(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badQuery(c, "id", `"id" must be a positive integer`)
	}
	p, err := h.Points.Show(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

// Create accepts a multipart submission with an optional "image" file.
func (h *PointHandler) Create(c *fiber.Ctx) error {
	in := validate.FromForm(func(k string) string { return c.FormValue(k) })

	img, err := h.readImage(c)
	if err != nil {
		applog.Info(c, "point.image.unreadable", map[string]any{"error": err.Error()})
		return writeError(c, &services.ValidationError{Fields: []validate.FieldError{{
			Field: "image", Message: `"image" could not be read from the request`,
		}}})
	}

	p, err := h.Points.Create(c.UserContext(), in, img)
	if err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "point.create", map[string]any{"point_id": p.ID, "uf": p.UF, "items": len(p.Items)})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// readImage returns nil when no file was attached. A body that is not
// multipart at all carries no file either; a broken multipart body is an error.
func (h *PointHandler) readImage(c *fiber.Ctx) (*services.Upload, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// one byte over the limit is enough for the size check to fail
	r := io.Reader(f)
	if h.MaxImageBytes > 0 {
		r = io.LimitReader(f, h.MaxImageBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &services.Upload{Name: fh.Filename, Data: data}, nil
}

func badQuery(c *fiber.Ctx, field, msg string) error {
	return writeError(c, &services.ValidationError{Fields: []validate.FieldError{{Field: field, Message: msg}}})
}
