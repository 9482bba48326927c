package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"

	"ecoleta/internal/config"
	applog "ecoleta/internal/log"
)

// NewApp builds the fiber app with middleware and every route.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	engine := html.New(cfg.TemplateDir, ".html")

	bodyLimit := cfg.MaxUploadBytes + 1<<20 // image plus form fields
	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	// ---------- Static assets ----------
	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}
	if cfg.UploadDir != "" && !cfg.S3.Enabled() {
		app.Static("/uploads", cfg.UploadDir)
	}

	// ---------- API ----------
	app.Get("/items", deps.ItemHandler.List)
	app.Get("/points", deps.PointHandler.Index)
	app.Get("/points/:id", deps.PointHandler.Show)

	postMax := cfg.PostRateLimit
	if postMax <= 0 {
		postMax = 30
	}
	app.Post("/points", limiter.New(limiter.Config{
		Max:        postMax,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|points"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.points.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.PointHandler.Create)

	// ---------- Pages, health & 404 ----------
	app.Get("/", deps.PageHandler.Home)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/uploads/") || strings.HasPrefix(c.Path(), "/static/") {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return deps.PageHandler.NotFound(c)
	})

	return app
}
