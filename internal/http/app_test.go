package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"ecoleta/internal/config"
	"ecoleta/internal/events"
	"ecoleta/internal/http/handlers"
	"ecoleta/internal/repos"
	"ecoleta/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBDriver:       "sqlite",
		DBDSN:          ":memory:",
		UploadDir:      t.TempDir(),
		TemplateDir:    "../../web/templates",
		StaticDir:      "../../web/static",
		BaseURL:        "http://localhost:3333",
		MaxUploadBytes: 64 << 10,
		CORSOrigins:    "*",
		PostRateLimit:  100,
	}
}

// newTestApp wires the app the same way main does, on an in-memory store.
func newTestApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	images, err := storage.New(cfg)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	deps := handlers.NewDeps(db, cfg, images, events.LogPublisher{})
	return handlers.NewApp(cfg, deps)
}

type file struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, fields map[string]string, img *file) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if img != nil {
		part, err := w.CreateFormFile("image", img.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(img.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/points", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func ecoCenterFields() map[string]string {
	return map[string]string{
		"name":      "Eco Center",
		"email":     "a@b.com",
		"whatsapp":  "11999999999",
		"latitude":  "-22.47",
		"longitude": "-44.46",
		"cidade":    "Resende",
		"uf":        "RJ",
		"items":     "1,3",
	}
}

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", string(b), err)
	}
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
