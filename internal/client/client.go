// Package client talks to the Ecoleta HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ecoleta/internal/domain"
	"ecoleta/internal/validate"
)

// NetworkError means the request never got an answer.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []validate.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Message, strings.Join(msgs, "; "))
}

type Attachment struct {
	Name string
	Data []byte
}

// Submission is the packaged form as sent to POST /points.
type Submission struct {
	Name      string
	Email     string
	Whatsapp  string
	City      string
	UF        string
	Latitude  float64
	Longitude float64
	Items     []int64
	Image     *Attachment
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) FetchItems(ctx context.Context) ([]domain.Item, error) {
	var out []domain.Item
	err := c.getJSON(ctx, "/items", &out)
	return out, err
}

func (c *Client) FetchPoints(ctx context.Context, f domain.PointFilter) ([]domain.Point, error) {
	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.UF != "" {
		q.Set("uf", f.UF)
	}
	if len(f.ItemIDs) > 0 {
		q.Set("items", joinIDs(f.ItemIDs))
	}
	path := "/points"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.Point
	err := c.getJSON(ctx, path, &out)
	return out, err
}

func (c *Client) FetchPoint(ctx context.Context, id int64) (domain.PointDetail, error) {
	var out domain.PointDetail
	err := c.getJSON(ctx, "/points/"+strconv.FormatInt(id, 10), &out)
	return out, err
}

// SubmitPoint posts s as multipart form data.
func (c *Client) SubmitPoint(ctx context.Context, s Submission) (domain.PointDetail, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := [][2]string{
		{"name", s.Name},
		{"email", s.Email},
		{"whatsapp", s.Whatsapp},
		{"city", s.City},
		{"uf", s.UF},
		{"latitude", strconv.FormatFloat(s.Latitude, 'f', -1, 64)},
		{"longitude", strconv.FormatFloat(s.Longitude, 'f', -1, 64)},
		{"items", joinIDs(s.Items)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return domain.PointDetail{}, err
		}
	}
	if s.Image != nil {
		part, err := w.CreateFormFile("image", s.Image.Name)
		if err != nil {
			return domain.PointDetail{}, err
		}
		if _, err := part.Write(s.Image.Data); err != nil {
			return domain.PointDetail{}, err
		}
	}
	if err := w.Close(); err != nil {
		return domain.PointDetail{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/points", &body)
	if err != nil {
		return domain.PointDetail{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out domain.PointDetail
	err = c.do(req, "submit point", &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, "GET "+path, into)
}

func (c *Client) do(req *http.Request, op string, into any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error  string                `json:"error"`
			Fields []validate.FieldError `json:"fields"`
		}
		if json.Unmarshal(body, &eb) == nil {
			if eb.Error != "" {
				apiErr.Message = eb.Error
			}
			apiErr.Fields = eb.Fields
		}
		return apiErr
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
