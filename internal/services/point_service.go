package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ecoleta/internal/domain"
	"ecoleta/internal/events"
	applog "ecoleta/internal/log"
	"ecoleta/internal/storage"
	"ecoleta/internal/validate"
)

type PointStore interface {
	Create(ctx context.Context, p domain.Point, itemIDs []int64) (domain.Point, error)
	List(ctx context.Context, f domain.PointFilter) ([]domain.Point, error)
	Get(ctx context.Context, id int64) (domain.Point, error)
	Items(ctx context.Context, pointID int64) ([]domain.Item, error)
}

// Upload is an image attached to a submission.
type Upload struct {
	Name string
	Data []byte
}

type PointService struct {
	Points        PointStore
	Catalog       *CatalogService
	Images        storage.Store
	Events        events.Publisher
	MaxImageBytes int64
}

func NewPointService(points PointStore, catalog *CatalogService, images storage.Store, pub events.Publisher, maxImageBytes int64) *PointService {
	return &PointService{Points: points, Catalog: catalog, Images: images, Events: pub, MaxImageBytes: maxImageBytes}
}

// Create validates the submission, stores the image and writes the point with
// its items atomically. The image is removed again if the write fails.
func (s *PointService) Create(ctx context.Context, in validate.PointInput, img *Upload) (domain.PointDetail, error) {
	p, fields := validate.Check(in)
	if img != nil {
		if fe := validate.Image(int64(len(img.Data)), img.Data, s.MaxImageBytes); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if len(fields) > 0 {
		return domain.PointDetail{}, &ValidationError{Fields: fields}
	}

	missing, err := s.Catalog.Items.Missing(ctx, p.ItemIDs)
	if err != nil {
		return domain.PointDetail{}, &PersistenceError{Op: "check items", Err: err}
	}
	if len(missing) > 0 {
		return domain.PointDetail{}, &ValidationError{Fields: []validate.FieldError{{
			Field:   "items",
			Message: fmt.Sprintf(`"items" contains unknown ids: %s`, joinIDs(missing)),
		}}}
	}

	var ref string
	if img != nil {
		if ref, err = s.Images.Save(ctx, img.Name, bytes.NewReader(img.Data)); err != nil {
			return domain.PointDetail{}, &PersistenceError{Op: "store image", Err: err}
		}
	}

	point, err := s.Points.Create(ctx, domain.Point{
		Name:      p.Name,
		Email:     p.Email,
		Whatsapp:  p.Whatsapp,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		City:      p.City,
		UF:        p.UF,
		Image:     ref,
	}, p.ItemIDs)
	if err != nil {
		if ref != "" {
			if derr := s.Images.Delete(ctx, ref); derr != nil {
				applog.Warn(nil, "image.cleanup.fail", derr, map[string]any{"ref": ref})
			}
		}
		return domain.PointDetail{}, &PersistenceError{Op: "create point", Err: err}
	}

	if err := s.Events.Publish(ctx, events.TopicPointCreated, domain.PointCreated{
		ID: point.ID, Name: point.Name, City: point.City, UF: point.UF, ItemIDs: p.ItemIDs,
	}); err != nil {
		applog.Warn(nil, "event.publish.fail", err, map[string]any{"point_id": point.ID})
	}

	detail := domain.PointDetail{Point: s.decorate(point)}
	detail.Items, err = s.items(ctx, point.ID)
	if err != nil {
		// the point is committed; fall back to the submitted ids
		applog.Warn(nil, "point.items.reload.fail", err, map[string]any{"point_id": point.ID})
		detail.Items = make([]domain.Item, 0, len(p.ItemIDs))
		for _, id := range p.ItemIDs {
			detail.Items = append(detail.Items, domain.Item{ID: id})
		}
	}
	return detail, nil
}

func (s *PointService) List(ctx context.Context, f domain.PointFilter) ([]domain.Point, error) {
	points, err := s.Points.List(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list points", Err: err}
	}
	for i := range points {
		points[i] = s.decorate(points[i])
	}
	return points, nil
}

func (s *PointService) Show(ctx context.Context, id int64) (domain.PointDetail, error) {
	p, err := s.Points.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PointDetail{}, &NotFoundError{Resource: "point", ID: id}
	}
	if err != nil {
		return domain.PointDetail{}, &PersistenceError{Op: "get point", Err: err}
	}
	items, err := s.items(ctx, id)
	if err != nil {
		return domain.PointDetail{}, &PersistenceError{Op: "get point items", Err: err}
	}
	return domain.PointDetail{Point: s.decorate(p), Items: items}, nil
}

func (s *PointService) items(ctx context.Context, pointID int64) ([]domain.Item, error) {
	items, err := s.Points.Items(ctx, pointID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ImageURL = s.Catalog.imageURL(items[i].Image)
	}
	return items, nil
}

func (s *PointService) decorate(p domain.Point) domain.Point {
	p.ImageURL = s.Images.URL(p.Image)
	return p
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
