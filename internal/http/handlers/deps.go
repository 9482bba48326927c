package handlers

import (
	"ecoleta/internal/config"
	"ecoleta/internal/events"
	"ecoleta/internal/repos"
	"ecoleta/internal/services"
	"ecoleta/internal/storage"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ItemHandler  *ItemHandler
	PointHandler *PointHandler
	PageHandler  *PageHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, images storage.Store, pub events.Publisher) *Deps {
	itemRepo := repos.NewItemRepo(db)
	pointRepo := repos.NewPointRepo(db)

	catalogSvc := services.NewCatalogService(itemRepo, cfg.BaseURL+"/static/items")
	pointSvc := services.NewPointService(pointRepo, catalogSvc, images, pub, int64(cfg.MaxUploadBytes))

	return &Deps{
		ItemHandler:  &ItemHandler{Catalog: catalogSvc},
		PointHandler: &PointHandler{Points: pointSvc, MaxImageBytes: int64(cfg.MaxUploadBytes)},
		PageHandler:  &PageHandler{Catalog: catalogSvc, Points: pointSvc},
	}
}
