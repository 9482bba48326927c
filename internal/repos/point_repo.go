package repos

import (
	"context"
	"strings"

	"ecoleta/internal/domain"

	"github.com/jmoiron/sqlx"
)

const pointColumns = `id, name, email, whatsapp, latitude, longitude, city, uf, COALESCE(image,'') AS image, created_at`

type PointRepo struct{ db *sqlx.DB }

func NewPointRepo(db *sqlx.DB) *PointRepo { return &PointRepo{db: db} }

// Create writes the point and one point_items row per item id in a single
// transaction. On any error nothing is written.
func (r *PointRepo) Create(ctx context.Context, p domain.Point, itemIDs []int64) (domain.Point, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Point{}, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO points(name, email, whatsapp, latitude, longitude, city, uf, image)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`),
		p.Name, p.Email, p.Whatsapp, p.Latitude, p.Longitude, p.City, p.UF, p.Image,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return domain.Point{}, err
	}

	if len(itemIDs) > 0 {
		links := make([]domain.PointItem, 0, len(itemIDs))
		for _, itemID := range itemIDs {
			links = append(links, domain.PointItem{PointID: p.ID, ItemID: itemID})
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO point_items(point_id, item_id) VALUES(:point_id, :item_id)`, links); err != nil {
			return domain.Point{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Point{}, err
	}
	return p, nil
}

func (r *PointRepo) List(ctx context.Context, f domain.PointFilter) ([]domain.Point, error) {
	var (
		where []string
		args  []any
	)
	if f.City != "" {
		where = append(where, `LOWER(city) = LOWER(?)`)
		args = append(args, f.City)
	}
	if f.UF != "" {
		where = append(where, `UPPER(uf) = UPPER(?)`)
		args = append(args, f.UF)
	}
	if len(f.ItemIDs) > 0 {
		where = append(where, `id IN (SELECT point_id FROM point_items WHERE item_id IN (?))`)
		args = append(args, f.ItemIDs)
	}

	q := `SELECT ` + pointColumns + ` FROM points`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY id`

	if len(args) > 0 {
		var err error
		if q, args, err = sqlx.In(q, args...); err != nil {
			return nil, err
		}
	}

	out := []domain.Point{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, err
}

// Get returns sql.ErrNoRows when the point does not exist.
func (r *PointRepo) Get(ctx context.Context, id int64) (domain.Point, error) {
	var p domain.Point
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+pointColumns+` FROM points WHERE id = ?`), id)
	return p, err
}

// Items lists the items a point accepts.
func (r *PointRepo) Items(ctx context.Context, pointID int64) ([]domain.Item, error) {
	out := []domain.Item{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT i.id, i.title, i.image
		FROM items i
		JOIN point_items pi ON pi.item_id = i.id
		WHERE pi.point_id = ?
		ORDER BY i.id`), pointID)
	return out, err
}
