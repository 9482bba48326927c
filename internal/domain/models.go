package domain

type Item struct {
	ID       int64  `db:"id" json:"id"`
	Title    string `db:"title" json:"title"`
	Image    string `db:"image" json:"-"`
	ImageURL string `db:"-" json:"image_url"`
}

type Point struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Email     string  `db:"email" json:"email"`
	Whatsapp  string  `db:"whatsapp" json:"whatsapp"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
	City      string  `db:"city" json:"city"`
	UF        string  `db:"uf" json:"uf"`
	Image     string  `db:"image" json:"image"`
	ImageURL  string  `db:"-" json:"image_url,omitempty"`
	CreatedAt string  `db:"created_at" json:"created_at,omitempty"`
}

// PointItem is one row of the point/item join.
type PointItem struct {
	PointID int64 `db:"point_id"`
	ItemID  int64 `db:"item_id"`
}

// PointDetail is a point joined with the items it accepts.
type PointDetail struct {
	Point
	Items []Item `json:"items"`
}

// PointFilter narrows a listing; zero value means everything.
type PointFilter struct {
	City    string
	UF      string
	ItemIDs []int64
}

// PointCreated is the payload published after a point is stored.
type PointCreated struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	UF      string  `json:"uf"`
	ItemIDs []int64 `json:"item_ids"`
}
