package repos

import (
	"embed"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// OpenDB connects with driver "sqlite" or "postgres", migrates and seeds.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	var dialect string
	switch driver {
	case "", "sqlite":
		driver, dialect = "sqlite", "sqlite3"
	case "postgres":
		dialect = "postgres"
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite" {
		// One connection keeps :memory: databases alive and the pragma applied.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if driver == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := migrate(db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return db, nil
}

func migrate(db *sqlx.DB, dialect string) error {
	dir := "migrations/sqlite"
	if dialect == "postgres" {
		dir = "migrations/postgres"
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// seedItems is the fixed catalog; ids follow insertion order.
var seedItems = []struct{ Title, Image string }{
	{"Lâmpadas", "lampadas.svg"},
	{"Pilhas e Baterias", "baterias.svg"},
	{"Papéis e Papelão", "papeis-papelao.svg"},
	{"Resíduos Eletrônicos", "eletronicos.svg"},
	{"Resíduos Orgânicos", "organicos.svg"},
	{"Óleo de Cozinha", "oleo.svg"},
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM items`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting item catalog")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range seedItems {
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO items(title, image) VALUES(?, ?)`), it.Title, it.Image); err != nil {
			return err
		}
	}
	return tx.Commit()
}
