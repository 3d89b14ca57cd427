package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
)

// Repository reads the menu. The catalog is immutable at runtime; writes
// happen only through migrations.
type Repository interface {
	GetAllItems(ctx context.Context) ([]domain.CatalogItem, error)
	GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error)
	Close() error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetAllItems(ctx context.Context) ([]domain.CatalogItem, error) {
	query := `
		SELECT id, name, description, price, category, available, image
		FROM menu_items
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.CatalogItem
	byID := make(map[int64]int)
	for rows.Next() {
		var it domain.CatalogItem
		err := rows.Scan(
			&it.ID,
			&it.Name,
			&it.Description,
			&it.Price,
			&it.Category,
			&it.Available,
			&it.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		byID[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := r.attachAddOns(ctx, items, byID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SQLiteRepository) attachAddOns(ctx context.Context, items []domain.CatalogItem, byID map[int64]int) error {
	query := `
		SELECT item_id, id, name, price
		FROM menu_item_extras
		ORDER BY item_id, rowid
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query extras: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var a domain.AddOn
		if err := rows.Scan(&itemID, &a.ID, &a.Name, &a.Price); err != nil {
			return fmt.Errorf("failed to scan extra: %w", err)
		}
		if idx, ok := byID[itemID]; ok {
			items[idx].Extras = append(items[idx].Extras, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	query := `
		SELECT id, name, description, price, category, available, image
		FROM menu_items
		WHERE id = $1
	`

	var it domain.CatalogItem
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&it.ID,
		&it.Name,
		&it.Description,
		&it.Price,
		&it.Category,
		&it.Available,
		&it.Image,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCatalogItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query menu item: %w", err)
	}

	items := []domain.CatalogItem{it}
	if err := r.attachAddOns(ctx, items, map[int64]int{it.ID: 0}); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
