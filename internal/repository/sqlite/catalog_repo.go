package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prn-tf/tienda/internal/domain"
	"github.com/prn-tf/tienda/internal/repository"
)

// catalogRepository implements repository.CatalogRepository for SQLite.
type catalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new SQLite catalog repository.
func NewCatalogRepository(db *DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

// GetByID retrieves a catalog item by ID.
func (r *catalogRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{}
	err := r.db.db.QueryRowContext(ctx,
		`SELECT id, name, price FROM catalog_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Price)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewDomainError(domain.ErrItemNotFound, "catalog lookup", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

// List returns all catalog items ordered by ID.
func (r *catalogRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	rows, err := r.db.db.QueryContext(ctx, `SELECT id, name, price FROM catalog_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []*domain.CatalogItem
	for rows.Next() {
		item := &domain.CatalogItem{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog items: %w", err)
	}

	return items, nil
}

var _ repository.CatalogRepository = (*catalogRepository)(nil)
