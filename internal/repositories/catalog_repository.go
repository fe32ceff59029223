package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils"
)

type CatalogRepository interface {
	ListPremieres(ctx context.Context) ([]*models.Premiere, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	CreatePremiere(ctx context.Context, premiere *models.Premiere) error
}

type catalogRepository struct {
	DB *sql.DB
}

func NewCatalogRepo(db *sql.DB) CatalogRepository {
	return &catalogRepository{DB: db}
}

func (r *catalogRepository) ListPremieres(ctx context.Context) ([]*models.Premiere, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, title, image_url, description, created_at
		FROM premieres
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list premieres: %w", err)
	}

	defer rows.Close()

	var premieres []*models.Premiere

	for rows.Next() {

		premiere := &models.Premiere{}

		if err := rows.Scan(&premiere.ID, &premiere.Title, &premiere.ImageURL, &premiere.Description, &premiere.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan premiere: %w", err)
		}

		premieres = append(premieres, premiere)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return premieres, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, description, unit_price, created_at
		FROM products
		ORDER BY name ASC
	`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {

		product := &models.Product{}

		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.UnitPrice, &product.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *catalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `
		SELECT id, name, description, unit_price, created_at
		FROM products
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&product.ID, &product.Name, &product.Description, &product.UnitPrice, &product.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to get the product: %w", err)
	}

	return product, nil
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (id, name, description, unit_price, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	if err := r.DB.QueryRowContext(dbCtx, query, product.ID, product.Name, product.Description, product.UnitPrice).
		Scan(&product.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

func (r *catalogRepository) CreatePremiere(ctx context.Context, premiere *models.Premiere) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO premieres (id, title, image_url, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	if err := r.DB.QueryRowContext(dbCtx, query, premiere.ID, premiere.Title, premiere.ImageURL, premiere.Description).
		Scan(&premiere.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert premiere: %w", err)
	}

	return nil
}
