package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/renatoquispe/cinema-storefront-platform/internal/cache"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	repository "github.com/renatoquispe/cinema-storefront-platform/internal/repositories"
)

const (
	premieresCacheKey = "catalog:premieres"
	productsCacheKey  = "catalog:products"
	catalogCacheTTL   = 5 * time.Minute
)

type CatalogService interface {
	ListPremieres(ctx context.Context) ([]*models.Premiere, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	CreatePremiere(ctx context.Context, req *models.CreatePremiereRequest) (*models.Premiere, error)
}

type catalogService struct {
	repo      repository.CatalogRepository
	cache     cache.Cache
	sanitizer *bluemonday.Policy
}

func NewCatalogService(repo repository.CatalogRepository, cacheStore cache.Cache) CatalogService {
	return &catalogService{
		repo:      repo,
		cache:     cacheStore,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ListPremieres implements CatalogService.
func (s *catalogService) ListPremieres(ctx context.Context) ([]*models.Premiere, error) {

	var premieres []*models.Premiere

	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, premieresCacheKey, &premieres); err == nil && hit {
			return premieres, nil
		} else if err != nil {
			slog.Warn("Premieres cache read failed", slog.String("error", err.Error()))
		}
	}

	premieres, err := s.repo.ListPremieres(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list premieres").WithError(err)
	}

	s.fillCache(ctx, premieresCacheKey, premieres)

	return premieres, nil
}

// ListProducts implements CatalogService.
func (s *catalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {

	var products []*models.Product

	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, productsCacheKey, &products); err == nil && hit {
			return products, nil
		} else if err != nil {
			slog.Warn("Products cache read failed", slog.String("error", err.Error()))
		}
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list products").WithError(err)
	}

	s.fillCache(ctx, productsCacheKey, products)

	return products, nil
}

// GetProduct implements CatalogService.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	return product, nil
}

// CreateProduct implements CatalogService. Catalog text is sanitized before
// it is stored: it ends up rendered on the storefront as-is.
func (s *catalogService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	product := &models.Product{
		ID:          uuid.New(),
		Name:        s.sanitizer.Sanitize(req.Name),
		Description: s.sanitizer.Sanitize(req.Description),
		UnitPrice:   req.UnitPrice,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	s.invalidateCache(ctx, productsCacheKey)

	return product, nil
}

// CreatePremiere implements CatalogService.
func (s *catalogService) CreatePremiere(ctx context.Context, req *models.CreatePremiereRequest) (*models.Premiere, error) {

	premiere := &models.Premiere{
		ID:          uuid.New(),
		Title:       s.sanitizer.Sanitize(req.Title),
		ImageURL:    req.ImageURL,
		Description: s.sanitizer.Sanitize(req.Description),
	}

	if err := s.repo.CreatePremiere(ctx, premiere); err != nil {
		return nil, errors.DatabaseError("Failed to create premiere").WithError(err)
	}

	s.invalidateCache(ctx, premieresCacheKey)

	return premiere, nil
}

func (s *catalogService) fillCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, key, value, catalogCacheTTL); err != nil {
		slog.Warn("Catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *catalogService) invalidateCache(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("Catalog cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
