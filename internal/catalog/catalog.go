// Package catalog serves product browsing and the promotions board.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Source is the read side of the remote store.
type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Filter narrows the product list. Zero values match everything.
type Filter struct {
	CategoryID string
	Query      string
}

func (f Filter) Match(p domain.Product) bool {
	if f.CategoryID != "" && f.CategoryID != "all" && p.CategoryID != f.CategoryID {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

type Catalog struct {
	source Source
	logger *slog.Logger
}

// New returns a catalog over source. A nil source means the remote store is
// not configured.
func New(source Source, logger *slog.Logger) *Catalog {
	return &Catalog{source: source, logger: logger}
}

func (c *Catalog) Products(ctx context.Context, f Filter) ([]domain.Product, error) {
	all, err := c.listProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Catalog) Featured(ctx context.Context) ([]domain.Product, error) {
	all, err := c.listProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	for _, p := range all {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Catalog) Product(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, domain.Invalid("product_id", "is required")
	}
	if err := c.available(); err != nil {
		return domain.Product{}, err
	}
	p, err := c.source.GetProduct(ctx, id)
	if err != nil {
		c.logger.Error("failed to fetch product", "error", err, "product_id", id)
		return domain.Product{}, fetchFailed("product", err)
	}
	if p == nil {
		return domain.Product{}, domain.NewError(domain.ErrProductNotFound, "Product not found", nil)
	}
	return *p, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := c.available(); err != nil {
		return nil, err
	}
	categories, err := c.source.ListCategories(ctx)
	if err != nil {
		c.logger.Error("failed to fetch categories", "error", err)
		return nil, fetchFailed("categories", err)
	}
	out := make([]domain.Category, 0, len(categories))
	for _, cat := range categories {
		if cat.Active {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (c *Catalog) listProducts(ctx context.Context) ([]domain.Product, error) {
	if err := c.available(); err != nil {
		return nil, err
	}
	products, err := c.source.ListProducts(ctx)
	if err != nil {
		c.logger.Error("failed to fetch products", "error", err)
		return nil, fetchFailed("products", err)
	}
	return products, nil
}

func (c *Catalog) available() error {
	if c.source == nil {
		return domain.NewError(domain.ErrServiceUnavailable,
			"Database connection required. Please configure the store backend first.", nil)
	}
	return nil
}

func fetchFailed(what string, err error) error {
	return domain.NewError(domain.ErrCatalogFetchFailed, "Failed to load "+what+": "+err.Error(), err)
}
