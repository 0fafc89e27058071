// Package catalog wraps the product browsing endpoints. All operations
// are unauthenticated reads; results are never cached here.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"shopfront/internal/api"
	"shopfront/internal/model"

	"github.com/rs/zerolog"
)

const (
	productsPath   = "/products/"
	featuredPath   = "/products/featured/"
	categoriesPath = "/categories/"
)

// ListParams narrows a product listing. Zero values are omitted from
// the query string.
type ListParams struct {
	Search   string
	Category string
	Ordering string
	Page     int
	PageSize int
}

// Query renders the parameters as a URL query string, empty when no
// parameter is set.
func (p ListParams) Query() string {
	values := url.Values{}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Category != "" {
		values.Set("category", p.Category)
	}
	if p.Ordering != "" {
		values.Set("ordering", p.Ordering)
	}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// Client exposes catalogue reads.
type Client struct {
	api    *api.Client
	logger zerolog.Logger
}

// New creates a catalogue client.
func New(apiClient *api.Client, logger zerolog.Logger) *Client {
	return &Client{
		api:    apiClient,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Products retrieves a page of products matching the given parameters.
func (c *Client) Products(ctx context.Context, params ListParams) (*model.Page[model.Product], error) {
	var page model.Page[model.Product]
	if err := c.api.Get(ctx, productsPath+params.Query(), &page); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &page, nil
}

// Product retrieves a single product by ID.
func (c *Client) Product(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := c.api.Get(ctx, productsPath+id+"/", &product); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// Featured retrieves the featured product selection. Unlike Products
// this endpoint returns a bare list, not a paginated envelope.
func (c *Client) Featured(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.api.Get(ctx, featuredPath, &products); err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// Categories retrieves the category tree.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var page model.Page[model.Category]
	if err := c.api.Get(ctx, categoriesPath, &page); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return page.Results, nil
}
