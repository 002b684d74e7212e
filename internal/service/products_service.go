package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/cache"
	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/geocoder89/storehub/internal/domain/user"
)

type ProductStore interface {
	Create(ctx context.Context, in product.NewProduct) (product.Product, error)
	GetByID(ctx context.Context, id int64, status product.Status) (product.Product, error)
	List(ctx context.Context, filter product.ListFilter) ([]product.Product, int, error)
	Update(ctx context.Context, id int64, req product.UpdateRequest) (product.Product, error)
	Deactivate(ctx context.Context, id int64) error
}

// ListCache holds rendered list pages for a short TTL; cache.Cache implements it.
type ListCache interface {
	Get(key string) (any, bool)
	Set(key string, val any)
	Clear()
}

// CacheMetrics counts cache hits and misses; observability.Prom implements it.
type CacheMetrics interface {
	ObserveCache(name, result string)
}

type ProductsService struct {
	products ProductStore
	cache    ListCache
	metrics  CacheMetrics
}

func NewProductsService(products ProductStore, listCache ListCache, metrics CacheMetrics) *ProductsService {
	return &ProductsService{products: products, cache: listCache, metrics: metrics}
}

type ProductPage struct {
	Products   []product.Product
	Pagination Pagination
}

type ProductQuery struct {
	Page     PageRequest
	Category *string
	Search   *string
}

// List returns active products, newest first. Pages are cached briefly and
// the cache is dropped on every product write.
func (s *ProductsService) List(ctx context.Context, q ProductQuery) (ProductPage, error) {
	page := q.Page.Normalize()
	category := trimmedOrNil(q.Category)
	search := trimmedOrNil(q.Search)

	key := cache.ProductListKey(page.Page, page.Limit, category, search)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if cached, ok := v.(ProductPage); ok {
				s.observeCache("hit")
				return cached, nil
			}
		}
		s.observeCache("miss")
	}

	products, total, err := s.products.List(ctx, product.ListFilter{
		Status:   product.StatusActive,
		Category: category,
		Search:   search,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	})
	if err != nil {
		return ProductPage{}, apperr.From(err, apperr.MsgInternal)
	}

	out := ProductPage{Products: products, Pagination: NewPagination(page, total)}
	if s.cache != nil {
		s.cache.Set(key, out)
	}
	return out, nil
}

// Get returns an active product. Deactivated products are not found for anyone.
func (s *ProductsService) Get(ctx context.Context, id int64) (product.Product, error) {
	p, err := s.products.GetByID(ctx, id, product.StatusActive)
	if err != nil {
		return product.Product{}, mapProductErr(err)
	}
	return p, nil
}

func (s *ProductsService) Create(ctx context.Context, actor *user.User, req product.CreateRequest) (product.Product, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return product.Product{}, err
	}

	p, err := s.products.Create(ctx, product.NewFromCreateRequest(req, actor.ID))
	if err != nil {
		return product.Product{}, apperr.From(err, apperr.MsgInternal)
	}

	s.invalidate()
	slog.InfoContext(ctx, "products.created", "product_id", p.ID, "user_id", actor.ID)
	return p, nil
}

// Editable loads the product and checks the actor may change it. Callers run
// it before reading the request body so a stranger gets 403, not a validation error.
func (s *ProductsService) Editable(ctx context.Context, actor *user.User, id int64) (product.Product, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return product.Product{}, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	if err := auth.RequireOwnerOrAdmin(actor, p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *ProductsService) Update(ctx context.Context, actor *user.User, id int64, req product.UpdateRequest) (product.Product, error) {
	if _, err := s.Editable(ctx, actor, id); err != nil {
		return product.Product{}, err
	}

	if req.IsEmpty() {
		return product.Product{}, apperr.Validation(apperr.MsgNothingToUpdate, nil)
	}

	p, err := s.products.Update(ctx, id, req)
	if err != nil {
		return product.Product{}, mapProductErr(err)
	}

	s.invalidate()
	return p, nil
}

func (s *ProductsService) Delete(ctx context.Context, actor *user.User, id int64) error {
	if _, err := s.Editable(ctx, actor, id); err != nil {
		return err
	}

	if err := s.products.Deactivate(ctx, id); err != nil {
		return mapProductErr(err)
	}

	s.invalidate()
	slog.InfoContext(ctx, "products.deactivated", "product_id", id, "by", actor.ID)
	return nil
}

func (s *ProductsService) invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

func (s *ProductsService) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.ObserveCache("products_list", result)
	}
}

func mapProductErr(err error) error {
	if errors.Is(err, product.ErrNotFound) {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	return apperr.From(err, apperr.MsgInternal)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
