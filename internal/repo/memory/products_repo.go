package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/geocoder89/storehub/internal/domain/user"
)

// OwnerLookup resolves the owner summary embedded in product reads.
type OwnerLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type ProductsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]product.Product
	owners OwnerLookup
}

func NewProductsRepo(owners OwnerLookup) *ProductsRepo {
	return &ProductsRepo{
		items:  make(map[int64]product.Product),
		owners: owners,
	}
}

func (r *ProductsRepo) Create(ctx context.Context, in product.NewProduct) (product.Product, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	r.nextID++
	p := product.Product{
		ID:          r.nextID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Status:      product.StatusActive,
		UserID:      in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[p.ID] = p
	r.mu.Unlock()

	return r.withOwner(ctx, p), nil
}

// GetByID returns the product only when it is in the given status.
func (r *ProductsRepo) GetByID(ctx context.Context, id int64, status product.Status) (product.Product, error) {
	r.mu.RLock()
	p, ok := r.items[id]
	r.mu.RUnlock()

	if !ok || p.Status != status {
		return product.Product{}, product.ErrNotFound
	}
	return r.withOwner(ctx, p), nil
}

func (r *ProductsRepo) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int, error) {
	status := filter.Status
	if status == "" {
		status = product.StatusActive
	}

	var category, search string
	if filter.Category != nil {
		category = *filter.Category
	}
	if filter.Search != nil {
		search = strings.ToLower(*filter.Search)
	}

	r.mu.RLock()
	matched := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		if p.Status != status {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	out := page(matched, filter.Limit, filter.Offset)
	for i := range out {
		out[i] = r.withOwner(ctx, out[i])
	}

	return out, len(matched), nil
}

func (r *ProductsRepo) Update(ctx context.Context, id int64, req product.UpdateRequest) (product.Product, error) {
	r.mu.Lock()
	p, ok := r.items[id]
	if !ok || !p.IsActive() {
		r.mu.Unlock()
		return product.Product{}, product.ErrNotFound
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.ImageURL != nil {
		p.ImageURL = req.ImageURL
	}
	p.UpdatedAt = time.Now().UTC()

	r.items[id] = p
	r.mu.Unlock()

	return r.withOwner(ctx, p), nil
}

func (r *ProductsRepo) Deactivate(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok || !p.IsActive() {
		return product.ErrNotFound
	}

	p.Status = product.StatusDeactivated
	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p

	return nil
}

func (r *ProductsRepo) withOwner(ctx context.Context, p product.Product) product.Product {
	if r.owners == nil {
		return p
	}
	u, err := r.owners.GetByID(ctx, p.UserID)
	if err != nil {
		p.Owner = product.Owner{ID: p.UserID}
		return p
	}
	p.Owner = product.Owner{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	return p
}
