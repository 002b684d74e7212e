package product

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusDeactivated Status = "deactivated"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
	ImageURL    *string
	Status      Status
	UserID      int64
	Owner       Owner
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Owner is the public summary of the user that created the product.
type Owner struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p Product) IsActive() bool {
	return p.Status == StatusActive
}

func (p Product) IsAvailable() bool {
	return p.IsActive() && p.Stock > 0
}

type View struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	IsActive    bool      `json:"isActive"`
	IsAvailable bool      `json:"isAvailable"`
	UserID      int64     `json:"userId"`
	User        Owner     `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p Product) View() View {
	return View{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive(),
		IsAvailable: p.IsAvailable(),
		UserID:      p.UserID,
		User:        p.Owner,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func Views(products []Product) []View {
	out := make([]View, 0, len(products))
	for _, p := range products {
		out = append(out, p.View())
	}
	return out
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Status   Status
	Category *string
	Search   *string
	Limit    int
	Offset   int
}

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,min=3,max=100"`
	Description string  `json:"description" binding:"required,min=10,max=500"`
	Price       float64 `json:"price" binding:"required,gte=0.01,lte=99999999.99"`
	Stock       *int    `json:"stock" binding:"required,min=0,max=2147483647"`
	Category    string  `json:"category" binding:"required,min=3,max=50"`
	ImageURL    *string `json:"imageUrl" binding:"omitempty,url,max=255"`
}

// a partial update: absent fields are left as they are.
type UpdateRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=3,max=100"`
	Description *string  `json:"description" binding:"omitempty,min=10,max=500"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0.01,lte=99999999.99"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0,max=2147483647"`
	Category    *string  `json:"category" binding:"omitempty,min=3,max=50"`
	ImageURL    *string  `json:"imageUrl" binding:"omitempty,url,max=255"`
}

func (r UpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil &&
		r.Stock == nil && r.Category == nil && r.ImageURL == nil
}

type NewProduct struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
	ImageURL    *string
	UserID      int64
}

func NewFromCreateRequest(req CreateRequest, ownerID int64) NewProduct {
	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	return NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		UserID:      ownerID,
	}
}
