package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Status is the lifecycle of an account. Accounts are never physically removed.
type Status string

const (
	StatusActive      Status = "active"
	StatusDeactivated Status = "deactivated"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrLastAdmin  = errors.New("cannot remove the last active admin")
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) IsActive() bool {
	return u.Status == StatusActive
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// View is the only shape of a user that leaves the service.
type View struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) View() View {
	return View{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func Views(users []User) []View {
	out := make([]View, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}

// NewUser is what the store needs to persist a fresh account. The hash is computed before it gets here.
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
}

// Patch holds the fields an update may change; nil means untouched.
type Patch struct {
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Role         *Role
	Status       *Status
}

func (p Patch) IsEmpty() bool {
	return p.Email == nil && p.PasswordHash == nil && p.FirstName == nil &&
		p.LastName == nil && p.Role == nil && p.Status == nil
}

// RemovesAdmin reports whether applying the patch to u would take away an active admin.
func (p Patch) RemovesAdmin(u User) bool {
	if !u.IsAdmin() || !u.IsActive() {
		return false
	}
	if p.Role != nil && *p.Role != RoleAdmin {
		return true
	}
	return p.Status != nil && *p.Status != StatusActive
}

type ListFilter struct {
	// Status nil lists every account; admins see deactivated ones too.
	Status *Status
	Limit  int
	Offset int
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=6,bcryptlen"`
	FirstName string `json:"firstName" binding:"required,notblank,max=50"`
	LastName  string `json:"lastName" binding:"required,notblank,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// CreateRequest is the admin-side account creation payload.
type CreateRequest struct {
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=6,bcryptlen"`
	FirstName string `json:"firstName" binding:"required,notblank,max=50"`
	LastName  string `json:"lastName" binding:"required,notblank,max=50"`
	Role      Role   `json:"role" binding:"omitempty,oneof=user admin"`
}

type UpdateRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=100"`
	Password  *string `json:"password" binding:"omitempty,min=6,bcryptlen"`
	FirstName *string `json:"firstName" binding:"omitempty,notblank,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,notblank,max=50"`
	Role      *Role   `json:"role" binding:"omitempty,oneof=user admin"`
	IsActive  *bool   `json:"isActive"`
}
