package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/geocoder89/storehub/internal/service"
	"github.com/gin-gonic/gin"
)

type ProductCatalog interface {
	List(ctx context.Context, q service.ProductQuery) (service.ProductPage, error)
	Get(ctx context.Context, id int64) (product.Product, error)
	Create(ctx context.Context, actor *user.User, req product.CreateRequest) (product.Product, error)
	Editable(ctx context.Context, actor *user.User, id int64) (product.Product, error)
	Update(ctx context.Context, actor *user.User, id int64, req product.UpdateRequest) (product.Product, error)
	Delete(ctx context.Context, actor *user.User, id int64) error
}

type ProductsHandler struct {
	products ProductCatalog
}

func NewProductsHandler(products ProductCatalog) *ProductsHandler {
	return &ProductsHandler{products: products}
}

func (h *ProductsHandler) ListProducts(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	page, err := h.products.List(cctx, service.ProductQuery{
		Page:     parsePage(ctx),
		Category: optionalQuery(ctx, "category"),
		Search:   optionalQuery(ctx, "search"),
	})
	if err != nil {
		RespondError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"products":   product.Views(page.Products),
		"pagination": page.Pagination,
	})
}

func (h *ProductsHandler) GetProduct(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.products.Get(cctx, id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"product": p.View()})
}

func (h *ProductsHandler) CreateProduct(ctx *gin.Context) {
	var req product.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, err := h.products.Create(cctx, actorctx.UserFrom(ctx.Request.Context()), req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Producto creado exitosamente",
		"product": p.View(),
	})
}

// UpdateProduct resolves existence and ownership before binding, so a
// stranger gets 403 and a missing product 404 whatever the body holds.
func (h *ProductsHandler) UpdateProduct(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	actor := actorctx.UserFrom(ctx.Request.Context())

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.products.Editable(cctx, actor, id); err != nil {
		RespondError(ctx, err)
		return
	}

	var req product.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.products.Update(cctx, actor, id, req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Producto actualizado exitosamente",
		"product": p.View(),
	})
}

func (h *ProductsHandler) DeleteProduct(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.products.Delete(cctx, actorctx.UserFrom(ctx.Request.Context()), id); err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Producto eliminado exitosamente"})
}
