package http

import (
	"log/slog"

	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/http/handlers"
	"github.com/geocoder89/storehub/internal/http/middlewares"
	"github.com/geocoder89/storehub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the HTTP surface needs. Prom, Gatherer and LoginLimiter
// are optional; tests leave them nil.
type Deps struct {
	Config config.Config

	Auth     handlers.Authenticator
	Users    handlers.UserManager
	Products handlers.ProductCatalog
	Resolver middlewares.UserResolver

	LoginLimiter middlewares.Limiter
	Checks       map[string]handlers.Pinger

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// only listed proxies may set the client address; the rate limiter keys on it
	if err := r.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
		slog.Warn("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(gin.Recovery())
	if d.Config.ServiceName != "" {
		r.Use(otelgin.Middleware(d.Config.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	// ops
	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	var rlMetrics middlewares.RateLimitMetrics
	if d.Prom != nil {
		rlMetrics = d.Prom
	}

	authMw := middlewares.NewAuthMiddleware(d.Resolver)
	requireAuth := authMw.RequireAuth()
	requireAdmin := middlewares.RequireAdmin()

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	// auth
	authHandler := handlers.NewAuthHandler(d.Auth, d.Users)
	authGroup := api.Group("/auth")
	{
		var limited []gin.HandlerFunc
		if d.LoginLimiter != nil {
			limited = append(limited, middlewares.RateLimit(d.LoginLimiter, "auth", middlewares.KeyByIP, rlMetrics))
		}

		authGroup.POST("/register", append(limited, authHandler.Register)...)
		authGroup.POST("/login", append(limited, authHandler.Login)...)
		authGroup.POST("/refresh", append(limited, authHandler.Refresh)...)
		authGroup.GET("/profile", requireAuth, authHandler.Profile)
		authGroup.PUT("/profile", requireAuth, authHandler.UpdateProfile)
	}

	// products: reads are public
	productsHandler := handlers.NewProductsHandler(d.Products)
	products := api.Group("/products")
	{
		products.GET("", productsHandler.ListProducts)
		products.GET("/:id", productsHandler.GetProduct)
		products.POST("", requireAuth, productsHandler.CreateProduct)
		products.PUT("/:id", requireAuth, productsHandler.UpdateProduct)
		products.DELETE("/:id", requireAuth, productsHandler.DeleteProduct)
	}

	// users: self-or-admin on a single record, admin for everything else
	usersHandler := handlers.NewUsersHandler(d.Users)
	users := api.Group("/users", requireAuth)
	{
		users.GET("", requireAdmin, usersHandler.ListUsers)
		users.POST("", requireAdmin, usersHandler.CreateUser)
		users.GET("/:id", usersHandler.GetUser)
		users.PUT("/:id", usersHandler.UpdateUser)
		users.DELETE("/:id", requireAdmin, usersHandler.DeleteUser)
	}

	return r
}
