package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/health"
	"github.com/insightmart/insightmart/pkg/middleware"
)

// apiTimeout bounds every /api request.
const apiTimeout = 30 * time.Second

// Services groups the business services the API exposes. Google may be nil.
type Services struct {
	Auth      AuthService
	Google    GoogleAuth
	Catalog   CatalogService
	Cart      CartService
	Orders    OrderService
	Reviews   ReviewService
	Analytics AnalyticsService
}

// RouterConfig holds the transport settings of the API router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
	FrontendURL        string
	Tokens             middleware.TokenValidator
	// Per-IP limit on the auth routes; zero disables it.
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	// Registry receives the HTTP metrics and is served on /metrics together
	// with the default registry. A nil registry disables both.
	Registry *prometheus.Registry
}

// NewRouter creates a chi router with every InsightMart route registered.
func NewRouter(cfg RouterConfig, svc Services, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing())
	if cfg.Registry != nil {
		r.Use(middleware.NewHTTPMetrics(cfg.Registry).Middleware)
	}
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins...)))
	r.Use(chimw.RealIP)
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogger(logger))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	// Health check endpoints
	r.Get("/health", healthHandler.LivenessHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(prometheus.Gatherers{cfg.Registry, prometheus.DefaultGatherer}, promhttp.HandlerOpts{}))
	}
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	r.Get("/", Root)

	authenticate := middleware.Auth(cfg.Tokens)
	sellerOnly := middleware.RequireRole(domain.RoleSeller)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(apiTimeout))

		r.Get("/", APIInfo)

		authHandler := NewAuthHandler(svc.Auth, svc.Google, cfg.FrontendURL, logger)
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger))
			r.Use(middleware.NoStore)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Get("/google", authHandler.GoogleLogin)
			r.Get("/google/callback", authHandler.GoogleCallback)
		})

		productHandler := NewProductHandler(svc.Catalog, logger)
		r.Route("/products", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(30))
				r.Get("/public", productHandler.ListPublicProducts)
				r.Get("/public/{id}", productHandler.GetPublicProduct)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, sellerOnly, middleware.NoStore)
				r.Get("/", productHandler.ListProducts)
				r.Post("/", productHandler.CreateProduct)
				r.Delete("/", productHandler.DeleteByCategory)
				r.Post("/bulk", productHandler.CreateProducts)
				r.Get("/search", productHandler.SearchProducts)
				r.Get("/filter", productHandler.FilterProducts)
				r.Get("/{id}", productHandler.GetProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
				r.Patch("/{id}/price-discount", productHandler.UpdatePriceDiscount)
			})
		})

		cartHandler := NewCartHandler(svc.Cart, logger)
		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticate, middleware.NoStore)
			r.Post("/add", cartHandler.AddItem)
			r.Get("/my-cart", cartHandler.GetCart)
			r.Put("/update", cartHandler.UpdateItem)
			r.Delete("/remove", cartHandler.RemoveItem)
		})

		orderHandler := NewOrderHandler(svc.Orders, logger)
		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticate, middleware.NoStore)
			r.Post("/create", orderHandler.PlaceOrder)
			r.Get("/my-orders", orderHandler.ListOrders)
		})

		reviewHandler := NewReviewHandler(svc.Reviews, logger)
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{productId}", reviewHandler.ListReviews)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", reviewHandler.AddReview)
				r.Delete("/{id}", reviewHandler.DeleteReview)
			})
		})

		analyticsHandler := NewAnalyticsHandler(svc.Analytics, logger)
		r.Route("/analytics", func(r chi.Router) {
			r.Use(authenticate, middleware.NoStore)
			r.With(sellerOnly).Get("/", analyticsHandler.SellerReport)
			r.Get("/me", analyticsHandler.CustomerSummary)
		})
	})

	return r
}
