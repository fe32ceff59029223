package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/renatoquispe/cinema-storefront-platform/internal/api/handlers"
	"github.com/renatoquispe/cinema-storefront-platform/internal/api/middleware"
	"github.com/renatoquispe/cinema-storefront-platform/internal/cache"
	"github.com/renatoquispe/cinema-storefront-platform/internal/config"
	"github.com/renatoquispe/cinema-storefront-platform/internal/health"
	"github.com/renatoquispe/cinema-storefront-platform/internal/metrics"
	repository "github.com/renatoquispe/cinema-storefront-platform/internal/repositories"
	redisRepo "github.com/renatoquispe/cinema-storefront-platform/internal/repositories/redis"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/tracing"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/merchant"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/payu"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/sendgrid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	shutdownTracing, err := tracing.Setup(context.Background(), cfg)
	if err != nil {
		slog.Error("❌ Error setting up tracing", "error", err.Error())
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", "error", err.Error())
		os.Exit(1)
	}

	// Redis setup
	sessionStore, err := redisRepo.NewRedisRepo(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	jwtKey := []byte(cfg.Security.JWTKey)

	gatewayClient := payu.NewClient(payu.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		APIKey:     cfg.Gateway.APIKey,
		APILogin:   cfg.Gateway.APILogin,
		MerchantID: cfg.Gateway.MerchantID,
		AccountID:  cfg.Gateway.AccountID,
		Test:       cfg.Gateway.Test,
	})

	completeURL := cfg.Merchant.CompleteURL
	if completeURL == "" {
		completeURL = "http://localhost" + cfg.Addr + "/api/v1/complete"
	}

	notifier := merchant.NewNotifier(completeURL)
	emailClient := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	cacheStore := cache.NewRedisCache(sessionStore.Client(), &cfg.Cache)

	userService := service.NewUserService(repos.User, sessionStore, jwtKey)
	userHandler := handlers.NewUserHandler(userService)
	catalogService := service.NewCatalogService(repos.Catalog, cacheStore)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	cartService := service.NewCartService(sessionStore, repos.Catalog)
	cartHandler := handlers.NewCartHandler(cartService)
	notificationService := service.NewNotificationService(repos.Notification, emailClient)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	checkoutService := service.NewCheckoutService(cartService, repos.Order, gatewayClient, notifier, notificationService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	completeHandler := handlers.NewCompleteHandler(service.NewCompletionService())
	orderService := service.NewOrderService(repos.Order)
	orderHandler := handlers.NewOrderHandler(orderService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error setting up health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))
	routerMux.HandleFunc("GET /api/v1/premieres", catalogHandler.ListPremieres())
	routerMux.HandleFunc("POST /api/v1/premieres", authMiddleware.Authenticate(catalogHandler.CreatePremiere()))
	routerMux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProduct())
	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.Authenticate(catalogHandler.CreateProduct()))
	routerMux.HandleFunc("GET /api/v1/carts", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items/{id}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(checkoutHandler.Checkout()))
	routerMux.HandleFunc("POST /api/v1/complete", completeHandler.Complete())
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/notifications", authMiddleware.Authenticate(notificationHandler.ListNotifications()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "cinema-storefront-platform")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracing shutdown encountered an issue", slog.String("error", err.Error()))
	}
}
