// @title           Virtual Fit Backend API
// @version         1.0.0
// @description     Backend API for virtual try-on: body scan sessions, avatar generation, garment try-on renders, product catalog, cart, orders and payments. Scanning, rendering and payment processing are simulated; state machines and data flows are real.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"
	"net/url"

	"virtual-fit-backend/docs"
	"virtual-fit-backend/internal/avatar"
	"virtual-fit-backend/internal/cart"
	"virtual-fit-backend/internal/catalog"
	"virtual-fit-backend/internal/closet"
	"virtual-fit-backend/internal/config"
	"virtual-fit-backend/internal/handlers"
	"virtual-fit-backend/internal/middleware"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/notify"
	"virtual-fit-backend/internal/order"
	"virtual-fit-backend/internal/payment"
	"virtual-fit-backend/internal/registry"
	"virtual-fit-backend/internal/scan"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
	"virtual-fit-backend/internal/tryon"
	"virtual-fit-backend/internal/users"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	// Open the document store (memory, postgres or mongo per config)
	backend, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	// Session registry cache (memory or redis per config)
	reg, err := registry.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open session registry: %v", err)
	}

	// Initialize Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Order confirmation mailer; disabled without an API key
	mailer := notify.NewMailer(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)

	// Collections
	sessions := store.NewCollection[models.ScanSession](backend, "scan_sessions")
	avatars := store.NewCollection[models.Avatar](backend, "avatars")
	renders := store.NewCollection[models.TryOnRender](backend, "tryon_renders")
	products := store.NewCollection[models.Product](backend, "products")
	carts := store.NewCollection[models.Cart](backend, "carts")
	orders := store.NewCollection[models.Order](backend, "orders")
	payments := store.NewCollection[models.Payment](backend, "payments")
	closetItems := store.NewCollection[models.ClosetItem](backend, "closet_items")
	profiles := store.NewCollection[models.Profile](backend, "profiles")

	// Services
	materializer := avatar.NewMaterializer(avatars, sessions, storageClient)
	scanService := scan.NewService(sessions, reg, materializer, realtimeClient, scan.Options{TestMode: cfg.TestMode})
	avatarService := avatar.NewService(avatars, storageClient, cfg.TestMode)
	tryonService := tryon.NewService(renders, avatars, products, storageClient, realtimeClient, tryon.Options{TestMode: cfg.TestMode})
	catalogService := catalog.NewService(products)
	cartService := cart.NewService(carts, products)
	orderService := order.NewService(orders, products, profiles, cartService, mailer, cfg.TestMode)
	paymentService := payment.NewService(payments, orderService, payment.Options{TestMode: cfg.TestMode})
	closetService := closet.NewService(closetItems, products, cfg.TestMode)
	usersService := users.NewService(profiles)

	// Handlers
	scansHandler := handlers.NewScansHandler(scanService)
	avatarsHandler := handlers.NewAvatarsHandler(avatarService)
	tryonHandler := handlers.NewTryOnHandler(tryonService)
	productsHandler := handlers.NewProductsHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	ordersHandler := handlers.NewOrdersHandler(orderService)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService)
	closetHandler := handlers.NewClosetHandler(closetService)
	usersHandler := handlers.NewUsersHandler(usersService)
	uploadsHandler := handlers.NewUploadsHandler(storageClient)

	// Setup router
	router := gin.Default()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Scan sessions
	api.POST("/scans", scansHandler.StartScan)
	api.GET("/scans/:scan_id/status", scansHandler.GetScanStatus)
	api.GET("/scans/:scan_id/result", scansHandler.GetScanResult)
	api.POST("/scans/:scan_id/cancel", scansHandler.CancelScan)

	// Avatars
	api.GET("/avatars", avatarsHandler.ListAvatars)
	api.GET("/avatars/:avatar_id", avatarsHandler.GetAvatar)
	api.DELETE("/avatars/:avatar_id", avatarsHandler.DeleteAvatar)

	// Try-on renders
	api.POST("/tryon", tryonHandler.StartTryOn)
	api.POST("/tryon/batch", tryonHandler.BatchTryOn)
	api.GET("/tryon/:render_id", tryonHandler.GetTryOn)
	api.POST("/tryon/:render_id/cancel", tryonHandler.CancelTryOn)

	// Catalog
	api.GET("/products", productsHandler.ListProducts)
	api.GET("/products/:product_id", productsHandler.GetProduct)
	api.POST("/products", productsHandler.CreateProduct)
	api.PUT("/products/:product_id", productsHandler.UpdateProduct)
	api.DELETE("/products/:product_id", productsHandler.DeleteProduct)

	// Cart
	api.GET("/cart", cartHandler.GetCart)
	api.POST("/cart/items", cartHandler.AddCartItem)
	api.PUT("/cart/items/:item_id", cartHandler.UpdateCartItem)
	api.DELETE("/cart/items/:item_id", cartHandler.RemoveCartItem)
	api.DELETE("/cart", cartHandler.ClearCart)

	// Orders
	api.POST("/orders", ordersHandler.CreateOrder)
	api.GET("/orders", ordersHandler.ListOrders)
	api.GET("/orders/:order_id", ordersHandler.GetOrder)
	api.POST("/orders/:order_id/cancel", ordersHandler.CancelOrder)

	// Payments
	api.POST("/payments", paymentsHandler.CreatePayment)
	api.GET("/payments/:payment_id", paymentsHandler.GetPayment)
	api.POST("/payments/:payment_id/confirm", paymentsHandler.ConfirmPayment)

	// Closet
	api.GET("/closet", closetHandler.ListCloset)
	api.POST("/closet", closetHandler.AddClosetItem)
	api.DELETE("/closet/:item_id", closetHandler.RemoveClosetItem)

	// Users
	api.GET("/users/me", usersHandler.GetMe)
	api.PUT("/users/me", usersHandler.UpdateMe)

	// Uploads
	api.POST("/uploads", uploadsHandler.Upload)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
