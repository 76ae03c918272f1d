package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	"virtual-fit-backend/internal/progress"
	"virtual-fit-backend/internal/registry"
	"virtual-fit-backend/internal/scan"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
	"virtual-fit-backend/internal/tryon"
	"virtual-fit-backend/internal/users"
)

// envelope mirrors the API response shape for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type api struct {
	router *gin.Engine
}

// newAPI wires the full route table against in-memory stores, with the
// simulated pipelines running millisecond steps and test-mode auth
// injecting the fixed user.
func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := store.NewMemoryBackend("")
	require.NoError(t, err)
	reg := registry.NewMemory()
	storageClient, err := supabase.NewStorageClient("https://project.supabase.co", "service-key", "virtual-fit")
	require.NoError(t, err)
	mailer := notify.NewMailer("", "Virtual Fit", "noreply@example.com")

	sessions := store.NewCollection[models.ScanSession](backend, "scan_sessions")
	avatars := store.NewCollection[models.Avatar](backend, "avatars")
	renders := store.NewCollection[models.TryOnRender](backend, "tryon_renders")
	products := store.NewCollection[models.Product](backend, "products")
	carts := store.NewCollection[models.Cart](backend, "carts")
	orders := store.NewCollection[models.Order](backend, "orders")
	payments := store.NewCollection[models.Payment](backend, "payments")
	closetItems := store.NewCollection[models.ClosetItem](backend, "closet_items")
	profiles := store.NewCollection[models.Profile](backend, "profiles")

	fastSteps := []progress.Step{
		{Progress: 50, Message: "halfway", Delay: 5 * time.Millisecond},
		{Progress: 100, Message: "done", Delay: 5 * time.Millisecond},
	}

	materializer := avatar.NewMaterializer(avatars, sessions, storageClient)
	scanService := scan.NewService(sessions, reg, materializer, nil, scan.Options{Steps: fastSteps, TestMode: true})
	t.Cleanup(scanService.Wait)
	avatarService := avatar.NewService(avatars, storageClient, true)
	tryonService := tryon.NewService(renders, avatars, products, storageClient, nil, tryon.Options{Steps: fastSteps, TestMode: true})
	t.Cleanup(tryonService.Wait)
	catalogService := catalog.NewService(products)
	cartService := cart.NewService(carts, products)
	orderService := order.NewService(orders, products, profiles, cartService, mailer, true)
	paymentService := payment.NewService(payments, orderService, payment.Options{
		TestMode: true,
		Roll:     func() float64 { return 0.1 },
	})
	closetService := closet.NewService(closetItems, products, true)
	usersService := users.NewService(profiles)

	scansHandler := handlers.NewScansHandler(scanService)
	avatarsHandler := handlers.NewAvatarsHandler(avatarService)
	tryonHandler := handlers.NewTryOnHandler(tryonService)
	productsHandler := handlers.NewProductsHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	ordersHandler := handlers.NewOrdersHandler(orderService)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService)
	closetHandler := handlers.NewClosetHandler(closetService)
	usersHandler := handlers.NewUsersHandler(usersService)

	router := gin.New()
	router.GET("/health", handlers.HealthHandler)

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(middleware.AuthMiddleware(&config.Config{TestMode: true}))

	apiGroup.POST("/scans", scansHandler.StartScan)
	apiGroup.GET("/scans/:scan_id/status", scansHandler.GetScanStatus)
	apiGroup.GET("/scans/:scan_id/result", scansHandler.GetScanResult)
	apiGroup.POST("/scans/:scan_id/cancel", scansHandler.CancelScan)

	apiGroup.GET("/avatars", avatarsHandler.ListAvatars)
	apiGroup.GET("/avatars/:avatar_id", avatarsHandler.GetAvatar)
	apiGroup.DELETE("/avatars/:avatar_id", avatarsHandler.DeleteAvatar)

	apiGroup.POST("/tryon", tryonHandler.StartTryOn)
	apiGroup.POST("/tryon/batch", tryonHandler.BatchTryOn)
	apiGroup.GET("/tryon/:render_id", tryonHandler.GetTryOn)
	apiGroup.POST("/tryon/:render_id/cancel", tryonHandler.CancelTryOn)

	apiGroup.GET("/products", productsHandler.ListProducts)
	apiGroup.GET("/products/:product_id", productsHandler.GetProduct)
	apiGroup.POST("/products", productsHandler.CreateProduct)
	apiGroup.PUT("/products/:product_id", productsHandler.UpdateProduct)
	apiGroup.DELETE("/products/:product_id", productsHandler.DeleteProduct)

	apiGroup.GET("/cart", cartHandler.GetCart)
	apiGroup.POST("/cart/items", cartHandler.AddCartItem)
	apiGroup.PUT("/cart/items/:item_id", cartHandler.UpdateCartItem)
	apiGroup.DELETE("/cart/items/:item_id", cartHandler.RemoveCartItem)
	apiGroup.DELETE("/cart", cartHandler.ClearCart)

	apiGroup.POST("/orders", ordersHandler.CreateOrder)
	apiGroup.GET("/orders", ordersHandler.ListOrders)
	apiGroup.GET("/orders/:order_id", ordersHandler.GetOrder)
	apiGroup.POST("/orders/:order_id/cancel", ordersHandler.CancelOrder)

	apiGroup.POST("/payments", paymentsHandler.CreatePayment)
	apiGroup.GET("/payments/:payment_id", paymentsHandler.GetPayment)
	apiGroup.POST("/payments/:payment_id/confirm", paymentsHandler.ConfirmPayment)

	apiGroup.GET("/closet", closetHandler.ListCloset)
	apiGroup.POST("/closet", closetHandler.AddClosetItem)
	apiGroup.DELETE("/closet/:item_id", closetHandler.RemoveClosetItem)

	apiGroup.GET("/users/me", usersHandler.GetMe)
	apiGroup.PUT("/users/me", usersHandler.UpdateMe)

	return &api{router: router}
}

func (a *api) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func (a *api) decode(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func (a *api) createProduct(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/api/v1/products", models.ProductRequest{
		Name: name, Category: "tops", Price: price, Stock: stock,
		Sizes: []string{"S", "M"}, Colors: []string{"black"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var product models.Product
	a.decode(t, env.Data, &product)
	return product
}

func TestAPI_ErrorEnvelope(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(t, http.MethodGet, "/api/v1/products/no-such-product", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Contains(t, env.Error.Message, "not found")
}

func TestAPI_ValidationEnvelope(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(t, http.MethodPost, "/api/v1/scans", models.StartScanRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestAPI_ScanLifecycle(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(t, http.MethodPost, "/api/v1/scans", models.StartScanRequest{
		Method: "photo",
		Images: []string{"captures/front.jpg", "captures/side.jpg", "captures/back.jpg"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, env.Success)

	var session models.ScanSession
	a.decode(t, env.Data, &session)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, models.ScanStatusPending, session.Status)

	// While the pipeline runs the result endpoint keeps answering 202.
	w, _ = a.do(t, http.MethodGet, "/api/v1/scans/"+session.ID+"/result", nil)
	require.Contains(t, []int{http.StatusAccepted, http.StatusOK}, w.Code)

	require.Eventually(t, func() bool {
		w, env := a.do(t, http.MethodGet, "/api/v1/scans/"+session.ID+"/status", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var status models.ScanStatusResponse
		a.decode(t, env.Data, &status)
		return status.Status == models.ScanStatusCompleted && status.Progress == 100
	}, 2*time.Second, 10*time.Millisecond)

	w, env = a.do(t, http.MethodGet, "/api/v1/scans/"+session.ID+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Avatar
	a.decode(t, env.Data, &got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "ready", got.Status)
	assert.Contains(t, got.ModelURL, "model.glb")

	// The avatar also shows up in the caller's avatar list.
	w, env = a.do(t, http.MethodGet, "/api/v1/avatars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data []models.Avatar `json:"data"`
	}
	a.decode(t, env.Data, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, got.ID, page.Data[0].ID)
}

func TestAPI_ScanCancelConflict(t *testing.T) {
	a := newAPI(t)

	_, env := a.do(t, http.MethodPost, "/api/v1/scans", models.StartScanRequest{
		Images: []string{"captures/front.jpg"},
	})
	var session models.ScanSession
	a.decode(t, env.Data, &session)

	w, env := a.do(t, http.MethodPost, "/api/v1/scans/"+session.ID+"/cancel", nil)
	if w.Code == http.StatusOK {
		// Cancelled before the pipeline finished; a second cancel conflicts.
		w, env = a.do(t, http.MethodPost, "/api/v1/scans/"+session.ID+"/cancel", nil)
	}
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICTING_STATE", env.Error.Code)
}

func TestAPI_TryOnFlow(t *testing.T) {
	a := newAPI(t)
	product := a.createProduct(t, "Denim Jacket", 79.99, 5)

	// A completed scan produces the avatar to dress.
	_, env := a.do(t, http.MethodPost, "/api/v1/scans", models.StartScanRequest{
		Images: []string{"captures/front.jpg"},
	})
	var session models.ScanSession
	a.decode(t, env.Data, &session)

	var avatarID string
	require.Eventually(t, func() bool {
		w, env := a.do(t, http.MethodGet, "/api/v1/scans/"+session.ID+"/result", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var got models.Avatar
		a.decode(t, env.Data, &got)
		avatarID = got.ID
		return avatarID != ""
	}, 2*time.Second, 10*time.Millisecond)

	w, env := a.do(t, http.MethodPost, "/api/v1/tryon", models.StartTryOnRequest{
		AvatarID:  avatarID,
		ProductID: product.ID,
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	var render models.TryOnRender
	a.decode(t, env.Data, &render)
	require.NotEmpty(t, render.ID)

	require.Eventually(t, func() bool {
		w, env := a.do(t, http.MethodGet, "/api/v1/tryon/"+render.ID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		a.decode(t, env.Data, &render)
		return render.Status == models.RenderStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, render.ResultURL, fmt.Sprintf("renders/%s.png", render.ID))
}

func TestAPI_CartOrderPaymentFlow(t *testing.T) {
	a := newAPI(t)
	product := a.createProduct(t, "Basic Tee", 29.99, 5)

	w, env := a.do(t, http.MethodPost, "/api/v1/cart/items", models.AddCartItemRequest{
		ProductID: product.ID, Size: "M", Color: "black", Quantity: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var userCart models.Cart
	a.decode(t, env.Data, &userCart)
	assert.Equal(t, 2, userCart.ItemCount)
	require.Len(t, userCart.Items, 1)
	assert.InDelta(t, 59.98, userCart.Total, 0.001)

	w, env = a.do(t, http.MethodPost, "/api/v1/orders", models.CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.Equal(t, http.StatusCreated, w.Code)
	var placed models.Order
	a.decode(t, env.Data, &placed)
	assert.Equal(t, models.OrderStatusPending, placed.Status)
	assert.InDelta(t, 74.78, placed.Total, 0.001)

	w, env = a.do(t, http.MethodPost, "/api/v1/payments", models.CreatePaymentRequest{
		OrderID: placed.ID, Method: "card",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var pay models.Payment
	a.decode(t, env.Data, &pay)
	assert.Equal(t, models.PaymentStatusPending, pay.Status)
	assert.InDelta(t, placed.Total, pay.Amount, 0.001)

	w, env = a.do(t, http.MethodPost, "/api/v1/payments/"+pay.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	a.decode(t, env.Data, &pay)
	assert.Equal(t, models.PaymentStatusConfirmed, pay.Status)

	w, env = a.do(t, http.MethodGet, "/api/v1/orders/"+placed.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	a.decode(t, env.Data, &placed)
	assert.Equal(t, models.OrderStatusPaid, placed.Status)

	// Checkout emptied the cart.
	w, env = a.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	a.decode(t, env.Data, &userCart)
	assert.Empty(t, userCart.Items)
}

func TestAPI_UsersMe(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(t, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile models.Profile
	a.decode(t, env.Data, &profile)
	assert.Equal(t, middleware.TestModeUserID, profile.ID)

	w, env = a.do(t, http.MethodPut, "/api/v1/users/me", models.UpdateProfileRequest{DisplayName: "Ada"})
	require.Equal(t, http.StatusOK, w.Code)
	a.decode(t, env.Data, &profile)
	assert.Equal(t, "Ada", profile.DisplayName)
}

func TestAPI_ClosetFlow(t *testing.T) {
	a := newAPI(t)
	product := a.createProduct(t, "Wool Scarf", 19.99, 3)

	w, env := a.do(t, http.MethodPost, "/api/v1/closet", models.AddClosetItemRequest{
		ProductID: product.ID, Source: "tryon",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var item models.ClosetItem
	a.decode(t, env.Data, &item)
	assert.Equal(t, "tryon", item.Source)

	w, env = a.do(t, http.MethodPost, "/api/v1/closet", models.AddClosetItemRequest{ProductID: product.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICTING_STATE", env.Error.Code)

	w, _ = a.do(t, http.MethodDelete, "/api/v1/closet/"+item.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_BatchTryOnLimit(t *testing.T) {
	a := newAPI(t)

	// Six products is one over the batch cap.
	ids := make([]string, 6)
	for i := range ids {
		product := a.createProduct(t, fmt.Sprintf("Item %d", i), 10, 5)
		ids[i] = product.ID
	}

	_, env := a.do(t, http.MethodPost, "/api/v1/scans", models.StartScanRequest{
		Images: []string{"captures/front.jpg"},
	})
	var session models.ScanSession
	a.decode(t, env.Data, &session)

	var avatarID string
	require.Eventually(t, func() bool {
		w, env := a.do(t, http.MethodGet, "/api/v1/scans/"+session.ID+"/result", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var got models.Avatar
		a.decode(t, env.Data, &got)
		avatarID = got.ID
		return avatarID != ""
	}, 2*time.Second, 10*time.Millisecond)

	w, env := a.do(t, http.MethodPost, "/api/v1/tryon/batch", models.BatchTryOnRequest{
		AvatarID:   avatarID,
		ProductIDs: ids,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RESOURCE_EXHAUSTED", env.Error.Code)
}
