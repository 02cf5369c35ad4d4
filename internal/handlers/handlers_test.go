package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inventario/internal/cart"
	"inventario/internal/catalog"
	"inventario/internal/checkout"
	"inventario/internal/events"
	"inventario/internal/handlers"
	"inventario/internal/hash"
	"inventario/internal/ledger"
	"inventario/internal/models"
	httpserver "inventario/internal/transport/http"
)

var testJWTSecret = []byte("test-secret")

type testEnv struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}, &models.Order{}, &models.OrderLine{}))

	for _, u := range []struct {
		name, email, password, role string
	}{
		{"Admin Principal", "admin@inventario.com", "admin123", models.RoleAdmin},
		{"Cliente Test", "cliente@inventario.com", "cliente123", models.RoleClient},
	} {
		pwHash, herr := hash.HashPassword(u.password)
		require.NoError(t, herr)
		require.NoError(t, db.Create(&models.User{Name: u.name, Email: u.email, PasswordHash: pwHash, Role: u.role}).Error)
	}

	products := []models.Product{
		{LoteNumber: "LOT001", Name: "ProductA", Price: 100, AvailableQuantity: 5, EntryDate: time.Now()},
		{LoteNumber: "LOT002", Name: "ProductB", Price: 50, AvailableQuantity: 1, EntryDate: time.Now()},
	}
	require.NoError(t, db.Create(&products).Error)

	producer := events.NoopPublisher{}
	catalogSvc := &catalog.Service{DB: db}
	carts := cart.NewStore(catalogSvc)
	ledgerSvc := &ledger.Service{DB: db}
	manager := checkout.NewManager(carts, ledgerSvc, 0, time.Second)

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:     &handlers.AuthHandler{DB: db, JWTSecret: testJWTSecret, Producer: producer},
		ProductHandler:  &handlers.ProductHandler{Catalog: catalogSvc, Producer: producer},
		CartHandler:     &handlers.CartHandler{Carts: carts, Producer: producer},
		CheckoutHandler: &handlers.CheckoutHandler{DB: db, Manager: manager, Producer: producer},
		OrderHandler:    &handlers.OrderHandler{Ledger: ledgerSvc, Producer: producer},
		JWTSecret:       testJWTSecret,
	})

	return &testEnv{e: e, db: db}
}

func (env *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := env.do(http.MethodPost, "/api/v1/login", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/login", "", `{"email":"cliente@inventario.com","password":"cliente123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string      `json:"access_token"`
		IsAdmin     bool        `json:"is_admin"`
		User        models.User `json:"user"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	require.False(t, resp.IsAdmin)
	require.Equal(t, "Cliente Test", resp.User.Name)
	require.NotContains(t, rec.Body.String(), "password_hash")

	rec = env.do(http.MethodPost, "/api/v1/login", "", `{"email":"cliente@inventario.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/login", "", `{"email":"nobody@inventario.com","password":"cliente123"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/register", "", `{"name":"Nuevo","email":"nuevo@inventario.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/v1/register", "", `{"name":"Nuevo","email":"nuevo@inventario.com","password":"secret1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/register", "", `{"name":"Corto","email":"corto@inventario.com","password":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env.login(t, "nuevo@inventario.com", "secret1")
}

func TestCartRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/cart", "not-a-token", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "cliente@inventario.com", "cliente123")

	rec := env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// same product again merges into one row
	rec = env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":1,"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var item cart.Item
	decode(t, rec, &item)
	require.Equal(t, uint(3), item.Quantity)

	rec = env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":2,"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items      []cart.Item `json:"items"`
		GrandTotal float64     `json:"grand_total"`
		ItemCount  uint        `json:"item_count"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Items, 2)
	require.Equal(t, float64(350), resp.GrandTotal)
	require.Equal(t, uint(4), resp.ItemCount)

	// stock of ProductB is 1
	rec = env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":2,"quantity":1}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":99,"quantity":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPatch, "/api/v1/cart", token, `{"product_id":1,"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	require.Equal(t, float64(50), resp.GrandTotal)

	rec = env.do(http.MethodDelete, "/api/v1/cart/items/2", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Empty(t, resp.Items)

	rec = env.do(http.MethodDelete, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAddToCartInvalidQuantity(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "cliente@inventario.com", "cliente123")

	// zero and negative get the same error kind, worded by the engine
	for _, body := range []string{
		`{"product_id":1,"quantity":0}`,
		`{"product_id":1,"quantity":-2}`,
	} {
		rec := env.do(http.MethodPost, "/api/v1/cart", token, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		require.Contains(t, rec.Body.String(), "invalid quantity")
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "cliente@inventario.com", "cliente123")

	rec := env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/api/v1/cart", token, `{"product_id":2,"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/checkout", token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	decode(t, rec, &order)
	require.NotEmpty(t, order.ID)
	require.Equal(t, "Cliente Test", order.ClientName)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, float64(250), order.Total)
	require.Len(t, order.Lines, 2)

	// cart is empty afterwards
	rec = env.do(http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cartResp struct {
		Items []cart.Item `json:"items"`
	}
	decode(t, rec, &cartResp)
	require.Empty(t, cartResp.Items)

	// the order shows up in purchase history
	rec = env.do(http.MethodGet, "/api/v1/orders", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []models.Order
	decode(t, rec, &orders)
	require.Len(t, orders, 1)
	require.Equal(t, order.ID, orders[0].ID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "cliente@inventario.com", "cliente123")

	rec := env.do(http.MethodPost, "/api/v1/checkout", token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelCheckoutWithoutActive(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "cliente@inventario.com", "cliente123")

	rec := env.do(http.MethodPost, "/api/v1/checkout/cancel", token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminGate(t *testing.T) {
	env := newTestEnv(t)
	clientToken := env.login(t, "cliente@inventario.com", "cliente123")
	adminToken := env.login(t, "admin@inventario.com", "admin123")

	rec := env.do(http.MethodGet, "/api/v1/admin/orders", clientToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/admin/orders", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := `{"name":"Nuevo Producto","lote_number":"LOT099","price":10,"available_quantity":4}`
	rec = env.do(http.MethodPost, "/api/v1/admin/products", clientToken, body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/admin/products", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSetOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	clientToken := env.login(t, "cliente@inventario.com", "cliente123")
	adminToken := env.login(t, "admin@inventario.com", "admin123")

	rec := env.do(http.MethodPost, "/api/v1/cart", clientToken, `{"product_id":1,"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/api/v1/checkout", clientToken, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var order models.Order
	decode(t, rec, &order)

	path := "/api/v1/admin/orders/" + order.ID + "/status"

	rec = env.do(http.MethodPatch, path, adminToken, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Order
	decode(t, rec, &updated)
	require.Equal(t, models.OrderStatusCompleted, updated.Status)

	// idempotent re-set
	rec = env.do(http.MethodPatch, path, adminToken, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPatch, path, adminToken, `{"status":"shipped"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/api/v1/admin/orders/missing/status", adminToken, `{"status":"completed"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPatch, path, clientToken, `{"status":"cancelled"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicProductEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/products/available", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var available []models.Product
	decode(t, rec, &available)
	require.Len(t, available, 2)

	rec = env.do(http.MethodGet, "/api/v1/products/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Product
	decode(t, rec, &p)
	require.Equal(t, "ProductA", p.Name)

	rec = env.do(http.MethodGet, "/api/v1/products/999", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
