package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inventario/internal/handlers"
	"inventario/internal/middleware/auth"
)

type Deps struct {
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	CartHandler     *handlers.CartHandler
	CheckoutHandler *handlers.CheckoutHandler
	OrderHandler    *handlers.OrderHandler
	SearchHandler   *handlers.SearchHandler
	JWTSecret       []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := &auth.Middleware{JWTSecret: d.JWTSecret}

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/products", d.ProductHandler.GetProducts)
	v1.GET("/products/available", d.ProductHandler.GetAvailable)
	v1.GET("/products/:id", d.ProductHandler.GetProduct)
	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	authed := v1.Group("", mw.RequireAuth)
	authed.GET("/cart", d.CartHandler.GetCart)
	authed.POST("/cart", d.CartHandler.AddToCart)
	authed.PATCH("/cart", d.CartHandler.SetQuantity)
	authed.DELETE("/cart", d.CartHandler.ClearCart)
	authed.DELETE("/cart/items/:id", d.CartHandler.RemoveFromCart)

	authed.POST("/checkout", d.CheckoutHandler.Checkout)
	authed.POST("/checkout/cancel", d.CheckoutHandler.CancelCheckout)

	authed.GET("/orders", d.OrderHandler.GetMyOrders)

	admin := v1.Group("/admin", mw.AdminOnly)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.SetOrderStatus)
}
