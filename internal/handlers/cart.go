package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"inventario/internal/cart"
	"inventario/internal/events"
	"inventario/internal/logging"
	"inventario/internal/middleware/auth"
)

type CartHandler struct {
	Carts    *cart.Store
	Producer events.Publisher
}

type cartResponse struct {
	Items      []cart.Item `json:"items"`
	GrandTotal float64     `json:"grand_total"`
	ItemCount  uint        `json:"item_count"`
}

func renderCart(e *cart.Engine) cartResponse {
	items, total, count := e.Summary()
	return cartResponse{
		Items:      items,
		GrandTotal: total,
		ItemCount:  count,
	}
}

func cartErrToHTTP(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrCartLocked):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, renderCart(h.Carts.ForUser(userID)))
}

// Quantity is left to the engine, which reports ErrInvalidQuantity for
// anything <= 0; the validator would turn a zero into a generic "required"
// message.
type AddToCartRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 401, "error", err)
		return err
	}

	var req AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	item, err := h.Carts.ForUser(userID).AddOrIncrement(ctx, req.ProductID, req.Quantity)
	if err != nil {
		he := cartErrToHTTP(err)
		l.Warn("add_to_cart_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

type SetQuantityRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"`
}

// SetQuantity replaces a row's quantity; zero or less removes the row.
// Requests beyond the available stock are rejected, never clamped.
func (h *CartHandler) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("set_quantity_error", "status", 401, "error", err)
		return err
	}

	var req SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_quantity_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("set_quantity_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	engine := h.Carts.ForUser(userID)
	if err := engine.SetQuantity(ctx, req.ProductID, req.Quantity); err != nil {
		he := cartErrToHTTP(err)
		l.Warn("set_quantity_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, map[string]any{
		"type":      "cart_quantity_set",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, renderCart(engine))
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_from_cart")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("remove_from_cart_error", "status", 401, "error", err)
		return err
	}

	productID, err := parseID(c)
	if err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}

	engine := h.Carts.ForUser(userID)
	if err := engine.Remove(productID); err != nil {
		he := cartErrToHTTP(err)
		l.Warn("remove_from_cart_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})

	return c.JSON(http.StatusOK, renderCart(engine))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "error", err)
		return err
	}

	if err := h.Carts.ForUser(userID).Clear(); err != nil {
		he := cartErrToHTTP(err)
		l.Warn("clear_cart_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	l.Info("clear_cart_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	publish(c, h.Producer, events.TopicCartEvents, event)
}
