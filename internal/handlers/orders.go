package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"inventario/internal/events"
	"inventario/internal/ledger"
	"inventario/internal/logging"
	"inventario/internal/middleware/auth"
)

type OrderHandler struct {
	Ledger   *ledger.Service
	Producer events.Publisher
}

// GetMyOrders is the client purchase-history view.
func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get_my_orders")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("get_my_orders_error", "status", 401, "error", err)
		return err
	}

	orders, err := h.Ledger.ListByClient(ctx, userID)
	if err != nil {
		l.Error("get_my_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, orders)
}

// ListOrders is the admin sales view; an optional status query filters it.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list_orders")

	status := c.QueryParam("status")

	if status != "" {
		list, lerr := h.Ledger.ListByStatus(ctx, status)
		if lerr != nil {
			if errors.Is(lerr, ledger.ErrValidation) {
				l.Warn("list_orders_error", "status", 400, "error", lerr)
				return echo.NewHTTPError(http.StatusBadRequest, lerr.Error())
			}
			l.Error("list_orders_error", "status", 500, "error", lerr)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, list)
	}

	list, err := h.Ledger.List(ctx)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, list)
}

type SetOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetOrderStatus records a sales-management status transition. Re-setting the
// current status is a no-op.
func (h *OrderHandler) SetOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.set_order_status")

	orderID := c.Param("id")
	if orderID == "" {
		l.Warn("set_order_status_error", "status", 400, "reason", "missing id")
		return echo.NewHTTPError(http.StatusBadRequest, "order id required")
	}

	var req SetOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_order_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("set_order_status_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	order, err := h.Ledger.SetStatus(ctx, orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrValidation):
			l.Warn("set_order_status_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrNotFound):
			l.Warn("set_order_status_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		default:
			l.Error("set_order_status_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	publish(c, h.Producer, events.TopicOrderEvents, map[string]any{
		"type":    "order_status_set",
		"userID":  order.ClientID,
		"orderID": order.ID,
		"status":  order.Status,
	})

	l.Info("set_order_status_success", "order_id", order.ID, "order_status", order.Status)
	return c.JSON(http.StatusOK, order)
}
