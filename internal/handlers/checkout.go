package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"inventario/internal/cart"
	"inventario/internal/checkout"
	"inventario/internal/events"
	"inventario/internal/logging"
	"inventario/internal/middleware/auth"
	"inventario/internal/models"
)

type CheckoutHandler struct {
	DB       *gorm.DB
	Manager  *checkout.Manager
	Producer events.Publisher
}

// Checkout converts the caller's cart into an order: snapshot, simulated
// processing delay, ledger append, cleared cart.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.checkout")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "error", err)
		return err
	}

	var client models.User
	if err := h.DB.WithContext(ctx).First(&client, userID).Error; err != nil {
		l.Error("checkout_error", "status", 401, "reason", "unknown user", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}

	order, err := h.Manager.Checkout(ctx, client)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrEmptyCart):
			l.Warn("checkout_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		case errors.Is(err, cart.ErrCartLocked), errors.Is(err, checkout.ErrAlreadyFinalized):
			l.Warn("checkout_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, checkout.ErrCancelled):
			l.Info("checkout_cancelled")
			return echo.NewHTTPError(http.StatusConflict, "checkout cancelled")
		default:
			l.Error("checkout_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "checkout failed")
		}
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	l.Info("checkout_success", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}

// CancelCheckout aborts the caller's in-flight checkout; the cart stays as it
// was.
func (h *CheckoutHandler) CancelCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.cancel")

	userID, err := auth.UserID(c)
	if err != nil {
		l.Warn("cancel_checkout_error", "status", 401, "error", err)
		return err
	}

	if err := h.Manager.Cancel(userID); err != nil {
		switch {
		case errors.Is(err, checkout.ErrNotStarted):
			l.Warn("cancel_checkout_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "no checkout in progress")
		case errors.Is(err, checkout.ErrAlreadyFinalized):
			l.Warn("cancel_checkout_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("cancel_checkout_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("cancel_checkout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "checkout cancelled"})
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]any) {
	publish(c, h.Producer, events.TopicOrderEvents, event)
}
