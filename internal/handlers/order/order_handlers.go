package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/umerkang66/db-lab-project/internal/logging"
	"github.com/umerkang66/db-lab-project/internal/mykafka"
	"github.com/umerkang66/db-lab-project/internal/service/order"
	"github.com/umerkang66/db-lab-project/internal/service/token"
	"github.com/umerkang66/db-lab-project/internal/util"
)

type OrderHandler struct {
	Svc      *order.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// httpError maps the service taxonomy onto distinct client-facing statuses.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, order.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, order.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrAlreadyPaid):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "database error")
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	userID := token.UserFromContext(c)

	var req order.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	orderID, err := h.Svc.PlaceOrder(ctx, userID, req)
	if err != nil {
		he := httpError(err)
		l.Warn("place_order_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": orderID,
	})

	l.Info("place_order_success", "order_id", orderID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"order_id": orderID,
	})
}

func (h *OrderHandler) MarkPaid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.mark_paid")

	userID := token.UserFromContext(c)

	var req order.PaymentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("mark_paid_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	paymentID, err := h.Svc.MarkPaid(ctx, userID, req)
	if err != nil {
		he := httpError(err)
		l.Warn("mark_paid_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, map[string]any{
		"type":      "order_paid",
		"userID":    userID,
		"orderID":   req.OrderID,
		"paymentID": paymentID,
	})

	l.Info("mark_paid_success", "payment_id", paymentID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":    true,
		"payment_id": paymentID,
	})
}

func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	userID := token.UserFromContext(c)

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Svc.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// ListAllOrders backs the admin order overview.
func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Svc.ListAllOrders(ctx, limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
