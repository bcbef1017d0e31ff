package handler

import (
	"net/http"
	"strconv"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/middleware"
	"shopper-backend/internal/service"

	"github.com/labstack/echo/v4"
)

const defaultOrderPageSize = 5

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	page, size, err := pageParams(c, "order_per_page", defaultOrderPageSize)
	if err != nil {
		return err
	}

	result, err := h.orderService.ListOrders(ctx, user, page, size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return apperr.E(apperr.KindValidation, "invalid request body")
	}

	order, err := h.orderService.CreateOrder(ctx, user, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	orderID, err := strconv.ParseUint(c.QueryParam("order_id"), 10, 64)
	if err != nil {
		return apperr.E(apperr.KindValidation, "invalid order id")
	}

	if err := h.orderService.CancelOrder(ctx, user, uint(orderID)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Order canceled"})
}
