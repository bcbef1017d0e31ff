package handler

import (
	"io"
	"net/http"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/middleware"
	"shopper-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.E(apperr.KindValidation, "invalid request body")
	}

	result, err := h.paymentService.CreateCheckoutSession(ctx, user, req.OrderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.E(apperr.KindValidation, "unreadable body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.paymentService.HandleWebhook(ctx, body, signature); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
