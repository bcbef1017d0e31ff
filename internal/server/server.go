package server

import (
	"errors"
	"log/slog"
	"net/http"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/handler"
	appmiddleware "shopper-backend/internal/middleware"
	"shopper-backend/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	userHandler    *handler.UserHandler
	catalogHandler *handler.CatalogHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	authMiddleware echo.MiddlewareFunc
}

func NewServer(
	userService service.UserService,
	catalogService service.CatalogService,
	orderService service.OrderService,
	paymentService service.PaymentService,
	log *slog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		userHandler:    handler.NewUserHandler(userService),
		catalogHandler: handler.NewCatalogHandler(catalogService),
		orderHandler:   handler.NewOrderHandler(orderService),
		paymentHandler: handler.NewPaymentHandler(paymentService),
		authMiddleware: appmiddleware.Auth(userService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	e := s.echo

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- users --------
	e.POST("/register", s.userHandler.Register)
	e.POST("/login", s.userHandler.Login)
	e.PUT("/forgot-password", s.userHandler.ForgotPassword)
	e.PUT("/change-password", s.userHandler.ChangePassword)
	e.GET("/profile", s.userHandler.Profile, s.authMiddleware)
	e.PUT("/profile/reset-password", s.userHandler.ResetPassword, s.authMiddleware)

	// -------- catalog --------
	products := e.Group("/products")
	products.GET("", s.catalogHandler.ListProducts)
	products.GET("/search", s.catalogHandler.SearchProducts)
	products.GET("/:id", s.catalogHandler.GetProduct)

	// -------- orders / checkout --------
	orders := e.Group("/orders")
	orders.GET("", s.orderHandler.ListOrders, s.authMiddleware)
	orders.POST("/create-order", s.orderHandler.CreateOrder, s.authMiddleware)
	orders.DELETE("/cancel-order", s.orderHandler.CancelOrder, s.authMiddleware)
	orders.POST("/create-checkout-session", s.paymentHandler.CreateCheckoutSession, s.authMiddleware)

	// gateway callback, authenticated by signature instead of bearer token
	orders.POST("/webhook", s.paymentHandler.StripeWebhook)
}

// errorHandler maps the service error taxonomy onto HTTP statuses. Internal
// failures are logged with detail and answered with a generic message.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var httpErr *echo.HTTPError
		var appErr *apperr.Error
		switch {
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
		case errors.As(err, &appErr):
			switch appErr.Kind {
			case apperr.KindValidation:
				status = http.StatusBadRequest
			case apperr.KindNotFound:
				status = http.StatusNotFound
			case apperr.KindUnauthorized:
				status = http.StatusUnauthorized
			case apperr.KindForbidden:
				status = http.StatusForbidden
			case apperr.KindConflict:
				status = http.StatusConflict
			}
			if appErr.Kind != apperr.KindInternal {
				message = appErr.Message
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		}

		if status == http.StatusUnauthorized {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
		}

		if err := c.JSON(status, map[string]string{"detail": message}); err != nil {
			log.Error("write error response", "error", err)
		}
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
