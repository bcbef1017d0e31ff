package handler

import (
	"net/http"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/middleware"
	"shopper-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.E(apperr.KindValidation, "invalid request body")
	}

	user, err := h.userService.Register(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.E(apperr.KindValidation, "invalid request body")
	}

	token, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, token)
}

func (h *UserHandler) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()

	email := c.QueryParam("user_email")
	if email == "" {
		return apperr.E(apperr.KindValidation, "user_email is required")
	}

	if err := h.userService.ForgotPassword(ctx, email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "If this email exists, a reset link has been sent.",
	})
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.E(apperr.KindValidation, "invalid request body")
	}

	if err := h.userService.ChangePassword(ctx, req.Email, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Password updated successfully"})
}

func (h *UserHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	profile, err := h.userService.Profile(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.E(apperr.KindValidation, "invalid request body")
	}

	if err := h.userService.ResetPassword(ctx, user.ID, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Password updated successfully"})
}
