package middleware

import (
	"strings"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/model"
	"shopper-backend/internal/service"

	"github.com/labstack/echo/v4"
)

const userContextKey = "current_user"

// Auth verifies the bearer token and stashes the resolved active user in
// the echo context for handlers behind it.
func Auth(userService service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return apperr.E(apperr.KindUnauthorized, "missing bearer token")
			}

			user, err := userService.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user placed in the context by Auth; nil when the
// route isn't behind the middleware.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userContextKey).(*model.User)
	return user
}
