package middleware

import (
	"errors"
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RejectBanned blocks banned users from every non-read request. It must run
// after an auth gate.
func RejectBanned(users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			raw, _ := c.Get(UserIDKey).(string)
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return models.NewUnauthorizedError("authentication required")
			}
			user, err := users.GetUserByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return models.NewUnauthorizedError("account not found")
				}
				return err
			}
			if user.IsBanned {
				return models.NewForbiddenError("your account has been banned")
			}
			return next(c)
		}
	}
}
