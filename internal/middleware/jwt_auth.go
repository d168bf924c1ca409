// Package middleware holds the auth gates that put the caller's user id on
// the echo context.
package middleware

import (
	"errors"
	"strings"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserIDKey is the echo context key holding the caller's hex user id.
const UserIDKey = "userID"

// JWTAuthMiddleware checks for a valid HS256 JWT and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				var verr *jwt.ValidationError
				if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
					return models.NewUnauthorizedError("token expired")
				}
				return models.NewUnauthorizedError("invalid token")
			}
			if !primitive.IsValidObjectID(claims.UserID) {
				return models.NewUnauthorizedError("invalid token subject")
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set("user", claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", models.NewUnauthorizedError("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", models.NewUnauthorizedError("Authorization header must be in Bearer format")
	}
	return parts[1], nil
}
