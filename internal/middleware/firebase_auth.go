package middleware

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenVerifier is the part of *auth.Client the gate needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies a Firebase ID token and resolves the local
// account linked to its UID.
func FirebaseAuthMiddleware(verifier TokenVerifier, users repositories.UserRepository, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				logger.Debug("firebase token rejected", zap.Error(err))
				return models.NewUnauthorizedError("invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return models.NewUnauthorizedError("no account linked to this identity")
				}
				return err
			}

			c.Set(UserIDKey, user.ID.Hex())
			c.Set("firebaseUID", token.UID)
			return next(c)
		}
	}
}
