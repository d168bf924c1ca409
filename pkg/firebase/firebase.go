// Package firebase initializes the Firebase Admin SDK used by the firebase
// auth mode.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Config selects the service account and token checks.
type Config struct {
	CredentialsPath string
	// ProjectID overrides the project named in the credentials file.
	ProjectID string
	// CheckRevoked makes every verification consult Firebase for revoked
	// sessions and disabled accounts. It costs one network round trip.
	CheckRevoked bool
}

// App is an initialized Firebase app. It verifies ID tokens for the auth
// middleware.
type App struct {
	FirebaseApp  *firebase.App
	AuthClient   *auth.Client
	checkRevoked bool
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, cfg Config, logger *zap.Logger) (*App, error) {
	if cfg.CredentialsPath == "" {
		return nil, errors.New("firebase credentials path not provided")
	}
	if _, err := os.Stat(cfg.CredentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file %s: %w", cfg.CredentialsPath, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	firebaseApp, err := firebase.NewApp(ctx, appConfig, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Info("firebase auth client initialized",
		zap.String("project", cfg.ProjectID), zap.Bool("check_revoked", cfg.CheckRevoked))
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, checkRevoked: cfg.CheckRevoked}, nil
}

// VerifyIDToken checks an ID token's signature and claims.
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if a.checkRevoked {
		return a.AuthClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	}
	return a.AuthClient.VerifyIDToken(ctx, idToken)
}
