package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/canvas-social/backend/internal/middleware"
	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func getUserIDFromContext(c echo.Context) (primitive.ObjectID, error) {
	raw, ok := c.Get(middleware.UserIDKey).(string)
	if !ok || raw == "" {
		return primitive.NilObjectID, models.NewUnauthorizedError("authentication required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.NewUnauthorizedError("invalid user identity")
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func parseObjectID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.NewValidationError(field + " must be a valid id")
	}
	return id, nil
}

// parseOptionalObjectID returns NilObjectID for an empty value.
func parseOptionalObjectID(raw, field string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	return parseObjectID(raw, field)
}

// pagination reads page and limit query params with defaults and caps.
func pagination(c echo.Context, defaultLimit, maxLimit int64) (page, limit int64) {
	page, _ = strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// StatusFor maps an application error code to its HTTP status.
func StatusFor(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeValidation, models.CodeAlreadyApplied, models.CodeNotApplied, models.CodeSelfAction:
		return http.StatusBadRequest
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders every error as {"success":false,"error":...,"code":...}.
// Internal errors are logged and their details withheld from the client.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		code := models.CodeInternal
		message := "Internal server error"

		var appErr *models.AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = StatusFor(appErr)
			code = appErr.Code
			if status != http.StatusInternalServerError {
				message = appErr.Message
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			code = codeForStatus(status)
			if m, ok := httpErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, echo.Map{"success": false, "error": message, "code": code})
		}
		if werr != nil {
			logger.Warn("failed to write error response", zap.Error(werr))
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return models.CodeNotFound
	case http.StatusBadRequest:
		return models.CodeValidation
	case http.StatusUnauthorized:
		return models.CodeUnauthorized
	case http.StatusForbidden:
		return models.CodeForbidden
	case http.StatusInternalServerError:
		return models.CodeInternal
	default:
		return "HTTP_ERROR"
	}
}
