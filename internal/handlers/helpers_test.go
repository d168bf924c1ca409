package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{models.NewNotFoundError("post", "x"), http.StatusNotFound},
		{models.NewValidationError("bad"), http.StatusBadRequest},
		{models.NewAlreadyAppliedError("again"), http.StatusBadRequest},
		{models.NewNotAppliedError("never"), http.StatusBadRequest},
		{models.NewSelfActionError("self"), http.StatusBadRequest},
		{models.NewForbiddenError("no"), http.StatusForbidden},
		{models.NewUnauthorizedError("who"), http.StatusUnauthorized},
		{models.NewInternalError(errors.New("db")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", models.NewForbiddenError("no")), http.StatusForbidden},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func renderError(t *testing.T, method string, err error) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)
	HTTPErrorHandler(zap.NewNop())(err, c)

	var body errorBody
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHTTPErrorHandler(t *testing.T) {
	t.Run("app error keeps its message", func(t *testing.T) {
		rec, body := renderError(t, http.MethodPost, models.NewAlreadyAppliedError("post already liked"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, body.Success)
		assert.Equal(t, "post already liked", body.Error)
		assert.Equal(t, models.CodeAlreadyApplied, body.Code)
	})

	t.Run("internal details are hidden", func(t *testing.T) {
		rec, body := renderError(t, http.MethodGet, errors.New("mongo: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body.Error)
		assert.Equal(t, models.CodeInternal, body.Code)
	})

	t.Run("echo http errors map to codes", func(t *testing.T) {
		rec, body := renderError(t, http.MethodGet, echo.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, models.CodeNotFound, body.Code)

		rec, body = renderError(t, http.MethodGet, echo.NewHTTPError(http.StatusServiceUnavailable, "realtime hub is not running"))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "realtime hub is not running", body.Error)
		assert.Equal(t, "HTTP_ERROR", body.Code)
	})

	t.Run("head has no body", func(t *testing.T) {
		rec, _ := renderError(t, http.MethodHead, models.NewNotFoundError("post", "x"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int64
		wantLimit int64
	}{
		{"", 1, 10},
		{"page=3&limit=5", 3, 5},
		{"page=0&limit=0", 1, 10},
		{"page=-2&limit=500", 1, 50},
		{"page=abc&limit=xyz", 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), httptest.NewRecorder())
			page, limit := pagination(c, 10, 50)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestParseOptionalObjectID(t *testing.T) {
	id, err := parseOptionalObjectID("", "recipientId")
	require.NoError(t, err)
	assert.True(t, id.IsZero())

	_, err = parseOptionalObjectID("nope", "recipientId")
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, "recipientId must be a valid id", err.Error())
}
