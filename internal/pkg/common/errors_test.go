package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomError(t *testing.T) {
	t.Run("should match by code", func(t *testing.T) {
		err := BadRequest("ingredients must not be empty")
		assert.True(t, errors.Is(err, ErrInvalidRequest))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("should unwrap cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := Upstream("model request failed", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "model request failed: boom", err.Error())
	})
}

func TestStatusAndDetail(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(BadRequest("bad")))
	assert.Equal(t, http.StatusBadGateway, StatusOf(fmt.Errorf("wrapped: %w", Upstream("x", nil))))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))

	assert.Equal(t, "failed to save", DetailOf(Internal("failed to save", errors.New("sql: secret detail"))))
	assert.Equal(t, "invalid file: too short", DetailOf(NewError(ErrCodeInvalidRequest, "invalid file", http.StatusBadRequest, errors.New("too short"))))
	assert.Equal(t, ErrInternalError.Message, DetailOf(errors.New("plain")))
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Respond(c, ErrUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not authenticated", body.Detail)
}

func TestTimeoutClassification(t *testing.T) {
	t.Run("should map deadline errors to 504", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", context.DeadlineExceeded)
		assert.Equal(t, http.StatusGatewayTimeout, StatusOf(err))
		assert.Equal(t, "gateway timeout", DetailOf(err))

		assert.Equal(t, http.StatusGatewayTimeout, StatusOf(Upstream("model request failed", context.DeadlineExceeded)))
		assert.Equal(t, http.StatusGatewayTimeout, StatusOf(Internal("failed to save", context.DeadlineExceeded)))
	})

	t.Run("should keep client errors caused by deadlines", func(t *testing.T) {
		err := NewError(ErrCodeInvalidRequest, "could not fetch image", http.StatusBadRequest, context.DeadlineExceeded)
		assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	})
}

func TestWithMessage(t *testing.T) {
	err := ErrConflict.WithMessage("username already registered")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.Equal(t, "username already registered", DetailOf(err))
	assert.Equal(t, "conflict", ErrConflict.Message)
}
