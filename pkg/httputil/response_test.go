package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondWithError(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		RespondWithError(c, apperrors.Upstream("Failed to load doctors", errors.New("boom")))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decode(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "Failed to load doctors", resp.Error.Message)
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		RespondWithError(c, errors.New("pq: secret detail"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decode(t, w).Error.Message)
	})
}

func TestRespondWithMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithMessage(c, http.StatusCreated, "Doctor added", gin.H{"id": "7"}, "Failed to load appointments")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Doctor added", resp.Message)
	assert.Equal(t, []string{"Failed to load appointments"}, resp.Notices)
}
