package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newErrorRouter(production bool, handlerErr error) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(production))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(handlerErr)
	})
	return r
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandlerMapsApiError(t *testing.T) {
	r := newErrorRouter(false, utils.NotFound("Channel not found"))
	w := performRequest(r, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Channel not found", resp.Message)
	assert.Empty(t, resp.Stack)
}

func TestErrorHandlerNormalizesUnknownError(t *testing.T) {
	r := newErrorRouter(false, errors.New("pipe broke"))
	w := performRequest(r, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, "Some unknown error occurred", resp.Message)
	assert.Equal(t, "pipe broke", resp.Stack, "cause visible outside production")
}

func TestErrorHandlerHidesStackInProduction(t *testing.T) {
	r := newErrorRouter(true, utils.Internal("database fault", errors.New("conn refused")))
	w := performRequest(r, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeErrorResponse(t, w)
	assert.Equal(t, "database fault", resp.Message)
	assert.Empty(t, resp.Stack)
}

func TestErrorHandlerPassesCleanRequests(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(false))
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	w := performRequest(r, http.MethodGet, "/ok")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}
