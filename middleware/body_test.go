package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(limit int64, handlerRan *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/", BodySizeLimiter(limit), func(c *gin.Context) {
		*handlerRan = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router
}

func TestBodySizeLimiterRejectsDeclaredOversize(t *testing.T) {
	handlerRan := false
	router := newLimitedRouter(10, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 100)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	// The chain must stop here: no handler run, no second body appended
	assert.False(t, handlerRan)
	assert.JSONEq(t, `{"error":"Request body size exceeds limit"}`, w.Body.String())
}

func TestBodySizeLimiterAllowsSmallBody(t *testing.T) {
	handlerRan := false
	router := newLimitedRouter(10, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("tiny")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerRan)
}
