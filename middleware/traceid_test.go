package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceRouter() *gin.Engine {
	r := gin.New()
	r.Use(TraceID())
	r.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, GetTraceID(c))
	})
	return r
}

func TestTraceID_MintsUUID(t *testing.T) {
	r := traceRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
	require.Equal(t, http.StatusOK, w.Code)

	id := w.Body.String()
	_, err := uuid.Parse(id)
	require.NoError(t, err, "generated trace ID should be a UUID")
	assert.Equal(t, id, w.Header().Get(TraceIDHeader))
}

func TestTraceID_HonorsCallerID(t *testing.T) {
	r := traceRouter()
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(TraceIDHeader, "battle-debug-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "battle-debug-1", w.Body.String())
	assert.Equal(t, "battle-debug-1", w.Header().Get(TraceIDHeader))
}

func TestTraceID_FreshPerRequest(t *testing.T) {
	r := traceRouter()
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/echo", nil))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/echo", nil))

	assert.NotEqual(t, w1.Body.String(), w2.Body.String())
}

func TestGetTraceID_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetTraceID(c))
}
