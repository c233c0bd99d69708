package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareGeneratesAndPropagatesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	var ginValue, ctxValue string
	r.GET("/ping", func(c *gin.Context) {
		ginValue = Value(c)
		ctxValue = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.NotEmpty(t, ginValue)
	assert.Equal(t, ginValue, ctxValue)
	assert.Equal(t, ginValue, w.Header().Get("X-Request-ID"))
}

func TestMiddlewareKeepsInboundID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	var ctxValue string
	r.GET("/ping", func(c *gin.Context) {
		ctxValue = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", " inbound-42 ")
	r.ServeHTTP(w, req)

	assert.Equal(t, "inbound-42", ctxValue)
	assert.Equal(t, "inbound-42", w.Header().Get("X-Request-ID"))
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	assert.Empty(t, FromContext(req.Context()))
}
