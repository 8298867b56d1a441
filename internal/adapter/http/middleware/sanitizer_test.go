package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyEcho() *gin.Engine {
	r := gin.New()
	r.Use(MaxBodySize(64))
	r.POST("/api/v1/orders/1/deliver", func(c *gin.Context) {
		var req struct {
			DeliverableRef string `json:"deliverable_ref"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, req.DeliverableRef)
	})
	return r
}

func TestMaxBodySize_WithinLimit(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/deliver",
		strings.NewReader(`{"deliverable_ref":"ipfs://bafy"}`))
	bodyEcho().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ipfs://bafy", w.Body.String())
}

func TestMaxBodySize_Exceeded(t *testing.T) {
	w := httptest.NewRecorder()
	body := `{"deliverable_ref":"` + strings.Repeat("A", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/deliver", strings.NewReader(body))
	bodyEcho().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQ_002")
}

func TestMaxBodySize_ChunkedExceeded(t *testing.T) {
	w := httptest.NewRecorder()
	body := `{"deliverable_ref":"` + strings.Repeat("A", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/deliver", strings.NewReader(body))
	req.ContentLength = -1
	bodyEcho().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "too large", w.Body.String())
}
