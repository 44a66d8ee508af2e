package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Stat())
	router.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", Handler())

	before := testutil.ToFloat64(HttpRequests.WithLabelValues("GET", "/ping/:id", "200"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HttpRequests.WithLabelValues("GET", "/ping/:id", "200")))

	ObserveJob("completed", time.Now().Add(-time.Second))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "style_jobs_total"))
	assert.True(t, strings.Contains(body, "style_http_requests_total"))
}
