package monitoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/backend/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(collector *monitoring.Collector) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(collector.Middleware())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	router.GET("/items/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCollector_Middleware(t *testing.T) {
	collector := monitoring.NewCollector()
	router := newRouter(collector)

	get(router, "/ok")
	get(router, "/ok")
	get(router, "/items/1")
	get(router, "/items/2")
	get(router, "/nowhere")

	snapshot := collector.Snapshot()
	assert.Equal(t, int64(5), snapshot.RequestCount)
	assert.Equal(t, int64(0), snapshot.ActiveRequests)
	assert.Equal(t, int64(3), snapshot.ErrorCount)
	assert.Equal(t, int64(2), snapshot.StatusCodes["200"])
	assert.Equal(t, int64(3), snapshot.StatusCodes["404"])
	assert.Equal(t, int64(2), snapshot.Endpoints["GET /items/:id"])
	assert.Equal(t, int64(1), snapshot.Endpoints["GET unmatched"])
	assert.False(t, snapshot.LastRequest.IsZero())
}

func TestCollector_SnapshotIsACopy(t *testing.T) {
	collector := monitoring.NewCollector()
	router := newRouter(collector)
	get(router, "/ok")

	snapshot := collector.Snapshot()
	snapshot.StatusCodes["200"] = 100

	assert.Equal(t, int64(1), collector.Snapshot().StatusCodes["200"])
}

func TestCollector_Handler(t *testing.T) {
	collector := monitoring.NewCollector()
	router := newRouter(collector)
	router.GET("/metrics", collector.Handler(map[string]monitoring.StatsFunc{
		"database": func() map[string]interface{} {
			return map[string]interface{}{"open_connections": 1}
		},
	}))

	get(router, "/ok")
	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "application")
	assert.Contains(t, body, "system")

	database, ok := body["database"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), database["open_connections"])
}

func TestLivenessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", monitoring.LivenessHandler())

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var failure error
	router := gin.New()
	router.GET("/ready", monitoring.ReadinessHandler(func(ctx context.Context) error {
		return failure
	}, time.Second))

	w := get(router, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())

	failure = errors.New("database is locked")
	w = get(router, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not ready","error":"database is locked"}`, w.Body.String())
}
