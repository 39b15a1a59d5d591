package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskboard/backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, values map[string]string) {
	for key, value := range values {
		t.Setenv(key, value)
	}
}

func loadTestConfig(t *testing.T, extra map[string]string) *config.Config {
	gin.SetMode(gin.TestMode)

	env := map[string]string{
		"ENVIRONMENT": "development",
		"DB_DRIVER":   "sqlite",
		"DB_PATH":     filepath.Join(t.TempDir(), "app.db"),
		"BCRYPT_COST": "4",
	}
	for key, value := range extra {
		env[key] = value
	}
	setEnv(t, env)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestApplicationStartup(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"RATE_LIMIT_ENABLED": "false"})

	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.close()

	assert.Nil(t, a.redis)
	assert.Nil(t, a.worker)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/health", nil)
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApplicationWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	cfg := loadTestConfig(t, map[string]string{
		"REDIS_ENABLED":        "true",
		"REDIS_HOST":           host,
		"REDIS_PORT":           port,
		"WORKER_QUEUE":         "test-notifications",
		"WORKER_CONCURRENCY":   "1",
		"WORKER_POLL_INTERVAL": "1s",
	})

	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.close()
	require.NotNil(t, a.worker)

	post := func(path, body string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("POST", path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusCreated, post("/api/users", `{"username":"lead","email":"l@example.com","full_name":"L","role":"lead"}`).Code)
	require.Equal(t, http.StatusCreated, post("/api/users", `{"username":"member","email":"m@example.com","full_name":"M"}`).Code)

	w := post("/api/tasks/assign", `{"title":"T","assigned_to":2,"assigned_by":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The worker drains the published job.
	assert.Eventually(t, func() bool {
		return !mr.Exists("test-notifications")
	}, 5*time.Second, 50*time.Millisecond)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var metrics map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Contains(t, metrics, "notifications")
}

func TestApplicationRedisUnavailable(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{
		"REDIS_ENABLED":      "true",
		"REDIS_HOST":         "127.0.0.1",
		"REDIS_PORT":         "1",
		"REDIS_DIAL_TIMEOUT": "200ms",
		"REDIS_MAX_RETRIES":  "0",
	})

	_, err := newApp(cfg)
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg := loadTestConfig(t, map[string]string{
		"HOST":             "127.0.0.1",
		"PORT":             fmt.Sprint(port),
		"SHUTDOWN_TIMEOUT": "2s",
	})

	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	setEnv(t, map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": ""})

	_, err := config.LoadConfig()
	assert.Error(t, err)
}
