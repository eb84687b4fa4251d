package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger func(ctx context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func newEngine(checks map[string]Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
	reg.MustRegister(counter)
	counter.Inc()

	engine := gin.New()
	NewHandler(reg, checks).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	ok := pinger(func(context.Context) error { return nil })
	engine := newEngine(map[string]Pinger{"datastore": ok})

	w := get(engine, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	bad := pinger(func(context.Context) error { return errors.New("connection refused") })
	engine = newEngine(map[string]Pinger{"datastore": ok, "redis": bad})

	w = get(engine, "/api/v1/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DOWN", body.Status)
	assert.Equal(t, map[string]string{"redis": "connection refused"}, body.Checks)
}

func TestLivenessAndMetrics(t *testing.T) {
	engine := newEngine(nil)

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/live").Code)

	w := get(engine, "/api/v1/health/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "probe_total 1"))
}
