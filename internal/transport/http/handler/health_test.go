package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("rewear-api", "test", time.Now().Add(-time.Minute),
		DependencyCheck{Name: "mongo", Check: func(context.Context) error { return nil }},
		DependencyCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)
	router := gin.New()
	router.GET("/healthz", h.Check)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		UptimeSec    int `json:"uptime_sec"`
		Dependencies map[string]struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, body.UptimeSec, 60)
	assert.True(t, body.Dependencies["mongo"].OK)
	assert.False(t, body.Dependencies["redis"].OK)
	assert.Equal(t, "unavailable", body.Dependencies["redis"].Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
