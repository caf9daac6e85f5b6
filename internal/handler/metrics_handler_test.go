package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
	})
	r := testEngine()
	r.GET("/ready", healthy.Ready)
	r.GET("/health", healthy.Health)

	rec := do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok"}}`, rec.Body.String())
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)

	failing := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	r = testEngine()
	r.GET("/ready", failing.Ready)
	rec = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsHandlerSnapshotAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordTransition(models.ProcedureStatusPending, models.ProcedureStatusApproved)
	h := NewMetricsHandler(metrics, nil)
	r := testEngine()
	r.GET("/admin/metrics", h.Snapshot)
	r.GET("/metrics", h.Prometheus)

	rec := do(r, http.MethodGet, "/admin/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.SystemMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, uint64(1), snapshot.Transitions["PENDIENTE->APROBADO"])

	rec = do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	unavailable := NewMetricsHandler(nil, nil)
	r = testEngine()
	r.GET("/metrics", unavailable.Prometheus)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/metrics", "").Code)
}
