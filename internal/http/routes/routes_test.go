package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/http/handlers"
	"github.com/phambaophuc/imgbatch/internal/models"
)

type fixedStats models.BatchSummary

func (s fixedStats) Snapshot() models.BatchSummary { return models.BatchSummary(s) }

type panickingStats struct{}

func (panickingStats) Snapshot() models.BatchSummary { panic("snapshot failed") }

func TestRouter_Routes(t *testing.T) {
	h := handlers.NewStatusHandler(fixedStats{BatchID: "b1", Discovered: 2, Succeeded: 2}, nil, zap.NewNop())
	engine := NewRouter(h, zap.NewNop()).SetupRoutes()

	for _, path := range []string{"/", "/health", "/api/v1/health", "/api/v1/stats"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RecoversFromHandlerPanic(t *testing.T) {
	h := handlers.NewStatusHandler(panickingStats{}, nil, zap.NewNop())
	engine := NewRouter(h, zap.NewNop()).SetupRoutes()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
}
