package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotflow/refill-backend/internal/monitoring"
	"github.com/dotflow/refill-backend/internal/types/environments"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

func newJobStatusManager() *monitoring.JobStatusManager {
	return monitoring.NewJobStatusManager(logger.New(environments.Test), monitoring.NewJobMetrics())
}

func TestBasic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(&config.AppConfig{}, logger.New(environments.Test), nil, nil, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Basic(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
}

func TestDatabaseUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(&config.AppConfig{}, logger.New(environments.Test), nil, nil, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Database(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unhealthy", resp.Checks["database"].Status)
}

func TestJobsHealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jsm := newJobStatusManager()
	jsm.RegisterJob("hydration_confirmation")
	jsm.StartJob("hydration_confirmation")
	jsm.CompleteJob("hydration_confirmation", nil)

	h := New(&config.AppConfig{}, logger.New(environments.Test), nil, nil, nil, jsm)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Jobs(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp JobsHealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 1, resp.Summary.TotalJobs)
	assert.Equal(t, 1, resp.Summary.HealthyJobs)
}

func TestJobsSingleFailureDegrades(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jsm := newJobStatusManager()
	jsm.RegisterJob("astar_confirmation")
	jsm.StartJob("astar_confirmation")
	jsm.CompleteJob("astar_confirmation", errors.New("indexer unavailable"))

	h := New(&config.AppConfig{}, logger.New(environments.Test), nil, nil, nil, jsm)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Jobs(c)

	require.Equal(t, http.StatusPartialContent, w.Code)

	var resp JobsHealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestJobsPersistentFailureUnhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jsm := newJobStatusManager()
	jsm.RegisterJob("astar_confirmation")
	for i := 0; i < 3; i++ {
		jsm.StartJob("astar_confirmation")
		jsm.CompleteJob("astar_confirmation", errors.New("indexer unavailable"))
	}

	h := New(&config.AppConfig{}, logger.New(environments.Test), nil, nil, nil, jsm)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Jobs(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp JobsHealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
}

func TestJobsManagerMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(&config.AppConfig{}, logger.New(environments.Test), nil, nil, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Jobs(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
