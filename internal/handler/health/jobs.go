package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dotflow/refill-backend/internal/monitoring"
)

// Jobs handles the background jobs health check endpoint
// @Summary Background jobs health check
// @Description Validates confirmation job status and performance
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} JobsHealthResponse
// @Failure 503 {object} JobsHealthResponse
// @Router /api/v1/health/jobs [get]
func (h *HealthHandler) Jobs(c *gin.Context) {
	start := time.Now()

	if h.jobStatusManager == nil {
		response := JobsHealthResponse{
			Status:     "unhealthy",
			Timestamp:  time.Now(),
			Jobs:       make(map[string]monitoring.JobStatus),
			Summary:    monitoring.JobsSummary{},
			DurationMs: time.Since(start).Milliseconds(),
		}
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	jobs := h.jobStatusManager.GetAllJobStatuses()
	summary := h.jobStatusManager.GetJobsSummary()

	// A stalled confirmation pass means watermarks stop advancing, so it is
	// always unhealthy. Repeated failures on a single chain only degrade.
	overallStatus := "healthy"
	if summary.StalledJobs > 0 {
		overallStatus = "unhealthy"
	} else if summary.UnhealthyJobs > 0 {
		persistentFailure := false
		for _, jobStatus := range jobs {
			if jobStatus.Status == monitoring.JobStatusFailed &&
				jobStatus.ConsecutiveFailures > 2 {
				persistentFailure = true
				break
			}
		}

		if persistentFailure {
			overallStatus = "unhealthy"
		} else {
			overallStatus = "degraded"
		}
	}

	response := JobsHealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Jobs:       jobs,
		Summary:    summary,
		DurationMs: time.Since(start).Milliseconds(),
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	} else if overallStatus == "degraded" {
		statusCode = http.StatusPartialContent
	}

	h.logger.Info("Jobs health check completed", map[string]string{
		"overall_status": overallStatus,
		"duration":       fmt.Sprintf("%dms", response.DurationMs),
		"total_jobs":     fmt.Sprintf("%d", summary.TotalJobs),
		"unhealthy_jobs": fmt.Sprintf("%d", summary.UnhealthyJobs),
		"stalled_jobs":   fmt.Sprintf("%d", summary.StalledJobs),
		"running_jobs":   fmt.Sprintf("%d", summary.RunningJobs),
	})

	c.JSON(statusCode, response)
}
