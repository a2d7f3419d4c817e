package monitoring

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dotflow/refill-backend/internal/utils/logger"
)

// JobExecutionStatus represents different job execution states
type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
	JobStatusStalled JobExecutionStatus = "stalled"
)

// JobStatus contains status information for one confirmation job
type JobStatus struct {
	JobName             string             `json:"job_name"`
	Status              JobExecutionStatus `json:"status"`
	LastRunTime         time.Time          `json:"last_run_time"`
	LastDuration        time.Duration      `json:"last_duration_ms"`
	SuccessCount        int64              `json:"success_count"`
	FailureCount        int64              `json:"failure_count"`
	ConsecutiveFailures int64              `json:"consecutive_failures"`
	LastError           string             `json:"last_error,omitempty"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// JobStatusManager tracks confirmation job health with thread-safe access
type JobStatusManager struct {
	mu               sync.RWMutex
	statuses         map[string]*JobStatus
	logger           *logger.Logger
	metrics          *JobMetrics
	stalledThreshold time.Duration
}

func NewJobStatusManager(logger *logger.Logger, metrics *JobMetrics) *JobStatusManager {
	return &JobStatusManager{
		statuses:         make(map[string]*JobStatus),
		logger:           logger,
		metrics:          metrics,
		stalledThreshold: 5 * time.Minute,
	}
}

// RegisterJob registers a new job for monitoring
func (jsm *JobStatusManager) RegisterJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if _, exists := jsm.statuses[jobName]; !exists {
		jsm.statuses[jobName] = &JobStatus{
			JobName:   jobName,
			Status:    JobStatusPending,
			UpdatedAt: time.Now(),
		}
	}
}

// StartJob marks a job as started
func (jsm *JobStatusManager) StartJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		status = &JobStatus{JobName: jobName}
		jsm.statuses[jobName] = status
	}
	status.Status = JobStatusRunning
	status.LastRunTime = time.Now()
	status.UpdatedAt = time.Now()

	jsm.metrics.activeJobs.Inc()
}

// CompleteJob records the outcome of a run
func (jsm *JobStatusManager) CompleteJob(jobName string, err error) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		jsm.logger.Error("Attempted to complete unregistered job", map[string]string{
			"job_name": jobName,
		})
		return
	}

	duration := time.Since(status.LastRunTime)
	status.LastDuration = duration
	status.UpdatedAt = time.Now()

	if err != nil {
		status.Status = JobStatusFailed
		status.FailureCount++
		status.ConsecutiveFailures++
		status.LastError = err.Error()

		jsm.metrics.jobRuns.WithLabelValues(jobName, "error").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "failed").Observe(duration.Seconds())

		jsm.logger.Error("Job failed", map[string]string{
			"job_name":             jobName,
			"duration":             duration.String(),
			"error":                err.Error(),
			"consecutive_failures": fmt.Sprintf("%d", status.ConsecutiveFailures),
		})
	} else {
		status.Status = JobStatusSuccess
		status.SuccessCount++
		status.ConsecutiveFailures = 0
		status.LastError = ""

		jsm.metrics.jobRuns.WithLabelValues(jobName, "success").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "success").Observe(duration.Seconds())
	}

	jsm.metrics.activeJobs.Dec()
}

// GetAllJobStatuses returns a copy of every tracked status. Jobs running
// past the stalled threshold are reported as stalled.
func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	result := make(map[string]JobStatus, len(jsm.statuses))
	now := time.Now()
	for name, status := range jsm.statuses {
		statusCopy := *status
		if status.Status == JobStatusRunning && now.Sub(status.LastRunTime) > jsm.stalledThreshold {
			statusCopy.Status = JobStatusStalled
		}
		result[name] = statusCopy
	}
	return result
}

// JobsSummary aggregates job health counts for health endpoints
type JobsSummary struct {
	TotalJobs     int `json:"total_jobs"`
	HealthyJobs   int `json:"healthy_jobs"`
	UnhealthyJobs int `json:"unhealthy_jobs"`
	StalledJobs   int `json:"stalled_jobs"`
	RunningJobs   int `json:"running_jobs"`
}

// GetJobsSummary returns aggregate counts over all tracked jobs
func (jsm *JobStatusManager) GetJobsSummary() JobsSummary {
	statuses := jsm.GetAllJobStatuses()

	summary := JobsSummary{TotalJobs: len(statuses)}
	for _, status := range statuses {
		switch status.Status {
		case JobStatusFailed:
			summary.UnhealthyJobs++
		case JobStatusStalled:
			summary.StalledJobs++
		case JobStatusRunning:
			summary.RunningJobs++
		default:
			summary.HealthyJobs++
		}
	}
	return summary
}

// InstrumentedJob wraps a confirmation pass with monitoring, a timeout and
// panic recovery. The timeout is delivered through the context so the pass
// can abandon its range without committing a partial view.
type InstrumentedJob struct {
	jobName       string
	jobFunc       func(ctx context.Context) error
	statusManager *JobStatusManager
	logger        *logger.Logger
	timeout       time.Duration
}

func NewInstrumentedJob(
	jobName string,
	jobFunc func(ctx context.Context) error,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
) *InstrumentedJob {
	statusManager.RegisterJob(jobName)

	return &InstrumentedJob{
		jobName:       jobName,
		jobFunc:       jobFunc,
		statusManager: statusManager,
		logger:        logger,
		timeout:       timeout,
	}
}

// Execute runs the job once.
func (ij *InstrumentedJob) Execute() {
	ij.statusManager.StartJob(ij.jobName)

	ctx, cancel := context.WithTimeout(context.Background(), ij.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ij.logger.Error("Job panicked", map[string]string{
					"job_name": ij.jobName,
					"panic":    fmt.Sprintf("%v", r),
					"stack":    string(debug.Stack()),
				})
				done <- fmt.Errorf("job panicked: %v", r)
			}
		}()
		done <- ij.jobFunc(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		ij.statusManager.metrics.jobTimeouts.WithLabelValues(ij.jobName).Inc()
		err = fmt.Errorf("job timeout after %v", ij.timeout)
	}

	ij.statusManager.CompleteJob(ij.jobName, err)
}

// JobMetrics contains the Prometheus metrics for confirmation jobs
type JobMetrics struct {
	jobDuration *prometheus.HistogramVec
	jobRuns     *prometheus.CounterVec
	activeJobs  prometheus.Gauge
	jobTimeouts *prometheus.CounterVec
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "refill_backend_confirmation_job_duration_seconds",
				Help:    "Confirmation job execution duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 600},
			},
			[]string{"job_name", "status"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refill_backend_confirmation_job_runs_total",
				Help: "Total number of confirmation job runs",
			},
			[]string{"job_name", "status"},
		),
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "refill_backend_confirmation_jobs_active",
				Help: "Number of currently running confirmation jobs",
			},
		),
		jobTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refill_backend_confirmation_job_timeouts_total",
				Help: "Total confirmation job timeouts",
			},
			[]string{"job_name"},
		),
	}
}

// MustRegister registers all job metrics with the provided registry
func (m *JobMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.jobDuration,
		m.jobRuns,
		m.activeJobs,
		m.jobTimeouts,
	)
}
