package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SchedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	SchedulerErrorTypeLock             = "lock"
	SchedulerErrorTypeUnknown          = "unknown"
)

const (
	WarmupOutcomeComputed = "computed"
	WarmupOutcomeFailed   = "failed"
)

// SchedulerMetrics captures preview warm-up job health.
type SchedulerMetrics struct {
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobTimeouts  *prometheus.CounterVec
	jobErrors    *prometheus.CounterVec
	jobSkipped   *prometheus.CounterVec
	warmedClient *prometheus.CounterVec
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest resets the scheduler metrics singleton for tests.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceLabel(cfg),
		"env":     environment,
	}

	m := &SchedulerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tidybill_scheduler_job_runs_total",
			Help:        "Scheduler job executions.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "tidybill_scheduler_job_duration_seconds",
			Help:        "Scheduler job duration.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tidybill_scheduler_job_timeouts_total",
			Help:        "Scheduler jobs that hit their deadline.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tidybill_scheduler_job_errors_total",
			Help:        "Scheduler job failures by error type.",
			ConstLabels: constLabels,
		}, []string{"job", "error_type"}),
		jobSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tidybill_scheduler_job_skipped_total",
			Help:        "Scheduler jobs skipped because another replica holds the lock.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		warmedClient: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tidybill_scheduler_previews_warmed_total",
			Help:        "Client previews processed by the warm-up job.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
	}

	m.jobRuns = registerCollector(registerer, m.jobRuns)
	m.jobDuration = registerCollector(registerer, m.jobDuration)
	m.jobTimeouts = registerCollector(registerer, m.jobTimeouts)
	m.jobErrors = registerCollector(registerer, m.jobErrors)
	m.jobSkipped = registerCollector(registerer, m.jobSkipped)
	m.warmedClient = registerCollector(registerer, m.warmedClient)
	return m
}

func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return collector
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySchedulerError(err)).Inc()
}

func (m *SchedulerMetrics) IncJobSkipped(job string) {
	if m == nil {
		return
	}
	m.jobSkipped.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncWarmed(outcome string) {
	if m == nil {
		return
	}
	m.warmedClient.WithLabelValues(outcome).Inc()
}

// ErrLockUnavailable marks failures to talk to the distributed lock backend.
var ErrLockUnavailable = errors.New("lock_unavailable")

// ClassifySchedulerError maps a job error to a low-cardinality label.
func ClassifySchedulerError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SchedulerErrorTypeDeadlineExceeded
	case errors.Is(err, ErrLockUnavailable):
		return SchedulerErrorTypeLock
	default:
		return SchedulerErrorTypeUnknown
	}
}
