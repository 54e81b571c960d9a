package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/dreamsense/model"
)

// MetricsData is a snapshot of job metrics safe for copying
type MetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	SuccessRate          float64                   `json:"success_rate"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// Metrics counts job outcomes
type Metrics struct {
	mu                 sync.RWMutex
	created            int64
	completed          int64
	failed             int64
	totalExecutionTime time.Duration
	byStatus           map[model.JobStatus]int64
	lastUpdated        time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		byStatus:    make(map[model.JobStatus]int64),
		lastUpdated: time.Now(),
	}
}

// RecordCreated counts a new pending job
func (m *Metrics) RecordCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	m.byStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
}

// RecordStatusChange moves one job between status counters
func (m *Metrics) RecordStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.byStatus[oldStatus] > 0 {
		m.byStatus[oldStatus]--
	}
	m.byStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordCompleted records a successful job and its duration
func (m *Metrics) RecordCompleted(executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	m.totalExecutionTime += executionTime
	m.lastUpdated = time.Now()
}

// RecordFailed records a failed job
func (m *Metrics) RecordFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed++
	m.lastUpdated = time.Now()
}

// Snapshot returns a copy of the current metrics
func (m *Metrics) Snapshot() MetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byStatus := make(map[model.JobStatus]int64, len(m.byStatus))
	for k, v := range m.byStatus {
		byStatus[k] = v
	}

	data := MetricsData{
		JobsCreated:   m.created,
		JobsCompleted: m.completed,
		JobsFailed:    m.failed,
		JobsByStatus:  byStatus,
		SuccessRate:   1.0, // No finished jobs yet
		LastUpdated:   m.lastUpdated,
	}
	if m.completed > 0 {
		data.AverageExecutionTime = m.totalExecutionTime / time.Duration(m.completed)
	}
	if finished := m.completed + m.failed; finished > 0 {
		data.SuccessRate = float64(m.completed) / float64(finished)
	}
	return data
}
