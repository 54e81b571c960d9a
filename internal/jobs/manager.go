// Package jobs runs dictionary maintenance work in the background and keeps
// track of its status so clients can poll for the outcome.
package jobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/model"
)

const (
	cleanupInterval = time.Hour
	finishedJobTTL  = 24 * time.Hour
)

// Func is the work of one job. It reports progress through the manager.
type Func func(ctx context.Context, job model.Job) error

// Manager handles background job execution and tracking
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	pool     *ants.Pool // Limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *Metrics
}

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int) (*Manager, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	pool, err := ants.NewPool(maxWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create job worker pool: %w", err)
	}
	return &Manager{
		jobs:     make(map[string]*model.Job),
		pool:     pool,
		stopChan: make(chan struct{}),
		metrics:  NewMetrics(),
	}, nil
}

// Start begins the background cleanup of finished jobs
func (m *Manager) Start() {
	log.Printf("Job manager started with %d max workers", m.pool.Cap())
	go m.cleanupRoutine()
}

// Stop waits for running jobs and shuts the manager down
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
		m.pool.Release()
		log.Printf("Job manager stopped")
	})
}

// CreateJob registers a pending job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, source string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Source:    source,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordCreated()
	log.Printf("Created job %s (type: %s) for source '%s'", job.ID, job.Type, job.Source)
	return job.ID
}

// Submit creates a job and starts it
func (m *Manager) Submit(jobType model.JobType, source string, fn Func) (string, error) {
	jobID := m.CreateJob(jobType, source, nil)
	if err := m.ExecuteJob(jobID, fn); err != nil {
		return jobID, err
	}
	return jobID, nil
}

// GetJob returns a copy of the job with the given ID
func (m *Manager) GetJob(jobID string) (model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return model.Job{}, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns all jobs, optionally filtered by status, newest first
func (m *Manager) ListJobs(status *model.JobStatus) []model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status == nil || job.Status == *status {
			result = append(result, copyJob(job))
		}
	}
	sortNewestFirst(result)
	return result
}

// ExecuteJob runs a pending job on the worker pool
func (m *Manager) ExecuteJob(jobID string, fn Func) error {
	select {
	case <-m.stopChan:
		m.updateJobStatus(jobID, model.JobStatusCancelled, "Job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	default:
	}

	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	job.Status = model.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	snapshot := copyJob(job)
	m.mu.Unlock()
	m.metrics.RecordStatusChange(model.JobStatusPending, model.JobStatusRunning)

	m.wg.Add(1)
	err := m.pool.Submit(func() {
		defer m.wg.Done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-m.stopChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		startTime := time.Now()
		err := m.run(ctx, snapshot, fn)
		executionTime := time.Since(startTime)

		// Counters are updated before the status so a finished job is always counted
		if err != nil {
			m.metrics.RecordFailed()
			m.updateJobStatus(jobID, model.JobStatusFailed, err.Error())
			log.Printf("Job %s failed after %v: %v", jobID, executionTime, err)
			return
		}
		m.metrics.RecordCompleted(executionTime)
		m.updateJobStatus(jobID, model.JobStatusCompleted, "")
		log.Printf("Job %s completed successfully in %v", jobID, executionTime)
	})
	if err != nil {
		m.wg.Done()
		m.updateJobStatus(jobID, model.JobStatusCancelled, err.Error())
		return fmt.Errorf("failed to schedule job %s: %w", jobID, err)
	}

	return nil
}

// run converts a panic in fn into a job failure
func (m *Manager) run(ctx context.Context, job model.Job, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx, job)
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if job.Finished() {
		now := time.Now()
		job.CompletedAt = &now
	}

	m.metrics.RecordStatusChange(oldStatus, status)
}

func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(finishedJobTTL)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Printf("Cleaned up %d old jobs", cleaned)
	}
	return cleaned
}

// Metrics returns current job metrics
func (m *Manager) Metrics() MetricsData {
	return m.metrics.Snapshot()
}

func copyJob(job *model.Job) model.Job {
	c := *job
	if job.Progress != nil {
		progress := *job.Progress
		c.Progress = &progress
	}
	return c
}

func sortNewestFirst(jobs []model.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
