package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/model"
)

// ReloadDictionaryHandler starts a background reload of the dictionary and returns the job ID.
// Queries keep being served by the current dictionary until the reload succeeds.
func (api *API) ReloadDictionaryHandler(c *gin.Context) {
	jobID, err := api.jobs.Submit(model.JobTypeReloadDictionary, api.reloader.Source(),
		func(ctx context.Context, job model.Job) error {
			api.jobs.UpdateJobProgress(job.ID, 0, 1, "Loading dictionary")
			count, err := api.reloader.Reload()
			if err != nil {
				return err
			}
			api.jobs.UpdateJobProgress(job.ID, 1, 1, "Loaded "+strconv.Itoa(count)+" entries")
			return nil
		})
	if err != nil {
		SendInternalError(c, "dictionary reload", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Dictionary reload started for '" + api.reloader.Source() + "'",
		"job_id":  jobID,
	})
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists reload jobs, optionally filtered by ?status=
func (api *API) ListJobsHandler(c *gin.Context) {
	var statusFilter *model.JobStatus
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobs := api.jobs.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": api.jobs.Metrics()})
}
