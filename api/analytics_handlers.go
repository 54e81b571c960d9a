package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler handles the request to get analytics data
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.analytics.GetDashboardData())
}

// HealthCheckHandler reports whether the dictionary loaded and how many entries it holds.
// A degraded service answers 200 with status "degraded".
func (api *API) HealthCheckHandler(c *gin.Context) {
	status := "healthy"
	body := gin.H{
		"service":             "dreamsense",
		"dictionary_entries":  api.retriever.EntryCount(),
		"degraded":            api.retriever.Degraded(),
		"interpreter_enabled": api.interpreter != nil,
		"timestamp":           fmt.Sprintf("%d", time.Now().Unix()),
	}
	if api.retriever.Degraded() {
		status = "degraded"
		if err := api.retriever.InitError(); err != nil {
			body["error"] = err.Error()
		}
	}
	body["status"] = status

	c.JSON(http.StatusOK, body)
}
