package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/dreamsense/config"
	"github.com/gcbaptista/dreamsense/internal/analytics"
	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/internal/jobs"
	"github.com/gcbaptista/dreamsense/model"
	"github.com/gcbaptista/dreamsense/services"
)

const (
	// symbolDetailsLimit is the number of runes of an entry's details returned per symbol
	symbolDetailsLimit = 100
	maxSuggestions     = 3

	welcomeMessage        = "Welcome to the Dream Interpreter API"
	generationFailedReply = "I apologize, but I'm having trouble interpreting your dream right now. Please try again in a moment."
)

// DreamRequest is the body of /interpret and /context.
type DreamRequest struct {
	DreamText string `json:"dream_text"`
}

// DreamSymbol is a retrieved entry as returned to clients.
type DreamSymbol struct {
	Term    string  `json:"term"`
	Details string  `json:"details"`
	Score   float64 `json:"score"`
}

// DreamResponse is the payload of /interpret.
type DreamResponse struct {
	Interpretation string        `json:"interpretation"`
	Symbols        []DreamSymbol `json:"symbols"`
	Error          string        `json:"error,omitempty"`
}

// ContextResponse is the payload of /context.
type ContextResponse struct {
	QueryID string        `json:"query_id"`
	Context string        `json:"context"`
	Symbols []DreamSymbol `json:"symbols"`
	Took    int64         `json:"took"` // milliseconds
}

// API holds dependencies for API handlers, primarily the retrieval service.
type API struct {
	retriever      services.Retriever
	interpreter    services.Interpreter
	reloader       services.Reloader
	jobs           *jobs.Manager
	analytics      *analytics.Service
	requestTimeout time.Duration
}

// Option configures an API.
type Option func(*API)

// WithInterpreter enables /interpret.
func WithInterpreter(interpreter services.Interpreter) Option {
	return func(a *API) {
		a.interpreter = interpreter
	}
}

// WithReloader enables background dictionary reloads run by manager.
func WithReloader(reloader services.Reloader, manager *jobs.Manager) Option {
	return func(a *API) {
		a.reloader = reloader
		a.jobs = manager
	}
}

// WithAnalytics replaces the default in-memory analytics service.
func WithAnalytics(service *analytics.Service) Option {
	return func(a *API) {
		if service != nil {
			a.analytics = service
		}
	}
}

// WithRequestTimeout bounds each interpretation request.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.requestTimeout = d
		}
	}
}

// NewAPI creates a new API handler structure.
func NewAPI(retriever services.Retriever, opts ...Option) *API {
	a := &API{
		retriever:      retriever,
		analytics:      analytics.NewService(retriever),
		requestTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetupRoutes defines all the API routes and installs the middleware enabled by settings.
func SetupRoutes(router *gin.Engine, retriever services.Retriever, settings config.ServerSettings, opts ...Option) *API {
	apiHandler := NewAPI(retriever, opts...)

	router.Use(RequestIDMiddleware(), CORSMiddleware())
	if settings.MaxBodyBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(settings.MaxBodyBytes))
	}
	if settings.RateLimit > 0 {
		router.Use(RateLimitMiddleware(settings.RateLimit, settings.RateBurst))
	}

	router.GET("/", apiHandler.RootHandler)
	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	router.POST("/interpret", apiHandler.InterpretHandler) // Retrieval + generation
	router.POST("/context", apiHandler.ContextHandler)     // Retrieval only
	router.GET("/symbols/:term", apiHandler.GetSymbolHandler)

	if apiHandler.reloader != nil && apiHandler.jobs != nil {
		router.POST("/dictionary/reload", apiHandler.ReloadDictionaryHandler)

		jobRoutes := router.Group("/jobs")
		{
			jobRoutes.GET("", apiHandler.ListJobsHandler)                // List reload jobs
			jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
			jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
		}
	}

	return apiHandler
}

// RootHandler greets clients.
func (api *API) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

// InterpretHandler retrieves dictionary context for a dream and asks the model to interpret it.
// Request Body: DreamRequest
func (api *API) InterpretHandler(c *gin.Context) {
	if api.interpreter == nil {
		SendModelNotInitializedError(c)
		return
	}

	req, ok := bindDreamRequest(c)
	if !ok {
		return
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), api.requestTimeout)
	defer cancel()

	result, err := api.interpreter.Interpret(ctx, req.DreamText)
	api.trackRetrieval(req.DreamText, "interpret", startTime, result.Entries)
	if err != nil {
		log.Printf("Warning: error generating interpretation: %v", err)
		c.JSON(http.StatusOK, gin.H{"data": DreamResponse{
			Interpretation: generationFailedReply,
			Symbols:        []DreamSymbol{},
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": DreamResponse{
		Interpretation: result.Interpretation,
		Symbols:        toSymbols(result.Entries),
	}})
}

// ContextHandler returns the rendered dictionary context and the ranked symbols for a dream.
// Request Body: DreamRequest
func (api *API) ContextHandler(c *gin.Context) {
	req, ok := bindDreamRequest(c)
	if !ok {
		return
	}

	startTime := time.Now()
	dictContext, entries := api.retriever.GenerateContext(req.DreamText)
	took := time.Since(startTime)
	api.trackRetrieval(req.DreamText, "context", startTime, entries)

	c.JSON(http.StatusOK, ContextResponse{
		QueryID: uuid.New().String(),
		Context: dictContext,
		Symbols: toSymbols(entries),
		Took:    took.Milliseconds(),
	})
}

// GetSymbolHandler returns one dictionary entry by term, case-insensitively.
func (api *API) GetSymbolHandler(c *gin.Context) {
	term := c.Param("term")
	if result := ValidateTerm(term); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	entry, err := api.retriever.Lookup(term)
	if err != nil {
		switch {
		case errors.Is(err, internalErrors.ErrEntryNotFound):
			SendEntryNotFoundError(c, term, api.retriever.Suggest(term, maxSuggestions)...)
		case errors.Is(err, internalErrors.ErrDegraded):
			SendDictionaryUnavailableError(c, api.retriever.InitError())
		default:
			SendInternalError(c, "symbol lookup", err)
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

func bindDreamRequest(c *gin.Context) (DreamRequest, bool) {
	var req DreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return req, false
	}
	if result := ValidateDreamText(req.DreamText); result.HasErrors() {
		SendValidationError(c, result)
		return req, false
	}
	return req, true
}

func (api *API) trackRetrieval(query, endpoint string, startTime time.Time, entries []model.RetrievedEntry) {
	symbols := make([]string, len(entries))
	for i, e := range entries {
		symbols[i] = e.Term
	}
	api.analytics.TrackRetrievalEvent(model.RetrievalEvent{
		Query:        query,
		Endpoint:     endpoint,
		ResponseTime: time.Since(startTime),
		ResultCount:  len(entries),
		Symbols:      symbols,
		Degraded:     api.retriever.Degraded(),
	})
}

func toSymbols(entries []model.RetrievedEntry) []DreamSymbol {
	symbols := make([]DreamSymbol, len(entries))
	for i, e := range entries {
		symbols[i] = DreamSymbol{
			Term:    e.Term,
			Details: truncateDetails(e.Details),
			Score:   e.Score,
		}
	}
	return symbols
}

func truncateDetails(details string) string {
	if utf8.RuneCountInString(details) <= symbolDetailsLimit {
		return details
	}
	return string([]rune(details)[:symbolDetailsLimit]) + "..."
}
