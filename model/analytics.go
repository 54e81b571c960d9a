package model

import "time"

// RetrievalEvent represents a single context retrieval for analytics tracking
type RetrievalEvent struct {
	Query        string        `json:"query"`
	Endpoint     string        `json:"endpoint"` // "context", "interpret"
	ResponseTime time.Duration `json:"response_time"`
	ResultCount  int           `json:"result_count"`
	Symbols      []string      `json:"symbols"` // Terms returned, in rank order
	Degraded     bool          `json:"degraded"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularSymbol represents how often a dictionary term was returned
type PopularSymbol struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// PopularQuery represents aggregated data for repeated dream texts
type PopularQuery struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To25ms     int     `json:"bucket_0_25ms"`
	Bucket25To50ms    int     `json:"bucket_25_50ms"`
	Bucket50To100ms   int     `json:"bucket_50_100ms"`
	Bucket100msPlus   int     `json:"bucket_100ms_plus"`
	Percentage0To25   float64 `json:"percentage_0_25"`
	Percentage25To50  float64 `json:"percentage_25_50"`
	Percentage50To100 float64 `json:"percentage_50_100"`
	Percentage100Plus float64 `json:"percentage_100_plus"`
}

// RetrievalPerformanceHourly represents hourly retrieval performance data
type RetrievalPerformanceHourly struct {
	Hour            int   `json:"hour"`
	RetrievalCount  int   `json:"retrieval_count"`
	AvgResponseTime int64 `json:"avg_response_time"` // in milliseconds
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	// Summary metrics (last 24h)
	TotalRetrievals         int     `json:"total_retrievals"`
	RetrievalsChangePercent float64 `json:"retrievals_change_percent"`
	AvgResponseTime         int64   `json:"avg_response_time"` // in milliseconds
	ResponseTimeChange      string  `json:"response_time_change"`
	EmptyResultRate         float64 `json:"empty_result_rate"` // percentage of retrievals with no symbols
	AvgSymbolsPerRetrieval  float64 `json:"avg_symbols_per_retrieval"`
	DictionaryEntries       int     `json:"dictionary_entries"`
	Degraded                bool    `json:"degraded"`

	// Detailed analytics
	RetrievalPerformance24h  []RetrievalPerformanceHourly `json:"retrieval_performance_24h"`
	PopularSymbols           []PopularSymbol              `json:"popular_symbols"`
	PopularQueries           []PopularQuery               `json:"popular_queries"`
	ResponseTimeDistribution ResponseTimeDistribution     `json:"response_time_distribution"`
}
