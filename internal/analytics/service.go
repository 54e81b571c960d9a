package analytics

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gcbaptista/dreamsense/model"
)

const (
	maxEventsToKeep   = 10000 // Keep last 10k events for performance
	popularSymbolsTop = 10
	popularQueriesTop = 5
	trendThreshold    = 0.1
)

// DictionaryStatus reports the state of the retrieval service for the dashboard.
type DictionaryStatus interface {
	Degraded() bool
	EntryCount() int
}

// Service implements retrieval analytics tracking and reporting.
// Events are kept in memory and mirrored to an EventStore when one is attached.
type Service struct {
	mutex  sync.RWMutex
	events []model.RetrievalEvent
	status DictionaryStatus
	store  EventStore
	now    func() time.Time
}

// NewService creates a new analytics service
func NewService(status DictionaryStatus) *Service {
	return &Service{
		events: make([]model.RetrievalEvent, 0),
		status: status,
		now:    time.Now,
	}
}

// AttachStore loads the newest persisted events and mirrors every later event to store.
func (s *Service) AttachStore(store EventStore) error {
	events, err := store.LoadRecent(maxEventsToKeep)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(events, s.events...)
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	s.store = store
	return nil
}

// TrackRetrievalEvent records a new retrieval event.
// A zero Timestamp is set to the current time.
func (s *Service) TrackRetrievalEvent(event model.RetrievalEvent) {
	s.mutex.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events = append(s.events, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	store := s.store
	s.mutex.Unlock()

	if store != nil {
		if err := store.Append(event); err != nil {
			log.Printf("Warning: failed to persist analytics event: %v", err)
		}
	}
}

// EventCount returns the number of retained events.
func (s *Service) EventCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.events)
}

// GetDashboardData returns complete analytics dashboard data
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	last24hEvents := filterEventsByTimeRange(s.events, yesterday, now.Add(time.Nanosecond))
	prev24hEvents := filterEventsByTimeRange(s.events, yesterday.Add(-24*time.Hour), yesterday)
	lastWeekEvents := filterEventsByTimeRange(s.events, lastWeek, now.Add(time.Nanosecond))

	dashboard := model.AnalyticsDashboard{
		TotalRetrievals:          len(last24hEvents),
		RetrievalsChangePercent:  calculateChangePercent(len(last24hEvents), len(prev24hEvents)),
		AvgResponseTime:          calculateAvgResponseTime(last24hEvents),
		ResponseTimeChange:       calculateResponseTimeChange(last24hEvents, prev24hEvents),
		EmptyResultRate:          emptyResultRate(last24hEvents),
		AvgSymbolsPerRetrieval:   avgSymbols(last24hEvents),
		RetrievalPerformance24h:  hourlyPerformance(last24hEvents),
		PopularSymbols:           popularSymbols(lastWeekEvents),
		PopularQueries:           popularQueries(lastWeekEvents),
		ResponseTimeDistribution: responseTimeDistribution(last24hEvents),
	}
	if s.status != nil {
		dashboard.DictionaryEntries = s.status.EntryCount()
		dashboard.Degraded = s.status.Degraded()
	}

	return dashboard
}

// filterEventsByTimeRange returns events in [start, end)
func filterEventsByTimeRange(events []model.RetrievalEvent, start, end time.Time) []model.RetrievalEvent {
	var filtered []model.RetrievalEvent
	for _, event := range events {
		if !event.Timestamp.Before(start) && event.Timestamp.Before(end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// calculateChangePercent calculates percentage change between current and previous values
func calculateChangePercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100.0
}

// calculateAvgResponseTime calculates average response time for events in milliseconds
func calculateAvgResponseTime(events []model.RetrievalEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	return (total / time.Duration(len(events))).Milliseconds()
}

// calculateResponseTimeChange calculates response time change trend
func calculateResponseTimeChange(current, previous []model.RetrievalEvent) string {
	currentAvg := calculateAvgResponseTime(current)
	previousAvg := calculateAvgResponseTime(previous)

	if previousAvg == 0 {
		return "stable"
	}

	change := float64(currentAvg-previousAvg) / float64(previousAvg)
	if change > trendThreshold {
		return "up"
	} else if change < -trendThreshold {
		return "down"
	}
	return "stable"
}

func emptyResultRate(events []model.RetrievalEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	empty := 0
	for _, event := range events {
		if event.ResultCount == 0 {
			empty++
		}
	}
	return float64(empty) / float64(len(events)) * 100
}

func avgSymbols(events []model.RetrievalEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	total := 0
	for _, event := range events {
		total += event.ResultCount
	}
	return float64(total) / float64(len(events))
}

// hourlyPerformance returns one bucket per hour of the day
func hourlyPerformance(events []model.RetrievalEvent) []model.RetrievalPerformanceHourly {
	hourlyData := make(map[int][]model.RetrievalEvent)
	for _, event := range events {
		hour := event.Timestamp.Hour()
		hourlyData[hour] = append(hourlyData[hour], event)
	}

	performance := make([]model.RetrievalPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		bucket := hourlyData[hour]
		performance = append(performance, model.RetrievalPerformanceHourly{
			Hour:            hour,
			RetrievalCount:  len(bucket),
			AvgResponseTime: calculateAvgResponseTime(bucket),
		})
	}
	return performance
}

// popularSymbols counts returned terms, ties broken by term
func popularSymbols(events []model.RetrievalEvent) []model.PopularSymbol {
	counts := make(map[string]int)
	for _, event := range events {
		for _, term := range event.Symbols {
			counts[term]++
		}
	}

	symbols := make([]model.PopularSymbol, 0, len(counts))
	for term, count := range counts {
		symbols = append(symbols, model.PopularSymbol{Term: term, Count: count})
	}
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].Count != symbols[j].Count {
			return symbols[i].Count > symbols[j].Count
		}
		return symbols[i].Term < symbols[j].Term
	})

	if len(symbols) > popularSymbolsTop {
		symbols = symbols[:popularSymbolsTop]
	}
	return symbols
}

// popularQueries returns the most repeated dream texts
func popularQueries(events []model.RetrievalEvent) []model.PopularQuery {
	counts := make(map[string]int)
	for _, event := range events {
		if event.Query != "" {
			counts[event.Query]++
		}
	}

	queries := make([]model.PopularQuery, 0, len(counts))
	for query, count := range counts {
		queries = append(queries, model.PopularQuery{Query: query, SearchCount: count})
	}
	sort.Slice(queries, func(i, j int) bool {
		if queries[i].SearchCount != queries[j].SearchCount {
			return queries[i].SearchCount > queries[j].SearchCount
		}
		return queries[i].Query < queries[j].Query
	})

	if len(queries) > popularQueriesTop {
		queries = queries[:popularQueriesTop]
	}
	return queries
}

// responseTimeDistribution returns response time distribution
func responseTimeDistribution(events []model.RetrievalEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		ms := event.ResponseTime.Milliseconds()
		switch {
		case ms <= 25:
			dist.Bucket0To25ms++
		case ms <= 50:
			dist.Bucket25To50ms++
		case ms <= 100:
			dist.Bucket50To100ms++
		default:
			dist.Bucket100msPlus++
		}
	}

	dist.Percentage0To25 = float64(dist.Bucket0To25ms) / float64(total) * 100
	dist.Percentage25To50 = float64(dist.Bucket25To50ms) / float64(total) * 100
	dist.Percentage50To100 = float64(dist.Bucket50To100ms) / float64(total) * 100
	dist.Percentage100Plus = float64(dist.Bucket100msPlus) / float64(total) * 100

	return dist
}
