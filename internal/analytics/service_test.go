package analytics

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/gcbaptista/dreamsense/model"
)

// mockStatus is a simple mock for testing
type mockStatus struct {
	degraded bool
	entries  int
}

func (m *mockStatus) Degraded() bool  { return m.degraded }
func (m *mockStatus) EntryCount() int { return m.entries }

func newTestService(now time.Time) *Service {
	service := NewService(&mockStatus{entries: 42})
	service.now = func() time.Time { return now }
	return service
}

func TestAnalyticsService_TrackRetrievalEvent(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	service := newTestService(now)

	service.TrackRetrievalEvent(model.RetrievalEvent{
		Query:        "I saw a snake",
		Endpoint:     "context",
		ResponseTime: 5 * time.Millisecond,
		ResultCount:  1,
		Symbols:      []string{"Snake"},
	})

	if service.EventCount() != 1 {
		t.Fatalf("Expected 1 event, got %d", service.EventCount())
	}
	if !service.events[0].Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, service.events[0].Timestamp)
	}
}

func TestAnalyticsService_EventCap(t *testing.T) {
	service := newTestService(time.Now())
	for i := 0; i < maxEventsToKeep+5; i++ {
		service.TrackRetrievalEvent(model.RetrievalEvent{Query: fmt.Sprintf("q%d", i)})
	}

	if service.EventCount() != maxEventsToKeep {
		t.Fatalf("Expected %d events, got %d", maxEventsToKeep, service.EventCount())
	}
	if service.events[0].Query != "q5" {
		t.Errorf("Expected oldest events to be dropped, first is %s", service.events[0].Query)
	}
}

func TestAnalyticsService_GetDashboardData(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	service := newTestService(now)

	events := []model.RetrievalEvent{
		{Query: "snake dream", ResponseTime: 10 * time.Millisecond, ResultCount: 2, Symbols: []string{"Snake", "Water"}, Timestamp: now.Add(-1 * time.Hour)},
		{Query: "snake dream", ResponseTime: 30 * time.Millisecond, ResultCount: 1, Symbols: []string{"Snake"}, Timestamp: now.Add(-2 * time.Hour)},
		{Query: "nothing", ResponseTime: 200 * time.Millisecond, ResultCount: 0, Timestamp: now.Add(-3 * time.Hour)},
		{Query: "old", ResponseTime: 10 * time.Millisecond, ResultCount: 1, Symbols: []string{"Tower"}, Timestamp: now.Add(-30 * time.Hour)},
	}
	for _, event := range events {
		service.TrackRetrievalEvent(event)
	}

	dashboard := service.GetDashboardData()

	if dashboard.TotalRetrievals != 3 {
		t.Errorf("Expected 3 retrievals in the last 24h, got %d", dashboard.TotalRetrievals)
	}
	if dashboard.RetrievalsChangePercent != 200 {
		t.Errorf("Expected 200%% change, got %f", dashboard.RetrievalsChangePercent)
	}
	if dashboard.AvgResponseTime != 80 {
		t.Errorf("Expected 80ms average, got %d", dashboard.AvgResponseTime)
	}
	if dashboard.ResponseTimeChange != "up" {
		t.Errorf("Expected response time trend 'up', got %s", dashboard.ResponseTimeChange)
	}
	if math.Abs(dashboard.EmptyResultRate-100.0/3) > 1e-9 {
		t.Errorf("Expected empty result rate 33.3%%, got %f", dashboard.EmptyResultRate)
	}
	if dashboard.AvgSymbolsPerRetrieval != 1 {
		t.Errorf("Expected 1 symbol per retrieval, got %f", dashboard.AvgSymbolsPerRetrieval)
	}
	if dashboard.DictionaryEntries != 42 || dashboard.Degraded {
		t.Errorf("Unexpected dictionary status: %d entries, degraded=%v", dashboard.DictionaryEntries, dashboard.Degraded)
	}
	if len(dashboard.RetrievalPerformance24h) != 24 {
		t.Errorf("Expected 24 hourly performance entries, got %d", len(dashboard.RetrievalPerformance24h))
	}

	wantSymbols := []model.PopularSymbol{{Term: "Snake", Count: 2}, {Term: "Tower", Count: 1}, {Term: "Water", Count: 1}}
	if fmt.Sprint(dashboard.PopularSymbols) != fmt.Sprint(wantSymbols) {
		t.Errorf("Expected popular symbols %v, got %v", wantSymbols, dashboard.PopularSymbols)
	}
	if len(dashboard.PopularQueries) == 0 || dashboard.PopularQueries[0].Query != "snake dream" {
		t.Errorf("Expected 'snake dream' as most popular query, got %v", dashboard.PopularQueries)
	}

	dist := dashboard.ResponseTimeDistribution
	if dist.Bucket0To25ms != 1 || dist.Bucket25To50ms != 1 || dist.Bucket100msPlus != 1 {
		t.Errorf("Unexpected response time distribution: %+v", dist)
	}
}

func TestAnalyticsService_EmptyDashboard(t *testing.T) {
	service := NewService(nil)
	dashboard := service.GetDashboardData()

	if dashboard.TotalRetrievals != 0 || dashboard.AvgResponseTime != 0 {
		t.Errorf("Expected empty dashboard, got %+v", dashboard)
	}
	if dashboard.ResponseTimeChange != "stable" {
		t.Errorf("Expected stable trend, got %s", dashboard.ResponseTimeChange)
	}
	if len(dashboard.PopularSymbols) != 0 {
		t.Errorf("Expected no popular symbols, got %v", dashboard.PopularSymbols)
	}
}
