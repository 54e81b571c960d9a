package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/dreamsense/model"
)

func newMemoryStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEvent(i int) model.RetrievalEvent {
	return model.RetrievalEvent{
		Query:        fmt.Sprintf("dream %d", i),
		Endpoint:     "context",
		ResponseTime: time.Duration(i) * time.Millisecond,
		ResultCount:  1,
		Symbols:      []string{"Water"},
		Timestamp:    time.Date(2026, 10, 18, 12, 0, i, 0, time.UTC),
	}
}

func TestBadgerStore_AppendAndLoadRecent(t *testing.T) {
	store := newMemoryStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(testEvent(i)))
	}

	events, err := store.LoadRecent(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "dream 2", events[0].Query)
	assert.Equal(t, "dream 4", events[2].Query)
	assert.Equal(t, 4*time.Millisecond, events[2].ResponseTime)
	assert.True(t, events[2].Timestamp.Equal(testEvent(4).Timestamp))

	events, err = store.LoadRecent(0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestBadgerStore_Prune(t *testing.T) {
	store := newMemoryStore(t)
	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(testEvent(i)))
	}

	removed, err := store.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	events, err := store.LoadRecent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "dream 4", events[0].Query)
	assert.Equal(t, "dream 5", events[1].Query)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(testEvent(1)))
	require.NoError(t, store.Append(testEvent(2)))
	require.NoError(t, store.Close())

	store, err = OpenBadgerStore(dir)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Append(testEvent(3)))

	events, err := store.LoadRecent(10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"dream 1", "dream 2", "dream 3"},
		[]string{events[0].Query, events[1].Query, events[2].Query})
}

func TestAnalyticsService_AttachStore(t *testing.T) {
	store := newMemoryStore(t)
	require.NoError(t, store.Append(testEvent(1)))

	now := time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)
	service := newTestService(now)
	require.NoError(t, service.AttachStore(store))
	assert.Equal(t, 1, service.EventCount())

	service.TrackRetrievalEvent(model.RetrievalEvent{Query: "a falling dream", Endpoint: "context"})
	assert.Equal(t, 2, service.EventCount())

	events, err := store.LoadRecent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a falling dream", events[1].Query)
	assert.True(t, events[1].Timestamp.Equal(now))

	dashboard := service.GetDashboardData()
	assert.Equal(t, 2, dashboard.TotalRetrievals)
}

// blockingStore holds every Append until release is closed.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Append(model.RetrievalEvent) error {
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingStore) LoadRecent(int) ([]model.RetrievalEvent, error) {
	return nil, nil
}

func (b *blockingStore) Close() error { return nil }

func TestAnalyticsService_SlowStoreDoesNotBlockReaders(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
	service := newTestService(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	require.NoError(t, service.AttachStore(store))

	done := make(chan struct{})
	go func() {
		service.TrackRetrievalEvent(model.RetrievalEvent{Query: "a slow write", Endpoint: "context"})
		close(done)
	}()
	<-store.entered

	require.Eventually(t, func() bool {
		return service.EventCount() == 1 && service.GetDashboardData().TotalRetrievals == 1
	}, time.Second, 10*time.Millisecond)

	close(store.release)
	<-done
}
