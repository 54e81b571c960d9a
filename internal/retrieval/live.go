package retrieval

import (
	"sync"
	"sync/atomic"

	"github.com/gcbaptista/dreamsense/model"
	"github.com/gcbaptista/dreamsense/store"
)

// Loader reads the dictionary from its source.
type Loader func() (*store.DictionaryStore, error)

// Live serves every query from the current Service and rebuilds it from the
// source on Reload. Queries never block on a reload.
type Live struct {
	current atomic.Pointer[Service]
	source  string
	load    Loader
	opts    []Option
	mu      sync.Mutex // serializes reloads
}

// NewLive opens the dictionary once. A failed first load leaves a degraded
// Service in place until a reload succeeds.
func NewLive(source string, load Loader, opts ...Option) *Live {
	l := &Live{source: source, load: load, opts: opts}
	l.current.Store(Open(load, opts...))
	return l
}

// Current returns the Service answering queries right now.
func (l *Live) Current() *Service {
	return l.current.Load()
}

// Source names the file or database the dictionary is loaded from.
func (l *Live) Source() string {
	return l.source
}

// Reload loads the dictionary again and swaps in a freshly built Service.
// On failure the previous Service keeps serving and the error is returned.
func (l *Live) Reload() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.load == nil {
		return 0, ErrDictionaryRequired
	}
	dict, err := l.load()
	if err != nil {
		return 0, err
	}
	svc, err := Build(dict, l.opts...)
	if err != nil {
		return 0, err
	}

	l.current.Store(svc)
	svc.logger.Info("dictionary reloaded", "source", dict.Source(), "count", dict.Len())
	return dict.Len(), nil
}

// GenerateContext delegates to the current Service.
func (l *Live) GenerateContext(dreamText string) (string, []model.RetrievedEntry) {
	return l.Current().GenerateContext(dreamText)
}

// Lookup delegates to the current Service.
func (l *Live) Lookup(term string) (model.DictionaryEntry, error) {
	return l.Current().Lookup(term)
}

// Suggest delegates to the current Service.
func (l *Live) Suggest(term string, limit int) []string {
	return l.Current().Suggest(term, limit)
}

// Degraded delegates to the current Service.
func (l *Live) Degraded() bool {
	return l.Current().Degraded()
}

// InitError delegates to the current Service.
func (l *Live) InitError() error {
	return l.Current().InitError()
}

// EntryCount delegates to the current Service.
func (l *Live) EntryCount() int {
	return l.Current().EntryCount()
}
