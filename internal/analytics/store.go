package analytics

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/gcbaptista/dreamsense/model"
)

const (
	eventKeyPrefix           = "event:"
	eventSequenceKey         = "seq:event"
	defaultSequenceBandwidth = 100
)

// EventStore persists retrieval events across restarts.
type EventStore interface {
	Append(event model.RetrievalEvent) error
	// LoadRecent returns at most limit of the newest events, oldest first.
	LoadRecent(limit int) ([]model.RetrievalEvent, error)
	Close() error
}

// BadgerStore keeps retrieval events in a BadgerDB directory, keyed by an
// increasing sequence so iteration order is insertion order.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// badgerLogger routes badger's own logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Infof(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBadgerStore opens (or creates) the event store at dir.
// An empty dir opens an in-memory store.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create analytics directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{logger: slog.Default().With("component", "analytics")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics store: %w", err)
	}

	seq, err := db.GetSequence([]byte(eventSequenceKey), defaultSequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open analytics sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

// Append stores one event.
func (s *BadgerStore) Append(event model.RetrievalEvent) error {
	id, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to allocate event id: %w", err)
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(id), value)
	})
}

// LoadRecent returns at most limit of the newest events, oldest first.
func (s *BadgerStore) LoadRecent(limit int) ([]model.RetrievalEvent, error) {
	events := make([]model.RetrievalEvent, 0)
	if limit <= 0 {
		return events, nil
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(eventKeyPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		// In reverse mode Seek lands on the last key not greater than the seek key
		seekKey := append([]byte(eventKeyPrefix), 0xFF)
		for iter.Seek(seekKey); iter.Valid() && len(events) < limit; iter.Next() {
			var event model.RetrievalEvent
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("failed to decode event %x: %w", iter.Item().Key(), err)
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// Prune deletes all but the newest keep events and returns how many were removed.
func (s *BadgerStore) Prune(keep int) (int, error) {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = []byte(eventKeyPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		seen := 0
		for iter.Seek(append([]byte(eventKeyPrefix), 0xFF)); iter.Valid(); iter.Next() {
			seen++
			if seen > keep {
				stale = append(stale, iter.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}

	batch := s.db.NewWriteBatch()
	for _, key := range stale {
		if err := batch.Delete(key); err != nil {
			batch.Cancel()
			return 0, err
		}
	}
	if err := batch.Flush(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Close releases the sequence and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

func eventKey(id uint64) []byte {
	key := make([]byte, len(eventKeyPrefix)+8)
	copy(key, eventKeyPrefix)
	binary.BigEndian.PutUint64(key[len(eventKeyPrefix):], id)
	return key
}
