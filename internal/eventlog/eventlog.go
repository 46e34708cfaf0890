// Package eventlog records chat replies in BadgerDB for the analytics
// dashboard.
package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const keyPrefix = "event:"

// ErrInvalidSession is returned for a blank session id or one containing ':'.
var ErrInvalidSession = errors.New("eventlog: invalid session id")

// Event describes one answered chat message.
type Event struct {
	ID            uuid.UUID `json:"id"`
	SessionID     string    `json:"sessionId"`
	At            time.Time `json:"at"`
	Intent        string    `json:"intent"`
	Confidence    float64   `json:"confidence"`
	Provider      string    `json:"provider"`
	MessageLength int       `json:"messageLength"`
}

// Stats summarizes every stored event.
type Stats struct {
	Total          int            `json:"total"`
	Sessions       int            `json:"sessions"`
	Intents        map[string]int `json:"intents"`
	Providers      map[string]int `json:"providers"`
	MeanConfidence float64        `json:"meanConfidence"`
}

// Store is a Badger-backed event log.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens the store at path. With inMemory set, path is ignored and
// nothing touches the disk.
func Open(path string, inMemory bool, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}
	return New(db, log), nil
}

// New wraps an already opened database.
func New(db *badger.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores e. A zero ID or timestamp is filled in. The key is
// "event:{session}:{unix nanos, 19 digits}:{id}" so a prefix scan returns a
// session's events in chronological order.
func (s *Store) Append(e Event) (Event, error) {
	if e.SessionID == "" || strings.Contains(e.SessionID, ":") {
		return Event{}, ErrInvalidSession
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	key := fmt.Sprintf("%s%s:%019d:%s", keyPrefix, e.SessionID, e.At.UnixNano(), e.ID)
	value, err := json.Marshal(e)
	if err != nil {
		return Event{}, fmt.Errorf("eventlog: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return Event{}, fmt.Errorf("eventlog: %w", err)
	}
	s.log.Debug("Event stored", "session", e.SessionID, "intent", e.Intent, "provider", e.Provider)
	return e, nil
}

// Session returns the events of one session, oldest first.
func (s *Store) Session(sessionID string) ([]Event, error) {
	if sessionID == "" || strings.Contains(sessionID, ":") {
		return nil, ErrInvalidSession
	}
	return s.scan(keyPrefix + sessionID + ":")
}

// All returns every stored event grouped by session.
func (s *Store) All() ([]Event, error) {
	return s.scan(keyPrefix)
}

func (s *Store) scan(prefix string) ([]Event, error) {
	var events []Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var e Event
				if err := json.Unmarshal(value, &e); err != nil {
					return err
				}
				events = append(events, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	return events, nil
}

// Stats aggregates all stored events.
func (s *Store) Stats() (Stats, error) {
	events, err := s.All()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Total:     len(events),
		Sessions:  len(lo.UniqBy(events, func(e Event) string { return e.SessionID })),
		Intents:   lo.CountValuesBy(events, func(e Event) string { return e.Intent }),
		Providers: lo.CountValuesBy(events, func(e Event) string { return e.Provider }),
	}
	if len(events) > 0 {
		stats.MeanConfidence = lo.SumBy(events, func(e Event) float64 { return e.Confidence }) / float64(len(events))
	}
	return stats, nil
}
