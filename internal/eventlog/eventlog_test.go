package eventlog

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Append_And_Read_Session_In_Order(t *testing.T) {
	req := require.New(t)
	s := newStore(t)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{SessionID: "session_a", At: at.Add(2 * time.Minute), Intent: "faq", Confidence: 0.9, Provider: "local"},
		{SessionID: "session_a", At: at, Intent: "greeting", Confidence: 0.95, Provider: "local"},
		{SessionID: "session_b", At: at.Add(time.Minute), Intent: "product", Confidence: 0.7, Provider: "gemini"},
	}
	for _, e := range events {
		_, err := s.Append(e)
		req.NoError(err)
	}

	got, err := s.Session("session_a")
	req.NoError(err)
	req.Len(got, 2)
	req.Equal("greeting", got[0].Intent)
	req.Equal("faq", got[1].Intent)
	req.NotEqual(uuid.Nil, got[0].ID)
	req.True(got[0].At.Equal(at))
}

func Test_Append_Fills_ID_And_Timestamp(t *testing.T) {
	req := require.New(t)
	s := newStore(t)

	e, err := s.Append(Event{SessionID: "session_x", Intent: "general"})
	req.NoError(err)
	req.NotEqual(uuid.Nil, e.ID)
	req.False(e.At.IsZero())
}

func Test_Same_Timestamp_Does_Not_Overwrite(t *testing.T) {
	req := require.New(t)
	s := newStore(t)

	at := time.Now().UTC()
	for range 3 {
		_, err := s.Append(Event{SessionID: "session_a", At: at, Intent: "faq"})
		req.NoError(err)
	}
	got, err := s.Session("session_a")
	req.NoError(err)
	req.Len(got, 3)
}

func Test_Invalid_Session(t *testing.T) {
	req := require.New(t)
	s := newStore(t)

	_, err := s.Append(Event{SessionID: ""})
	req.ErrorIs(err, ErrInvalidSession)
	_, err = s.Append(Event{SessionID: "a:b"})
	req.ErrorIs(err, ErrInvalidSession)
	_, err = s.Session("")
	req.ErrorIs(err, ErrInvalidSession)
}

func Test_Session_Prefix_Does_Not_Leak(t *testing.T) {
	req := require.New(t)
	s := newStore(t)

	_, err := s.Append(Event{SessionID: "session_1", Intent: "faq"})
	req.NoError(err)
	_, err = s.Append(Event{SessionID: "session_10", Intent: "product"})
	req.NoError(err)

	got, err := s.Session("session_1")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("faq", got[0].Intent)
}

func Test_Stats(t *testing.T) {
	req := require.New(t)
	s := newStore(t)

	empty, err := s.Stats()
	req.NoError(err)
	req.Equal(0, empty.Total)
	req.Zero(empty.MeanConfidence)

	for _, e := range []Event{
		{SessionID: "s1", Intent: "faq", Confidence: 0.9, Provider: "local"},
		{SessionID: "s1", Intent: "faq", Confidence: 0.5, Provider: "gemini"},
		{SessionID: "s2", Intent: "greeting", Confidence: 1.0, Provider: "local"},
	} {
		_, err := s.Append(e)
		req.NoError(err)
	}

	stats, err := s.Stats()
	req.NoError(err)
	req.Equal(3, stats.Total)
	req.Equal(2, stats.Sessions)
	req.Equal(map[string]int{"faq": 2, "greeting": 1}, stats.Intents)
	req.Equal(map[string]int{"local": 2, "gemini": 1}, stats.Providers)
	req.InDelta(0.8, stats.MeanConfidence, 1e-9)
}

func Test_Persists_Across_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	s, err := Open(dir, false, nil)
	req.NoError(err)
	_, err = s.Append(Event{SessionID: "session_a", Intent: "benefits"})
	req.NoError(err)
	req.NoError(s.Close())

	s, err = Open(dir, false, nil)
	req.NoError(err)
	defer s.Close()
	got, err := s.Session("session_a")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("benefits", got[0].Intent)
}
