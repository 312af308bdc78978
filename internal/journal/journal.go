// Package journal records every dispatched synced action so a match can be
// audited or replayed frame by frame.
package journal

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one dispatched synced action.
type Entry struct {
	MatchID uuid.UUID `json:"match_id"`
	// Frame is the simulation frame the action executed in.
	Frame int `json:"frame"`
	// Seq orders entries within a match; it starts at 1 and has no gaps.
	Seq      int64  `json:"seq"`
	PlayerID int    `json:"player_id"`
	Command  string `json:"command"`
	Args     string `json:"args"`
	// Accepted is the command's result; unknown commands are recorded as rejected.
	Accepted   bool      `json:"accepted"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store persists journal entries.
type Store interface {
	// Record appends e.
	//
	// Precondition: e.Seq is greater than every Seq already recorded for e.MatchID.
	Record(ctx context.Context, e Entry) error
	// Entries returns all entries of matchID ordered by Seq.
	Entries(ctx context.Context, matchID uuid.UUID) ([]Entry, error)
	// Matches returns every recorded match, oldest first.
	Matches(ctx context.Context) ([]uuid.UUID, error)
	// Close releases the store.
	Close() error
}

// ErrNoMatches is returned by Latest when the store holds no match.
var ErrNoMatches = errors.New("journal holds no matches")

// Latest returns the most recently started match in s.
func Latest(ctx context.Context, s Store) (uuid.UUID, error) {
	ids, err := s.Matches(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, ErrNoMatches
	}
	return ids[len(ids)-1], nil
}

// Nop is a Store that records nothing.
type Nop struct{}

// Record discards e.
func (Nop) Record(context.Context, Entry) error { return nil }

// Entries returns no entries.
func (Nop) Entries(context.Context, uuid.UUID) ([]Entry, error) { return nil, nil }

// Matches returns no matches.
func (Nop) Matches(context.Context) ([]uuid.UUID, error) { return nil, nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// Memory is an in-process Store. All methods are safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
	order   []uuid.UUID
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[uuid.UUID][]Entry)}
}

// Record appends e.
func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.MatchID]; !ok {
		m.order = append(m.order, e.MatchID)
	}
	m.entries[e.MatchID] = append(m.entries[e.MatchID], e)
	return nil
}

// Entries returns a copy of the entries of matchID ordered by Seq.
func (m *Memory) Entries(_ context.Context, matchID uuid.UUID) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Entry(nil), m.entries[matchID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Matches returns every match in the order its first entry was recorded.
func (m *Memory) Matches(context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uuid.UUID(nil), m.order...), nil
}

// Close does nothing.
func (m *Memory) Close() error { return nil }
