// Package entrystore holds the client's view of food-log entries. It is the
// only owner of that state; every mutation is keyed by entry ID.
package entrystore

import (
	"sort"
	"sync"
	"time"
)

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry // most recently inserted first
}

func New() *Store { return &Store{} }

// Insert puts e at the front. An existing entry with the same ID is replaced.
func (s *Store) Insert(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(e.ID)
	s.entries = append([]Entry{e.clone()}, s.entries...)
}

// Patch applies fn to the entry with id. It reports false, and does nothing,
// when no such entry exists.
func (s *Store) Patch(id string, fn func(*Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			e := s.entries[i].clone()
			fn(&e)
			e.ID = id
			s.entries[i] = e
			return true
		}
	}
	return false
}

// SetState is Patch for the common case of a state transition.
func (s *Store) SetState(id string, st State) bool {
	return s.Patch(id, func(e *Entry) { e.State = st })
}

// Remove deletes the entry with id and reports whether it was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Store) removeLocked(id string) bool {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the entry with id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// Replace swaps the whole content. entries is taken in the given order, as
// if the first element had been inserted last.
func (s *Store) Replace(entries []Entry) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	s.mu.Lock()
	s.entries = out
	s.mu.Unlock()
}

// All returns copies of every entry, newest timestamp first. Equal
// timestamps keep reverse insertion order.
func (s *Store) All() []Entry {
	s.mu.RLock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// ForDay returns the entries captured on day's calendar date in day's zone,
// ordered like All.
func (s *Store) ForDay(day time.Time) []Entry {
	start, end := DayBounds(day)
	all := s.All()
	out := all[:0]
	for _, e := range all {
		if e.Timestamp >= start && e.Timestamp <= end {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// DayBounds returns the inclusive millisecond window of day's calendar date:
// local midnight through midnight plus 86_399_999.
func DayBounds(day time.Time) (int64, int64) {
	start := StartOfDay(day).UnixMilli()
	return start, start + 24*60*60*1000 - 1
}

// StartOfDay is local midnight of t's date in t's zone.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
