package session

import (
	"sync"

	"github.com/sundarv/expense-bot/internal/conversation"
	"github.com/sundarv/expense-bot/internal/extract"
)

// PendingEntry is the single in-flight expense entry of one
// conversation. It exists from a flow's entry point until confirmation,
// cancellation or replacement by a new flow start.
type PendingEntry struct {
	State conversation.State
	Data  extract.Record

	// EditingField is set only while the user corrects a single field
	// from the confirm card.
	EditingField string
}

// MutateFunc transforms a conversation's pending entry. cur is nil when
// the conversation has no entry; returning nil removes the entry.
type MutateFunc func(cur *PendingEntry) (*PendingEntry, error)

// Store keeps at most one PendingEntry per conversation.
//
// Mutate serializes work per conversation: concurrent deliveries for
// the same chat (duplicate webhook retries included) are applied one at
// a time, while different chats proceed independently.
type Store interface {
	Get(chatID string) (*PendingEntry, bool)
	Put(chatID string, entry *PendingEntry)
	Delete(chatID string)
	Mutate(chatID string, fn MutateFunc) error
	Len() int
}

// MemoryStore is the in-memory Store implementation. Entries live only
// for the process lifetime; an abandoned mid-flow conversation is
// recovered by cancel or a new flow start.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*PendingEntry
	locks   map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*PendingEntry),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Get returns a copy of the conversation's pending entry.
func (s *MemoryStore) Get(chatID string) (*PendingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[chatID]
	if !ok {
		return nil, false
	}
	cp := *entry
	return &cp, true
}

// Put replaces the conversation's pending entry.
func (s *MemoryStore) Put(chatID string, entry *PendingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[chatID] = &cp
}

// Delete removes the conversation's pending entry, if any.
func (s *MemoryStore) Delete(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chatID)
}

// Mutate runs fn under the conversation's lock, committing the returned
// entry (nil removes it). The error from fn is passed through after the
// commit so a failed outbound send does not lose the state advance.
func (s *MemoryStore) Mutate(chatID string, fn MutateFunc) error {
	lock := s.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	var cur *PendingEntry
	if entry, ok := s.entries[chatID]; ok {
		cp := *entry
		cur = &cp
	}
	s.mu.Unlock()

	next, err := fn(cur)

	s.mu.Lock()
	if next == nil {
		delete(s.entries, chatID)
	} else {
		cp := *next
		s.entries[chatID] = &cp
	}
	s.mu.Unlock()

	return err
}

// Len returns the number of conversations with a pending entry.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) lockFor(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chatID] = lock
	}
	return lock
}
