package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"shopchat/agent"
)

const (
	defaultConversationTTL = 1 * time.Hour
	evictInterval          = 5 * time.Minute
)

// Conversation is one persisted chat thread. Messages is the authoritative
// ordered log handed back to the core on every turn.
type Conversation struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Messages  []agent.Message `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
}

type entry struct {
	conv       *Conversation
	lastAccess time.Time
}

// Store is an in-memory conversation store with TTL-based eviction.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*entry
	ttl           time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewStore creates a conversation store and starts its eviction loop.
// A non-positive ttl uses the default of one hour.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultConversationTTL
	}
	s := &Store{
		conversations: make(map[string]*entry),
		ttl:           ttl,
		stop:          make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

// Close stops the eviction loop.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Create starts a new conversation for a session.
func (s *Store) Create(sessionID string) *Conversation {
	conv := &Conversation{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Messages:  []agent.Message{},
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.conversations[conv.ID] = &entry{conv: conv, lastAccess: time.Now()}
	s.mu.Unlock()
	return snapshot(conv)
}

// Get returns a copy of the conversation, or nil if unknown.
func (s *Store) Get(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.conversations[id]
	if !ok {
		return nil
	}
	e.lastAccess = time.Now()
	return snapshot(e.conv)
}

// SaveMessages replaces the conversation's message log. Called by the
// transport layer after a turn completes, with the exact TurnContext log.
func (s *Store) SaveMessages(id string, msgs []agent.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.conversations[id]
	if !ok {
		return false
	}
	e.conv.Messages = append([]agent.Message(nil), msgs...)
	e.lastAccess = time.Now()
	return true
}

// Delete removes a conversation.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return false
	}
	delete(s.conversations, id)
	return true
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func (s *Store) evictLoop() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evict()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) evict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	for id, e := range s.conversations {
		if e.lastAccess.Before(cutoff) {
			delete(s.conversations, id)
		}
	}
}

func snapshot(c *Conversation) *Conversation {
	out := *c
	out.Messages = append([]agent.Message(nil), c.Messages...)
	return &out
}
