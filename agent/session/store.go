package session

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
)

const defaultTTL = 2 * time.Hour

// Store is the session persistence contract used by the conversation
// driver. Calls are bounded, so the in-memory implementation below is
// the default; the interface leaves room for a remote store.
type Store interface {
	GetOrCreate(userID, sessionID, restaurantPhone string) (*Session, error)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps sessions in-process. Entries past their TTL are
// swept opportunistically on access; calls end long before the TTL, so
// the sweep only guards against abandoned calls accumulating.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      defaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetOrCreate returns the session for sessionID, creating it on the
// call's first turn. An existing session is reused as-is; the identity
// fields from the first turn win.
func (s *MemoryStore) GetOrCreate(userID, sessionID, restaurantPhone string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if existing, ok := s.sessions[sessionID]; ok {
		existing.LastSeenAt = now
		return existing, nil
	}

	sess := &Session{
		ID:              sessionID,
		UserID:          userID,
		RestaurantPhone: restaurantPhone,
		CreatedAt:       now,
		LastSeenAt:      now,
	}
	s.sessions[sessionID] = sess
	return sess, nil
}

func (s *MemoryStore) Get(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeenAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
