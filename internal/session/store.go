package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkenzhe/photomatte/internal/photo"
)

// Session holds the per-upload editing state: the original bytes, the
// choices made in each workflow step, and eventually the processed result.
type Session struct {
	ID       string
	Filename string
	Original []byte

	Size *photo.SizeChoice
	Crop *photo.CropSettings

	Processed            []byte
	ProcessedContentType string
	// ResultKey is the blob-storage key of the mirrored result, empty when
	// no storage is configured.
	ResultKey string

	lastTouched time.Time
}

// Store is an in-memory session store with a TTL. All mutation goes through
// Store methods; Get returns a copy so handlers never race on field writes.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	onEvict  func(Session)
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// OnEvict registers a hook invoked (outside the store lock) for every
// session removed by Purge or Delete.
func (s *Store) OnEvict(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Create registers a new session for an uploaded image and returns its ID.
func (s *Store) Create(filename string, original []byte) string {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &Session{
		ID:          id,
		Filename:    filename,
		Original:    original,
		lastTouched: time.Now(),
	}
	return id
}

// Get returns a copy of the session and refreshes its TTL. The byte slices
// in the copy are shared with the store and must not be modified.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.lastTouched = time.Now()
	return *sess, true
}

// SetSize stores the size choice for a session.
func (s *Store) SetSize(id string, choice *photo.SizeChoice) bool {
	return s.update(id, func(sess *Session) { sess.Size = choice })
}

// SetCrop stores the crop settings for a session.
func (s *Store) SetCrop(id string, crop *photo.CropSettings) bool {
	return s.update(id, func(sess *Session) { sess.Crop = crop })
}

// SetProcessed stores the processed result bytes and, when mirrored to blob
// storage, the key they were uploaded under.
func (s *Store) SetProcessed(id string, data []byte, contentType, resultKey string) bool {
	return s.update(id, func(sess *Session) {
		sess.Processed = data
		sess.ProcessedContentType = contentType
		sess.ResultKey = resultKey
	})
}

func (s *Store) update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	sess.lastTouched = time.Now()
	return true
}

// Delete removes a session, firing the evict hook.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	hook := s.onEvict
	s.mu.Unlock()

	if ok && hook != nil {
		hook(*sess)
	}
}

// Purge drops every session idle for longer than the TTL and returns how
// many were removed.
func (s *Store) Purge() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var evicted []Session
	for id, sess := range s.sessions {
		if sess.lastTouched.Before(cutoff) {
			evicted = append(evicted, *sess)
			delete(s.sessions, id)
		}
	}
	hook := s.onEvict
	s.mu.Unlock()

	if hook != nil {
		for _, sess := range evicted {
			hook(sess)
		}
	}
	return len(evicted)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
