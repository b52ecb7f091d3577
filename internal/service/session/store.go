package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/datachat/internal/model/chat"
	"github.com/zhouzirui/datachat/internal/service/analysis"
)

var ErrSessionNotFound = errors.New("session not found")

// Factory builds the analysis session backing a new browser session.
type Factory func() *analysis.Session

type entry struct {
	info     chat.Session
	analysis *analysis.Session
	watchers map[int]chan struct{}
}

// Store keeps one analysis session per browser session and expires idle ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	nextID   int

	factory Factory
	ttl     time.Duration
	now     func() time.Time
}

// NewStore bootstraps an in-memory store; sessions idle longer than ttl are swept.
func NewStore(factory Factory, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		factory:  factory,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create provisions a fresh anonymous session.
func (s *Store) Create(_ context.Context) (chat.Session, *analysis.Session) {
	now := s.now()
	e := &entry{
		info:     chat.Session{ID: uuid.NewString(), CreatedAt: now, LastSeen: now},
		analysis: s.factory(),
		watchers: make(map[int]chan struct{}),
	}

	s.mu.Lock()
	s.sessions[e.info.ID] = e
	s.mu.Unlock()

	log.Printf("[session] created session=%s", e.info.ID)
	return e.info, e.analysis
}

// Get returns the analysis session for id and marks it as recently used.
func (s *Store) Get(_ context.Context, id string) (*analysis.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.info.LastSeen = s.now()
	return e.analysis, nil
}

// Info returns the bookkeeping record of a session.
func (s *Store) Info(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return e.info, nil
}

// Delete drops a session and closes its watchers.
func (s *Store) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Subscribe returns a channel that receives a signal whenever the session
// changes. Signals coalesce; the channel is closed when the session expires.
func (s *Store) Subscribe(id string) (<-chan struct{}, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	watchID := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	e.watchers[watchID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.sessions[id]; ok && cur == e {
				if w, ok := cur.watchers[watchID]; ok {
					delete(cur.watchers, watchID)
					close(w)
				}
			}
		})
	}
	return ch, cancel, nil
}

// Notify wakes every watcher of the session without blocking.
func (s *Store) Notify(id string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return
	}
	for _, ch := range e.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Sweep removes sessions idle for longer than the TTL. Sessions with an
// open watcher are kept alive.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if len(e.watchers) > 0 {
			e.info.LastSeen = now
			continue
		}
		if now.Sub(e.info.LastSeen) > s.ttl {
			s.removeLocked(id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				log.Printf("[session] expired %d idle sessions, %d remaining", n, s.Len())
			}
		}
	}
}

func (s *Store) removeLocked(id string) {
	e, ok := s.sessions[id]
	if !ok {
		return
	}
	for watchID, ch := range e.watchers {
		delete(e.watchers, watchID)
		close(ch)
	}
	delete(s.sessions, id)
}
