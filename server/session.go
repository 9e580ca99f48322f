package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"ccreator/orchestrator"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = time.Hour

// session is one front-end's orchestrator. trigger makes the CanStart check
// and the start of a flow a single step.
type session struct {
	id      string
	orch    *orchestrator.Orchestrator
	trigger sync.Mutex

	// guarded by sessionStore.mu
	lastAccess time.Time
}

// sessionStore keeps sessions in memory and drops those idle for longer than
// ttl. A session with a running flow is never dropped.
type sessionStore struct {
	mu       sync.Mutex
	byID     map[string]*session
	ttl      time.Duration
	now      func() time.Time
	sessions prometheus.Gauge
}

func newStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionStore{
		byID: make(map[string]*session),
		ttl:  ttl,
		now:  time.Now,
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccreator",
			Name:      "sessions",
			Help:      "Sessions held in memory.",
		}),
	}
}

func newSessionID() string {
	return uuid.NewString()
}

// set stores sess and sweeps expired sessions. It returns how many were evicted.
func (s *sessionStore) set(sess *session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	evicted := 0
	for id, old := range s.byID {
		if s.expired(old, now) {
			s.evict(id)
			evicted++
		}
	}
	sess.lastAccess = now
	if _, ok := s.byID[sess.id]; !ok {
		s.sessions.Inc()
	}
	s.byID[sess.id] = sess
	return evicted
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		s.evict(id)
		return nil, false
	}
	sess.lastAccess = now
	return sess, true
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *sessionStore) setClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *sessionStore) expired(sess *session, now time.Time) bool {
	if now.Sub(sess.lastAccess) <= s.ttl {
		return false
	}
	return sess.orch.State().Loading() == 0
}

func (s *sessionStore) evict(id string) {
	delete(s.byID, id)
	s.sessions.Dec()
}
