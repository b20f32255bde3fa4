package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/zusplus/zusplus/internal/zusplus/gate"
	"github.com/zusplus/zusplus/pkg/idx"
)

// flowCookie names the HttpOnly cookie that ties a browser to its gate.
const flowCookie = "zusplus_flow"

// defaultFlowTTL bounds how long an idle gate is kept before the browser
// has to start over.
const defaultFlowTTL = 12 * time.Hour

// FlowStore maps browser sessions to their sign-in gates. Each browser gets
// its own gate (and so its own provider credential); the store only exists
// because HTTP is stateless while the gate is not.
type FlowStore struct {
	NewProvider func() gate.Provider
	TTL         time.Duration

	mu    sync.Mutex
	flows map[string]*flowEntry
}

type flowEntry struct {
	gate     *gate.Gate
	lastSeen time.Time
}

// NewFlowStore creates a store that builds a fresh provider per browser.
func NewFlowStore(newProvider func() gate.Provider) *FlowStore {
	return &FlowStore{
		NewProvider: newProvider,
		TTL:         defaultFlowTTL,
		flows:       make(map[string]*flowEntry),
	}
}

// Gate returns the browser's gate, creating one (and setting the flow
// cookie) on first contact.
func (s *FlowStore) Gate(w http.ResponseWriter, r *http.Request) *gate.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	if c, err := r.Cookie(flowCookie); err == nil {
		if entry, ok := s.flows[c.Value]; ok {
			entry.lastSeen = time.Now()
			return entry.gate
		}
	}

	id := idx.New().String()
	g := gate.New(s.NewProvider())
	s.flows[id] = &flowEntry{gate: g, lastSeen: time.Now()}

	http.SetCookie(w, &http.Cookie{
		Name:     flowCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return g
}

// Drop forgets the browser's gate, e.g. after sign-out.
func (s *FlowStore) Drop(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(flowCookie)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.flows, c.Value)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     flowCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// expireLocked drops idle flows. Caller holds the lock.
func (s *FlowStore) expireLocked() {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultFlowTTL
	}
	cutoff := time.Now().Add(-ttl)
	for id, entry := range s.flows {
		if entry.lastSeen.Before(cutoff) {
			delete(s.flows, id)
		}
	}
}
