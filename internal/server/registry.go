package server

import (
	"sync"

	"golang.org/x/net/websocket"

	"github.com/abhisek/mathprobe/internal/assessment"
)

// registry is the table of live connections that own a session.
// Entries are inserted when a session is created and removed when its
// connection ends; nothing else mutates it.
type registry struct {
	mu       sync.Mutex
	sessions map[*websocket.Conn]*assessment.Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[*websocket.Conn]*assessment.Session)}
}

func (r *registry) add(conn *websocket.Conn, s *assessment.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn] = s
	return len(r.sessions)
}

// remove deletes the entry for conn and reports whether one existed.
func (r *registry) remove(conn *websocket.Conn) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[conn]
	delete(r.sessions, conn)
	return len(r.sessions), ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// conns returns the registered connections. Sessions are not returned: they
// belong to their connection goroutine and must not be read elsewhere.
func (r *registry) conns() []*websocket.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*websocket.Conn, 0, len(r.sessions))
	for c := range r.sessions {
		out = append(out, c)
	}
	return out
}
