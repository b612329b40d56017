package websocket

import (
	"sync"

	"classpoll/internal/broadcast"
)

// Registry tracks live connections by id and serves as the broadcast
// gateway's directory. Teachers and students are told apart by the role
// set on the connection at join time; unassigned connections are only
// reachable directly by id.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

func (r *Registry) Register(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID()] = conn
	return nil
}

// Unregister removes a connection. Idempotent; only the registered
// instance is removed, so a stale cleanup cannot evict a replacement.
func (r *Registry) Unregister(conn *Connection) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if registered, ok := r.connections[conn.ID()]; ok && registered == conn {
		delete(r.connections, conn.ID())
	}
}

func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[id]
	return conn, ok
}

// Connection implements broadcast.Directory.
func (r *Registry) Connection(id string) (broadcast.Sender, bool) {
	conn, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return conn, true
}

func (r *Registry) Teachers() []broadcast.Sender {
	return r.byRole(RoleTeacher)
}

func (r *Registry) Students() []broadcast.Sender {
	return r.byRole(RoleStudent)
}

func (r *Registry) All() []broadcast.Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	senders := make([]broadcast.Sender, 0, len(r.connections))
	for _, conn := range r.connections {
		senders = append(senders, conn)
	}
	return senders
}

func (r *Registry) byRole(role string) []broadcast.Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var senders []broadcast.Sender
	for _, conn := range r.connections {
		if conn.Role() == role {
			senders = append(senders, conn)
		}
	}
	return senders
}

// Stats reports connection counts for the HTTP surface.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := map[string]int{"total": len(r.connections), "teachers": 0, "students": 0}
	for _, conn := range r.connections {
		switch conn.Role() {
		case RoleTeacher:
			stats["teachers"]++
		case RoleStudent:
			stats["students"]++
		}
	}
	return stats
}
