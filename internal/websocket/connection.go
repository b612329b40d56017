package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Roles a connection can hold. A connection starts unassigned and gets a
// role when its teacher-join or student-join event is accepted.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Connection wraps a websocket with a single writer goroutine. All sends
// go through the write channel, so writes never race and events reach
// the client in the order they were issued.
type Connection struct {
	id        string
	conn      *websocket.Conn
	writeCh   chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu   sync.RWMutex
	role string
}

// envelope is the outbound wire framing.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func NewConnection(conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      uuid.New().String(),
		conn:    conn,
		writeCh: make(chan []byte, 100),
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues an event for delivery. It never blocks: when the write
// buffer is full the event is dropped and an error returned, so a dead
// client cannot stall the coordinator.
func (c *Connection) Send(event string, payload any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(envelope{Type: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case c.writeCh <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// ID is the connection identity, assigned at upgrade time. It doubles as
// the student id for the poll session.
func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

func (c *Connection) SetRole(role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
}
