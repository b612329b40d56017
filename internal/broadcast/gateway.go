// Package broadcast fans coordinator-produced events out to connected
// clients. It carries no business logic; the session coordinator and the
// chat relay are its only callers.
package broadcast

import "log"

// Sender is one connected client as the gateway sees it.
type Sender interface {
	ID() string
	Send(event string, payload any) error
}

// Directory looks up connections by audience. Implemented by the
// websocket registry.
type Directory interface {
	Teachers() []Sender
	Students() []Sender
	All() []Sender
	Connection(id string) (Sender, bool)
}

// Gateway delivers events to an audience. Per-connection ordering is
// preserved: the coordinator issues sends serially and every connection
// has a single writer goroutine behind Send.
type Gateway interface {
	ToStudents(event string, payload any)
	ToTeachers(event string, payload any)
	ToAll(event string, payload any)
	ToConnection(id string, event string, payload any)
}

// DirectoryGateway is the production Gateway over a connection directory.
type DirectoryGateway struct {
	directory Directory
}

func New(directory Directory) *DirectoryGateway {
	return &DirectoryGateway{directory: directory}
}

func (g *DirectoryGateway) ToStudents(event string, payload any) {
	g.deliver(g.directory.Students(), event, payload)
}

func (g *DirectoryGateway) ToTeachers(event string, payload any) {
	g.deliver(g.directory.Teachers(), event, payload)
}

func (g *DirectoryGateway) ToAll(event string, payload any) {
	g.deliver(g.directory.All(), event, payload)
}

func (g *DirectoryGateway) ToConnection(id string, event string, payload any) {
	sender, ok := g.directory.Connection(id)
	if !ok {
		return
	}
	if err := sender.Send(event, payload); err != nil {
		log.Printf("broadcast: send %s to %s failed: %v", event, id, err)
	}
}

// deliver continues past individual failures so one slow or dead client
// never blocks the rest of the room.
func (g *DirectoryGateway) deliver(senders []Sender, event string, payload any) {
	for _, sender := range senders {
		if err := sender.Send(event, payload); err != nil {
			log.Printf("broadcast: send %s to %s failed: %v", event, sender.ID(), err)
		}
	}
}
