// Package roster tracks the students connected to the session and their
// per-poll answered flags. Display names are unique among currently
// connected students only; a name frees up again on disconnect.
//
// The roster is not safe for concurrent use on its own: the session
// coordinator owns it and serializes every access.
package roster

import (
	"strings"
	"unicode/utf8"

	"classpoll/pkg/types"
)

type Roster struct {
	students map[string]*types.Student // connection id -> student
	order    []string                  // connection ids in join order
}

func New() *Roster {
	return &Roster{
		students: make(map[string]*types.Student),
	}
}

// Join registers a student under its connection id. Re-joining with the
// same connection id is reconnect-safe: the existing entry is returned
// and its answered flag survives, so a reconnect never grants a second
// vote. A changed name on re-join is applied after the collision check.
func (r *Roster) Join(connectionID, name string) (*types.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.ErrNameRequired
	}
	// The bound is on characters, not bytes; "Владимирович" is 12 chars.
	if n := utf8.RuneCountInString(name); n < types.MinNameLength || n > types.MaxNameLength {
		return nil, types.NewCommandError(types.KindNameRequired, "Name must be 2-20 characters")
	}

	for id, student := range r.students {
		if id != connectionID && student.Name == name {
			return nil, types.ErrNameTaken
		}
	}

	if existing, ok := r.students[connectionID]; ok {
		existing.Name = name
		return existing, nil
	}

	student := &types.Student{ID: connectionID, Name: name}
	r.students[connectionID] = student
	r.order = append(r.order, connectionID)
	return student, nil
}

// Remove drops a student, freeing its name for reuse. Returns the removed
// student, or nil if the connection id is unknown. Used for both
// disconnects and teacher-initiated removal.
func (r *Roster) Remove(connectionID string) *types.Student {
	student, ok := r.students[connectionID]
	if !ok {
		return nil
	}
	delete(r.students, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return student
}

// Get returns the student for a connection id.
func (r *Roster) Get(connectionID string) (*types.Student, bool) {
	student, ok := r.students[connectionID]
	return student, ok
}

// MarkAnswered flags a student as having answered the active poll.
// Idempotent; unknown ids are ignored.
func (r *Roster) MarkAnswered(connectionID string) {
	if student, ok := r.students[connectionID]; ok {
		student.HasAnswered = true
	}
}

// ResetAllAnswered clears every answered flag. Called when a new poll
// starts, before the poll is broadcast.
func (r *Roster) ResetAllAnswered() {
	for _, student := range r.students {
		student.HasAnswered = false
	}
}

// AllAnswered reports whether every connected student has answered.
// Vacuously true for an empty roster.
func (r *Roster) AllAnswered() bool {
	for _, student := range r.students {
		if !student.HasAnswered {
			return false
		}
	}
	return true
}

// List returns students in join order for stable display.
func (r *Roster) List() []*types.Student {
	students := make([]*types.Student, 0, len(r.order))
	for _, id := range r.order {
		students = append(students, r.students[id])
	}
	return students
}

// Size returns the number of connected students.
func (r *Roster) Size() int {
	return len(r.students)
}
