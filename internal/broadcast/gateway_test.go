package broadcast

import (
	"errors"
	"testing"
)

type fakeSender struct {
	id       string
	received []string
	fail     bool
}

func (s *fakeSender) ID() string { return s.id }

func (s *fakeSender) Send(event string, payload any) error {
	if s.fail {
		return errors.New("write failed")
	}
	s.received = append(s.received, event)
	return nil
}

type fakeDirectory struct {
	teachers []*fakeSender
	students []*fakeSender
}

func (d *fakeDirectory) Teachers() []Sender { return senders(d.teachers) }
func (d *fakeDirectory) Students() []Sender { return senders(d.students) }

func (d *fakeDirectory) All() []Sender {
	return append(senders(d.teachers), senders(d.students)...)
}

func (d *fakeDirectory) Connection(id string) (Sender, bool) {
	for _, s := range append(d.teachers, d.students...) {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

func senders(fakes []*fakeSender) []Sender {
	out := make([]Sender, len(fakes))
	for i, s := range fakes {
		out[i] = s
	}
	return out
}

func TestGateway_AudienceSelection(t *testing.T) {
	teacher := &fakeSender{id: "t1"}
	ann := &fakeSender{id: "s1"}
	ben := &fakeSender{id: "s2"}
	gw := New(&fakeDirectory{
		teachers: []*fakeSender{teacher},
		students: []*fakeSender{ann, ben},
	})

	gw.ToStudents("poll-question", nil)
	gw.ToTeachers("poll-created", nil)
	gw.ToAll("time-update", nil)
	gw.ToConnection("s2", "answer-submitted", nil)

	if len(teacher.received) != 2 || teacher.received[0] != "poll-created" {
		t.Errorf("teacher received %v", teacher.received)
	}
	if len(ann.received) != 2 || ann.received[0] != "poll-question" {
		t.Errorf("ann received %v", ann.received)
	}
	if len(ben.received) != 3 || ben.received[2] != "answer-submitted" {
		t.Errorf("ben received %v", ben.received)
	}
}

func TestGateway_ContinuesPastFailedSend(t *testing.T) {
	broken := &fakeSender{id: "s1", fail: true}
	healthy := &fakeSender{id: "s2"}
	gw := New(&fakeDirectory{students: []*fakeSender{broken, healthy}})

	gw.ToStudents("poll-question", nil)

	if len(healthy.received) != 1 {
		t.Error("delivery should continue after a failed send")
	}
}

func TestGateway_ToUnknownConnectionIsNoOp(t *testing.T) {
	gw := New(&fakeDirectory{})
	gw.ToConnection("missing", "error", nil)
}
