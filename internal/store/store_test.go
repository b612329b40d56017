package store

import (
	"errors"
	"testing"

	"classpoll/pkg/types"
)

func TestStore_CreateInitializesCountdown(t *testing.T) {
	s := New()
	poll := s.Create("Color?", []string{"Red", "Blue"}, 30)

	if poll.ID == "" {
		t.Error("poll should get a fresh id")
	}
	if poll.TimeRemaining != 30 {
		t.Errorf("TimeRemaining = %d, want 30", poll.TimeRemaining)
	}
	if len(poll.Responses) != 0 {
		t.Errorf("Responses = %v, want empty", poll.Responses)
	}
	if poll.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	second := s.Create("Pet?", []string{"Cat", "Dog"}, 60)
	if second.ID == poll.ID {
		t.Error("poll ids must be unique")
	}
}

func TestStore_RecordResponse(t *testing.T) {
	s := New()
	poll := s.Create("Color?", []string{"Red", "Blue"}, 30)

	if _, err := s.RecordResponse("missing", "conn-1", "Ann", "Red"); !errors.Is(err, types.ErrNoSuchPoll) {
		t.Errorf("unknown poll = %v, want NoSuchPoll", err)
	}
	if _, err := s.RecordResponse(poll.ID, "conn-1", "Ann", "Green"); !errors.Is(err, types.ErrInvalidOption) {
		t.Errorf("unlisted answer = %v, want InvalidOption", err)
	}

	response, err := s.RecordResponse(poll.ID, "conn-1", "Ann", "Red")
	if err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}
	if response.StudentName != "Ann" || response.Answer != "Red" {
		t.Errorf("response = %+v", response)
	}
	if response.Timestamp.IsZero() {
		t.Error("response timestamp should be set")
	}
	if len(poll.Responses) != 1 {
		t.Errorf("poll has %d responses, want 1", len(poll.Responses))
	}
}

func TestStore_TickFloorsAtZero(t *testing.T) {
	s := New()
	poll := s.Create("Color?", []string{"Red", "Blue"}, 10)

	for i := 0; i < 15; i++ {
		s.Tick(poll.ID)
	}
	if poll.TimeRemaining != 0 {
		t.Errorf("TimeRemaining = %d, want 0", poll.TimeRemaining)
	}

	// Unknown ids never panic.
	s.Tick("missing")
}

func TestStore_AggregateZeroFillsAndSums(t *testing.T) {
	s := New()
	poll := s.Create("Color?", []string{"Red", "Blue", "Green"}, 30)

	aggregate, err := s.Aggregate(poll.ID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(aggregate.Counts) != 3 {
		t.Fatalf("Counts keys = %d, want every option present", len(aggregate.Counts))
	}
	for option, count := range aggregate.Counts {
		if count != 0 {
			t.Errorf("Counts[%q] = %d, want 0 before any votes", option, count)
		}
	}

	s.RecordResponse(poll.ID, "conn-1", "Ann", "Red")
	s.RecordResponse(poll.ID, "conn-2", "Ben", "Red")
	s.RecordResponse(poll.ID, "conn-3", "Cal", "Blue")

	aggregate, err = s.Aggregate(poll.ID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	sum := 0
	for _, count := range aggregate.Counts {
		sum += count
	}
	if sum != aggregate.TotalResponses || sum != 3 {
		t.Errorf("sum(counts) = %d, totalResponses = %d, want both 3", sum, aggregate.TotalResponses)
	}
	if aggregate.Counts["Red"] != 2 || aggregate.Counts["Blue"] != 1 || aggregate.Counts["Green"] != 0 {
		t.Errorf("Counts = %v", aggregate.Counts)
	}
}

func TestStore_ActivePointer(t *testing.T) {
	s := New()
	if s.Active() != nil {
		t.Error("fresh store should have no active poll")
	}
	poll := s.Create("Color?", []string{"Red", "Blue"}, 30)
	s.SetActive(poll)
	if s.Active() != poll {
		t.Error("Active should return the poll just set")
	}
	s.SetActive(nil)
	if s.Active() != nil {
		t.Error("SetActive(nil) should clear the pointer")
	}
}

func TestStore_HistoryInCreationOrder(t *testing.T) {
	s := New()
	first := s.Create("First?", []string{"A", "B"}, 30)
	second := s.Create("Second?", []string{"C", "D"}, 30)
	s.RecordResponse(second.ID, "conn-1", "Ann", "C")

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("History len = %d, want 2", len(history))
	}
	if history[0].ID != first.ID || history[1].ID != second.ID {
		t.Error("history should be in creation order")
	}
	if history[1].TotalResponses != 1 {
		t.Errorf("TotalResponses = %d, want 1", history[1].TotalResponses)
	}
	if history[0].Counts["A"] != 0 {
		t.Error("summary counts should be zero-filled")
	}
}
