// Package store is the authoritative record of every poll created during
// the session, plus the pointer to the currently active one. Polls are
// never deleted; an ended poll stays available for past-results.
//
// Like the roster, the store is owned by the session coordinator, which
// serializes all access.
package store

import (
	"time"

	"github.com/google/uuid"

	"classpoll/pkg/types"
)

type Store struct {
	polls  map[string]*types.Poll
	order  []string // poll ids in creation order
	active *types.Poll
}

func New() *Store {
	return &Store{
		polls: make(map[string]*types.Poll),
	}
}

// Create records a new poll with a fresh id and a full countdown.
// Option count, option contents and the time limit range are the
// caller's preconditions; the store trusts validated input.
func (s *Store) Create(question string, options []string, timeLimitSeconds int) *types.Poll {
	poll := &types.Poll{
		ID:            uuid.New().String(),
		Question:      question,
		Options:       options,
		TimeLimit:     timeLimitSeconds,
		TimeRemaining: timeLimitSeconds,
		Responses:     []types.Response{},
		CreatedAt:     time.Now(),
	}
	s.polls[poll.ID] = poll
	s.order = append(s.order, poll.ID)
	return poll
}

// Get returns a poll by id.
func (s *Store) Get(pollID string) (*types.Poll, bool) {
	poll, ok := s.polls[pollID]
	return poll, ok
}

// RecordResponse appends a student's answer to a poll.
func (s *Store) RecordResponse(pollID, studentID, studentName, answer string) (*types.Response, error) {
	poll, ok := s.polls[pollID]
	if !ok {
		return nil, types.ErrNoSuchPoll
	}

	valid := false
	for _, option := range poll.Options {
		if option == answer {
			valid = true
			break
		}
	}
	if !valid {
		return nil, types.ErrInvalidOption
	}

	response := types.Response{
		StudentID:   studentID,
		StudentName: studentName,
		Answer:      answer,
		Timestamp:   time.Now(),
	}
	poll.Responses = append(poll.Responses, response)
	return &response, nil
}

// Tick decrements a poll's remaining time by one second, floored at 0.
// Unknown ids and exhausted polls are no-ops.
func (s *Store) Tick(pollID string) {
	poll, ok := s.polls[pollID]
	if !ok || poll.TimeRemaining <= 0 {
		return
	}
	poll.TimeRemaining--
}

// Aggregate tallies a poll's responses. Every option appears in Counts,
// zero-filled, so the result shape is stable even with no votes.
func (s *Store) Aggregate(pollID string) (*types.Aggregate, error) {
	poll, ok := s.polls[pollID]
	if !ok {
		return nil, types.ErrNoSuchPoll
	}

	counts := make(map[string]int, len(poll.Options))
	for _, option := range poll.Options {
		counts[option] = 0
	}
	for _, response := range poll.Responses {
		counts[response.Answer]++
	}

	return &types.Aggregate{
		Question:       poll.Question,
		Options:        poll.Options,
		Counts:         counts,
		TotalResponses: len(poll.Responses),
		TimeLimit:      poll.TimeLimit,
		TimeRemaining:  poll.TimeRemaining,
	}, nil
}

// SetActive points the store at the current poll, or clears it with nil.
func (s *Store) SetActive(poll *types.Poll) {
	s.active = poll
}

// Active returns the current poll, or nil when the session is idle.
func (s *Store) Active() *types.Poll {
	return s.active
}

// History returns summaries of every poll in creation order.
func (s *Store) History() []types.PollSummary {
	summaries := make([]types.PollSummary, 0, len(s.order))
	for _, id := range s.order {
		poll := s.polls[id]
		aggregate, err := s.Aggregate(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, types.PollSummary{
			ID:             poll.ID,
			Question:       poll.Question,
			Options:        poll.Options,
			TotalResponses: len(poll.Responses),
			CreatedAt:      poll.CreatedAt,
			Counts:         aggregate.Counts,
		})
	}
	return summaries
}

// Size returns the number of polls created this session.
func (s *Store) Size() int {
	return len(s.polls)
}
