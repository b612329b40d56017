// Package session implements the poll session coordinator: the state
// machine that owns poll lifecycle, enforces one-poll-at-a-time and
// one-answer-per-student, drives the countdown and broadcasts consistent
// results.
//
// All mutable session state (roster, poll store, active poll, countdown
// handle) is guarded by a single mutex. Every command runs to completion
// under it, so the two independent end-of-poll triggers (last student
// answered, countdown reached zero) are serialized and a poll ends
// exactly once: whichever trigger loses observes an idle session and
// becomes a no-op.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"classpoll/internal/broadcast"
	"classpoll/internal/roster"
	"classpoll/internal/store"
	"classpoll/pkg/types"
)

// Archiver receives completed polls. Writes happen off the command path;
// failures are logged and never affect session state.
type Archiver interface {
	SavePoll(ctx context.Context, poll *types.Poll, counts map[string]int) error
}

// countdown is the cancellable timer handle for one poll. Every tick
// re-checks the poll id against the active poll, so a stale tick from a
// just-ended poll can never touch its successor.
type countdown struct {
	pollID string
	stop   chan struct{}
}

type Coordinator struct {
	mu      sync.Mutex
	roster  *roster.Roster
	store   *store.Store
	gateway broadcast.Gateway

	archiver     Archiver
	tickInterval time.Duration
	countdown    *countdown
}

func New(r *roster.Roster, s *store.Store, gateway broadcast.Gateway) *Coordinator {
	return &Coordinator{
		roster:       r,
		store:        s,
		gateway:      gateway,
		tickInterval: time.Second,
	}
}

// SetArchiver attaches a completed-poll archive. Optional.
func (c *Coordinator) SetArchiver(a Archiver) {
	c.archiver = a
}

// SetTickInterval overrides the one-second countdown cadence.
func (c *Coordinator) SetTickInterval(d time.Duration) {
	c.tickInterval = d
}

// TeacherJoin registers a teacher connection and replays the current
// aggregate if a poll is running.
func (c *Coordinator) TeacherJoin(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gateway.ToConnection(connectionID, types.EventTeacherConnected, nil)

	if active := c.store.Active(); active != nil {
		if aggregate, err := c.store.Aggregate(active.ID); err == nil {
			c.gateway.ToConnection(connectionID, types.EventPollUpdate, aggregate)
		}
	}
}

// StudentJoin adds a student to the roster. The name must already be
// trimmed by the boundary layer. If a poll is running the new student
// receives the question (without response data) and may answer it.
func (c *Coordinator) StudentJoin(connectionID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	student, err := c.roster.Join(connectionID, name)
	if err != nil {
		return err
	}

	c.gateway.ToConnection(connectionID, types.EventStudentConnected, student)

	if active := c.store.Active(); active != nil {
		c.gateway.ToConnection(connectionID, types.EventPollQuestion, questionView(active))
	}

	c.gateway.ToTeachers(types.EventStudentJoined, types.StudentRef{ID: student.ID, Name: student.Name})
	return nil
}

// CreatePoll starts a new poll. Question, options and time limit must
// arrive trimmed, deduplicated and clamped into [10,300]; that is the
// boundary layer's contract, and violations are rejected rather than
// silently repaired. The guard: no new poll while one is active with
// unanswered students.
//
// The roster reset happens before the new poll is broadcast, so a late
// answer to the previous poll is rejected by the id guard in
// SubmitAnswer instead of being counted against the new poll.
func (c *Coordinator) CreatePoll(question string, options []string, timeLimitSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	request := types.CreatePollRequest{Question: question, Options: options, TimeLimit: timeLimitSeconds}
	if err := request.Validate(); err != nil {
		return err
	}

	if active := c.store.Active(); active != nil && !c.roster.AllAnswered() {
		return types.ErrPollInProgress
	}

	// Unreachable in practice (a fully-answered poll has already ended),
	// but never leave a previous countdown running.
	c.stopCountdownLocked()
	c.store.SetActive(nil)

	c.roster.ResetAllAnswered()
	poll := c.store.Create(question, options, timeLimitSeconds)
	c.store.SetActive(poll)
	c.startCountdownLocked(poll.ID)

	c.gateway.ToStudents(types.EventPollQuestion, questionView(poll))
	if aggregate, err := c.store.Aggregate(poll.ID); err == nil {
		c.gateway.ToTeachers(types.EventPollCreated, aggregate)
	}

	log.Printf("session: poll started id=%s question=%q timeLimit=%ds", poll.ID, poll.Question, poll.TimeLimit)
	return nil
}

// SubmitAnswer records a student's single answer to the active poll.
// Guards run in order, first failure wins, and nothing is mutated until
// every guard has passed. When the last outstanding student answers, the
// poll ends immediately.
func (c *Coordinator) SubmitAnswer(connectionID, pollID, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	student, ok := c.roster.Get(connectionID)
	if !ok {
		return types.ErrUnknownStudent
	}

	active := c.store.Active()
	if active == nil || active.ID != pollID {
		return types.ErrNoActivePoll
	}
	if active.TimeRemaining <= 0 {
		return types.ErrPollExpired
	}
	if student.HasAnswered {
		return types.ErrAlreadyAnswered
	}

	if _, err := c.store.RecordResponse(pollID, student.ID, student.Name, answer); err != nil {
		return err
	}
	c.roster.MarkAnswered(student.ID)

	if aggregate, err := c.store.Aggregate(pollID); err == nil {
		c.gateway.ToAll(types.EventPollUpdate, aggregate)
	}
	c.gateway.ToConnection(connectionID, types.EventAnswerSubmitted, types.AnswerAck{Success: true})

	if c.roster.AllAnswered() {
		c.endPollLocked(active)
	}
	return nil
}

// RemoveStudent is the teacher-initiated removal. The removed connection
// is notified so the transport can disconnect it. Removing the last
// unanswered student can complete the active poll.
func (c *Coordinator) RemoveStudent(studentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	student := c.roster.Remove(studentID)
	if student == nil {
		return types.ErrUnknownStudent
	}

	c.gateway.ToConnection(studentID, types.EventRemovedByTeacher, nil)
	c.gateway.ToTeachers(types.EventStudentRemoved, types.StudentRef{ID: student.ID, Name: student.Name})

	c.completeIfAllAnsweredLocked()
	return nil
}

// Disconnect handles a dropped connection. Frees the student's name for
// reuse and, like RemoveStudent, re-checks the all-answered condition.
// Connections that never joined as students are ignored.
func (c *Coordinator) Disconnect(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	student := c.roster.Remove(connectionID)
	if student == nil {
		return
	}

	c.gateway.ToTeachers(types.EventStudentLeft, types.StudentRef{ID: student.ID, Name: student.Name})

	c.completeIfAllAnsweredLocked()
}

// PastResults sends the full poll history to one connection.
func (c *Coordinator) PastResults(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gateway.ToConnection(connectionID, types.EventPastResults, c.store.History())
}

// Students returns the roster in join order.
func (c *Coordinator) Students() []*types.Student {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.roster.List()
}

// Stats is a read-only snapshot for the HTTP surface.
func (c *Coordinator) Stats() types.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := types.Stats{
		ActiveStudents: c.roster.Size(),
		TotalPolls:     c.store.Size(),
	}
	if active := c.store.Active(); active != nil {
		stats.CurrentPoll = &types.CurrentPoll{
			ID:            active.ID,
			Question:      active.Question,
			TimeRemaining: active.TimeRemaining,
		}
	}
	return stats
}

// Stop cancels any running countdown. Called on shutdown.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopCountdownLocked()
}

func (c *Coordinator) completeIfAllAnsweredLocked() {
	if active := c.store.Active(); active != nil && c.roster.AllAnswered() {
		c.endPollLocked(active)
	}
}

// endPollLocked is the single end-of-poll path for both triggers. It
// cancels the countdown, clears the active pointer, broadcasts the final
// aggregate and hands the frozen poll to the archive.
func (c *Coordinator) endPollLocked(poll *types.Poll) {
	c.stopCountdownLocked()
	c.store.SetActive(nil)

	aggregate, err := c.store.Aggregate(poll.ID)
	if err != nil {
		log.Printf("session: aggregate for ended poll %s failed: %v", poll.ID, err)
		return
	}

	c.gateway.ToAll(types.EventPollResults, aggregate)
	c.gateway.ToAll(types.EventPollEnded, nil)

	log.Printf("session: poll ended id=%s responses=%d", poll.ID, aggregate.TotalResponses)

	if c.archiver != nil {
		go func(poll *types.Poll, counts map[string]int) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.archiver.SavePoll(ctx, poll, counts); err != nil {
				log.Printf("session: archiving poll %s failed: %v", poll.ID, err)
			}
		}(poll, aggregate.Counts)
	}
}

func (c *Coordinator) startCountdownLocked(pollID string) {
	cd := &countdown{pollID: pollID, stop: make(chan struct{})}
	c.countdown = cd
	go c.runCountdown(cd)
}

func (c *Coordinator) stopCountdownLocked() {
	if c.countdown != nil {
		close(c.countdown.stop)
		c.countdown = nil
	}
}

func (c *Coordinator) runCountdown(cd *countdown) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			if !c.tick(cd) {
				return
			}
		}
	}
}

// tick advances the countdown by one second. It reports false once the
// countdown handle is stale or the poll has ended.
func (c *Coordinator) tick(cd *countdown) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.store.Active()
	if c.countdown != cd || active == nil || active.ID != cd.pollID {
		return false
	}

	c.store.Tick(active.ID)
	c.gateway.ToAll(types.EventTimeUpdate, active.TimeRemaining)

	if active.TimeRemaining <= 0 {
		c.endPollLocked(active)
		return false
	}
	return true
}

func questionView(poll *types.Poll) types.QuestionView {
	return types.QuestionView{
		ID:            poll.ID,
		Question:      poll.Question,
		Options:       poll.Options,
		TimeRemaining: poll.TimeRemaining,
	}
}
