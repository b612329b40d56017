package types

import (
	"encoding/json"
	"time"
)

// Inbound event types, sent by clients over the websocket.
const (
	EventTeacherJoin    = "teacher-join"
	EventStudentJoin    = "student-join"
	EventCreatePoll     = "create-poll"
	EventSubmitAnswer   = "submit-answer"
	EventRemoveStudent  = "remove-student"
	EventSendMessage    = "send-message"
	EventGetPastResults = "get-past-results"
)

// Outbound event types, emitted by the coordinator and chat relay.
const (
	EventTeacherConnected = "teacher-connected"
	EventStudentConnected = "student-connected"
	EventStudentJoined    = "student-joined"
	EventStudentLeft      = "student-left"
	EventStudentRemoved   = "student-removed"
	EventPollQuestion     = "poll-question"
	EventPollCreated      = "poll-created"
	EventPollUpdate       = "poll-update"
	EventTimeUpdate       = "time-update"
	EventPollResults      = "poll-results"
	EventPollEnded        = "poll-ended"
	EventAnswerSubmitted  = "answer-submitted"
	EventRemovedByTeacher = "removed-by-teacher"
	EventPastResults      = "past-results"
	EventNewMessage       = "new-message"
	EventError            = "error"
)

// Bounds enforced at the connection boundary before commands reach the
// session coordinator.
const (
	MinNameLength = 2
	MaxNameLength = 20
	MinOptions    = 2
	MaxOptions    = 6
	MinTimeLimit  = 10
	MaxTimeLimit  = 300
)

// Envelope is the wire framing for every websocket message in both
// directions: a type tag plus a type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Student is a connected student. Identity is the connection id; nothing
// outlives the connection.
type Student struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasAnswered bool   `json:"hasAnswered"`
}

// Response is a single student's answer to a poll. At most one per
// student per poll, enforced by the coordinator via the roster flag.
type Response struct {
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Answer      string    `json:"answer"`
	Timestamp   time.Time `json:"timestamp"`
}

// Poll is a single question with its options and collected responses.
// Frozen once ended; retained in the store for the process lifetime.
type Poll struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	TimeLimit     int        `json:"timeLimit"`
	TimeRemaining int        `json:"timeRemaining"`
	Responses     []Response `json:"responses"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// QuestionView is the poll as shown to students: no response data.
type QuestionView struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	TimeRemaining int      `json:"timeRemaining"`
}

// Aggregate is the tallied state of a poll. Counts carries every option
// as a key, zero-filled, and always sums to TotalResponses.
type Aggregate struct {
	Question       string         `json:"question"`
	Options        []string       `json:"options"`
	Counts         map[string]int `json:"results"`
	TotalResponses int            `json:"totalResponses"`
	TimeLimit      int            `json:"timeLimit"`
	TimeRemaining  int            `json:"timeRemaining"`
}

// PollSummary is one entry of the past-results listing.
type PollSummary struct {
	ID             string         `json:"id"`
	Question       string         `json:"question"`
	Options        []string       `json:"options"`
	TotalResponses int            `json:"totalResponses"`
	CreatedAt      time.Time      `json:"createdAt"`
	Counts         map[string]int `json:"results"`
}

// StudentRef identifies a student in join/leave/remove notifications.
type StudentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatMessage is a relayed chat message. ID and Timestamp are assigned
// server side.
type ChatMessage struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	SenderType string    `json:"senderType"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
}

// StudentJoinRequest is the payload of a student-join event.
type StudentJoinRequest struct {
	Name string `json:"name"`
}

// CreatePollRequest is the payload of a create-poll event.
type CreatePollRequest struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

// SubmitAnswerRequest is the payload of a submit-answer event.
type SubmitAnswerRequest struct {
	PollID string `json:"pollId"`
	Answer string `json:"answer"`
}

// RemoveStudentRequest is the payload of a remove-student event.
type RemoveStudentRequest struct {
	StudentID string `json:"studentId"`
}

// SendMessageRequest is the payload of a send-message event.
type SendMessageRequest struct {
	Message    string `json:"message"`
	SenderType string `json:"senderType"`
	SenderName string `json:"senderName"`
}

// AnswerAck acknowledges a successful submit-answer to its sender.
type AnswerAck struct {
	Success bool `json:"success"`
}

// Stats is the read-only operational snapshot exposed over HTTP.
type Stats struct {
	ActiveStudents int          `json:"activeStudents"`
	TotalPolls     int          `json:"totalPolls"`
	CurrentPoll    *CurrentPoll `json:"currentPoll"`
}

// CurrentPoll summarizes the active poll for the stats endpoint.
type CurrentPoll struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	TimeRemaining int    `json:"timeRemaining"`
}
