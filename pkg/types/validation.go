package types

import (
	"strings"
	"unicode/utf8"
)

// Boundary validation for inbound payloads. Commands are normalized here,
// before they reach the session coordinator, so every coordinator guard
// can assume trimmed, clamped input.

// Normalize trims the requested name.
func (r *StudentJoinRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks the trimmed name. Length violations reuse the
// NameRequired kind with a more specific message.
func (r *StudentJoinRequest) Validate() error {
	if r.Name == "" {
		return ErrNameRequired
	}
	if n := utf8.RuneCountInString(r.Name); n < MinNameLength || n > MaxNameLength {
		return NewCommandError(KindNameRequired, "Name must be 2-20 characters")
	}
	return nil
}

// Normalize trims the question, drops blank and duplicate options, and
// clamps the time limit into [MinTimeLimit, MaxTimeLimit]. Clamping is
// deliberately done here: the coordinator treats in-range values as a
// strict precondition.
func (r *CreatePollRequest) Normalize() {
	r.Question = strings.TrimSpace(r.Question)

	seen := make(map[string]bool, len(r.Options))
	options := make([]string, 0, len(r.Options))
	for _, option := range r.Options {
		option = strings.TrimSpace(option)
		if option == "" || seen[option] {
			continue
		}
		seen[option] = true
		options = append(options, option)
	}
	r.Options = options

	if r.TimeLimit == 0 {
		r.TimeLimit = 60
	}
	if r.TimeLimit < MinTimeLimit {
		r.TimeLimit = MinTimeLimit
	}
	if r.TimeLimit > MaxTimeLimit {
		r.TimeLimit = MaxTimeLimit
	}
}

// Validate checks a normalized create-poll request.
func (r *CreatePollRequest) Validate() error {
	if r.Question == "" {
		return NewCommandError(KindBadRequest, "Question is required")
	}
	if len(r.Options) < MinOptions || len(r.Options) > MaxOptions {
		return NewCommandError(KindBadRequest, "Polls need between 2 and 6 distinct options")
	}
	if r.TimeLimit < MinTimeLimit || r.TimeLimit > MaxTimeLimit {
		return NewCommandError(KindBadRequest, "Time limit must be between 10 and 300 seconds")
	}
	return nil
}

func (r *SubmitAnswerRequest) Validate() error {
	if r.PollID == "" || r.Answer == "" {
		return NewCommandError(KindBadRequest, "pollId and answer are required")
	}
	return nil
}

func (r *RemoveStudentRequest) Validate() error {
	if r.StudentID == "" {
		return NewCommandError(KindBadRequest, "studentId is required")
	}
	return nil
}

func (r *SendMessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return NewCommandError(KindBadRequest, "Message is required")
	}
	if r.SenderType != "teacher" && r.SenderType != "student" {
		return NewCommandError(KindBadRequest, "senderType must be 'teacher' or 'student'")
	}
	return nil
}
