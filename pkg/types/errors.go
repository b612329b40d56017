package types

// Command error kinds. Every guard failure in the session coordinator is
// reported to the offending connection as an error event carrying one of
// these tags. None of them is fatal to the session.
const (
	KindNameRequired    = "NameRequired"
	KindNameTaken       = "NameTaken"
	KindPollInProgress  = "PollInProgress"
	KindUnknownStudent  = "UnknownStudent"
	KindNoActivePoll    = "NoActivePoll"
	KindPollExpired     = "PollExpired"
	KindAlreadyAnswered = "AlreadyAnswered"
	KindInvalidOption   = "InvalidOption"
	KindNoSuchPoll      = "NoSuchPoll"
	KindRateLimited     = "RateLimited"
	KindBadRequest      = "BadRequest"
)

// CommandError is a tagged, client-visible command failure.
type CommandError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *CommandError) Error() string {
	return e.Message
}

// Is matches on Kind so callers can compare against the sentinels below
// with errors.Is regardless of the message text.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNameRequired    = &CommandError{Kind: KindNameRequired, Message: "Name is required"}
	ErrNameTaken       = &CommandError{Kind: KindNameTaken, Message: "Name already taken"}
	ErrPollInProgress  = &CommandError{Kind: KindPollInProgress, Message: "Cannot create new poll until all students have answered the current one"}
	ErrUnknownStudent  = &CommandError{Kind: KindUnknownStudent, Message: "Student not found"}
	ErrNoActivePoll    = &CommandError{Kind: KindNoActivePoll, Message: "No active poll"}
	ErrPollExpired     = &CommandError{Kind: KindPollExpired, Message: "Poll time has expired"}
	ErrAlreadyAnswered = &CommandError{Kind: KindAlreadyAnswered, Message: "You have already answered this poll"}
	ErrInvalidOption   = &CommandError{Kind: KindInvalidOption, Message: "Invalid answer option"}
	ErrNoSuchPoll      = &CommandError{Kind: KindNoSuchPoll, Message: "Poll not found"}
	ErrRateLimited     = &CommandError{Kind: KindRateLimited, Message: "You are sending messages too quickly"}
)

// NewCommandError builds a CommandError with a custom message. It still
// matches its sentinel via errors.Is.
func NewCommandError(kind, message string) *CommandError {
	return &CommandError{Kind: kind, Message: message}
}
