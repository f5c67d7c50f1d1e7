package domain

// EventType names an outbound event as it appears on the wire.
type EventType string

const (
	EventSessionStatus EventType = "sessionStatus"
	EventLeaderboard   EventType = "leaderboard"
	EventQuestion      EventType = "question"
	EventAnswerOutcome EventType = "answerOutcome"
	EventErrorNotice   EventType = "errorNotice"
)

// Event is the envelope delivered to subscribers and written to clients as-is.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// StatusNotice reports the session status. IsHost is set only on the join
// acknowledgment sent to the joining connection.
type StatusNotice struct {
	Status SessionStatus `json:"status"`
	IsHost *bool         `json:"isHost,omitempty"`
}

// QuestionPrompt is the room-wide announcement of the next question. It never
// carries the correct option.
type QuestionPrompt struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Position   int      `json:"position"`
	TotalCount int      `json:"totalCount"`
	DurationMs int64    `json:"durationMs"`
}

// RoundResult is broadcast when a round ends, revealing the correct option and
// why the round closed.
type RoundResult struct {
	QuestionID         string `json:"questionId"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	ReasonSummary      string `json:"reasonSummary,omitempty"`
}

// AnswerReceipt acknowledges one player's submission.
type AnswerReceipt struct {
	QuestionID         string `json:"questionId"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	WasCorrect         bool   `json:"wasCorrect"`
	Saved              bool   `json:"saved"`
}

// ErrorNotice carries a human-readable problem report to a single connection.
type ErrorNotice struct {
	Message string `json:"message"`
}
